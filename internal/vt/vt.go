// Package vt wraps github.com/vito/midterm to produce immutable Screen
// snapshots from a stream of raw terminal output, the way a ttyrec frame
// needs one.
package vt

import (
	"strings"

	"github.com/vito/midterm"
)

// DefaultRows and DefaultCols are used when the controlling terminal's
// size cannot be determined.
const (
	DefaultRows = 24
	DefaultCols = 80
)

// Screen is an immutable snapshot of a terminal's cell grid, cursor, and
// attributes at one instant. It never changes after construction.
type Screen struct {
	rows      []string
	formatted []string
	cursorRow int
	cursorCol int
	cols      int
}

// Contents joins the visible characters of every row, trimmed of
// trailing whitespace, into a single string. This is what Store.Search
// matches against.
func (s Screen) Contents() string {
	return strings.Join(s.rows, "\n")
}

// ContentsFormatted returns the screen rendered with ANSI attributes,
// one escape-coded line per row, suitable for writing straight to a
// terminal.
func (s Screen) ContentsFormatted() []byte {
	var b strings.Builder
	for i, line := range s.formatted {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(line)
	}
	return []byte(b.String())
}

// Rows returns the number of rows captured in the screen.
func (s Screen) Rows() int { return len(s.rows) }

// Cols returns the terminal width at capture time.
func (s Screen) Cols() int { return s.cols }

// Cursor returns the cursor's row and column at capture time.
func (s Screen) Cursor() (row, col int) { return s.cursorRow, s.cursorCol }

// NewScreen builds a Screen directly from already-rendered row text,
// bypassing the parser. Tests use this to exercise frame storage and
// search without driving a real VT parser.
func NewScreen(rows []string) Screen {
	formatted := make([]string, len(rows))
	copy(formatted, rows)
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	return Screen{rows: rows, formatted: formatted, cols: cols}
}

// Parser feeds raw output bytes into a virtual terminal and yields
// immutable Screen snapshots on demand.
type Parser struct {
	term *midterm.Terminal
}

// NewParser creates a parser for a terminal of the given size, falling
// back to DefaultRows x DefaultCols when either dimension is non-positive.
func NewParser(rows, cols int) *Parser {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	return &Parser{term: midterm.NewTerminal(rows, cols)}
}

// Process feeds raw output bytes (as read from a PTY or ttyrec record)
// into the virtual terminal, advancing its state.
func (p *Parser) Process(data []byte) {
	_, _ = p.term.Write(data)
}

// Resize changes the virtual terminal's dimensions, used when the
// recorded session's terminal size is known up front.
func (p *Parser) Resize(rows, cols int) {
	p.term.Resize(rows, cols)
}

// Screen clones the parser's current state into an immutable snapshot.
func (p *Parser) Screen() Screen {
	return snapshot(p.term)
}

func snapshot(t *midterm.Terminal) Screen {
	rows := make([]string, len(t.Content))
	formatted := make([]string, len(t.Content))
	for i, line := range t.Content {
		rows[i] = strings.TrimRight(string(line), " ")
		formatted[i] = renderLine(t, i, line)
	}
	return Screen{
		rows:      rows,
		formatted: formatted,
		cursorRow: t.Cursor.Y,
		cursorCol: t.Cursor.X,
		cols:      len(t.Content[0]),
	}
}

// renderLine reassembles one row as an ANSI-escaped string, resetting
// attributes between format regions so backgrounds don't bleed across
// them (midterm.RenderLine does not reset between regions on its own).
func renderLine(t *midterm.Terminal, row int, line []rune) string {
	var b strings.Builder
	var pos int
	var last midterm.Format
	first := true
	for region := range t.Format.Regions(row) {
		f := region.F
		if first || f != last {
			b.WriteString("\033[0m")
			b.WriteString(f.Render())
			last = f
			first = false
		}
		end := pos + region.Size
		if pos < len(line) {
			contentEnd := end
			if contentEnd > len(line) {
				contentEnd = len(line)
			}
			b.WriteString(string(line[pos:contentEnd]))
		}
		pos = end
	}
	b.WriteString("\033[0m")
	return b.String()
}
