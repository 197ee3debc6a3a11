package vt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScreenContents(t *testing.T) {
	s := NewScreen([]string{"hello", "world"})
	assert.Equal(t, "hello\nworld", s.Contents())
	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, 5, s.Cols())
}

func TestNewScreenContentsFormattedPreservesRows(t *testing.T) {
	s := NewScreen([]string{"alpha", "beta gamma"})
	formatted := string(s.ContentsFormatted())
	assert.True(t, strings.Contains(formatted, "alpha"))
	assert.True(t, strings.Contains(formatted, "beta gamma"))
	assert.True(t, strings.Contains(formatted, "\r\n"))
}

func TestParserFallsBackToDefaultSize(t *testing.T) {
	p := NewParser(0, 0)
	require.NotNil(t, p)
	s := p.Screen()
	assert.Equal(t, DefaultRows, s.Rows())
	assert.Equal(t, DefaultCols, s.Cols())
}

func TestParserProcessAdvancesScreenContents(t *testing.T) {
	p := NewParser(24, 80)
	p.Process([]byte("hello"))
	s := p.Screen()
	assert.True(t, strings.HasPrefix(s.Contents(), "hello"))
}

func TestParserResize(t *testing.T) {
	p := NewParser(24, 80)
	p.Resize(10, 40)
	s := p.Screen()
	assert.Equal(t, 10, s.Rows())
	assert.Equal(t, 40, s.Cols())
}

func TestParserCursorAdvancesOnWrite(t *testing.T) {
	p := NewParser(24, 80)
	p.Process([]byte("abc"))
	s := p.Screen()
	_, col := s.Cursor()
	assert.Equal(t, 3, col)
}
