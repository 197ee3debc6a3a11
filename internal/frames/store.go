// Package frames implements the append-only frame log shared between
// the ingestor (writer) and the playback scheduler (reader).
package frames

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tty-session/ttyrec/internal/vt"
)

// Frame is an immutable (screen, delay) pair. Once appended to a Store
// it never moves or mutates.
type Frame struct {
	Screen vt.Screen
	Delay  time.Duration
}

// Store is a growing, append-only log of Frames, safe for one writer
// and many concurrent readers. The zero value is not usable; use New.
type Store struct {
	mu   sync.Mutex
	data []Frame
	done bool

	// waitCh is closed and replaced on every append or finish: a
	// waiter blocks on the channel it
	// observed, which is guaranteed to still be open until the next
	// change, so the level check below the lock can never race past a
	// publication it should have seen.
	waitCh chan struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{waitCh: make(chan struct{})}
}

// Get returns the frame at index i and true, or the zero Frame and
// false if i is not yet available.
func (s *Store) Get(i int) (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.data) {
		return Frame{}, false
	}
	return s.data[i], true
}

// Count returns the number of frames appended so far.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Done reports whether Finish has been called.
func (s *Store) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Append adds a new frame and publishes the updated count. It never
// blocks on readers.
func (s *Store) Append(f Frame) {
	s.mu.Lock()
	s.data = append(s.data, f)
	s.publishLocked()
	s.mu.Unlock()
}

// Finish marks the store as fully read. Subsequent calls are no-ops.
func (s *Store) Finish() {
	s.mu.Lock()
	if !s.done {
		s.done = true
		s.publishLocked()
	}
	s.mu.Unlock()
}

// publishLocked wakes every current waiter. Callers must hold s.mu.
func (s *Store) publishLocked() {
	close(s.waitCh)
	s.waitCh = make(chan struct{})
}

// WaitFor blocks until frame i is available, returning true, or until
// Finish is observed with count <= i, returning false. It is
// level-triggered: a newly constructed wait sees the current state
// without racing past an earlier publication. ctx cancellation returns
// false.
func (s *Store) WaitFor(ctx context.Context, i int) bool {
	for {
		s.mu.Lock()
		if i < len(s.data) {
			s.mu.Unlock()
			return true
		}
		if s.done {
			s.mu.Unlock()
			return false
		}
		ch := s.waitCh
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return false
		}
	}
}

// Search scans for the first frame at or after (or, if backwards,
// strictly before) start whose rendered screen contents contain query
// as a substring, returning its index. It returns false if no frame
// matches. The scan is case-sensitive and stops at the snapshot of
// count taken when Search begins; frames appended afterward are not
// considered.
func (s *Store) Search(start int, query string, backwards bool) (int, bool) {
	s.mu.Lock()
	snapshot := make([]Frame, len(s.data))
	copy(snapshot, s.data)
	s.mu.Unlock()

	if backwards {
		for j := start - 1; j >= 0; j-- {
			if strings.Contains(snapshot[j].Screen.Contents(), query) {
				return j, true
			}
		}
		return 0, false
	}

	for j := start; j < len(snapshot); j++ {
		if strings.Contains(snapshot[j].Screen.Contents(), query) {
			return j, true
		}
	}
	return 0, false
}
