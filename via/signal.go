package via

import (
	"fmt"
	"sync"

	"github.com/go-via/contactform/h"
)

type signal struct {
	id      string
	mu      sync.RWMutex
	v       any
	changed bool
}

// ID returns the signal name used in datastar expressions.
func (s *signal) ID() string {
	return s.id
}

// Bind links an input element's value to the signal.
func (s *signal) Bind() h.H {
	return h.Data("bind", s.id)
}

// Text renders the signal value as the element's text.
func (s *signal) Text() h.H {
	return h.Data("text", "$"+s.id)
}

// String returns the signal value formatted as a string.
func (s *signal) String() string {
	v := s.value()
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// SetValue updates the signal and marks it for the next sync.
func (s *signal) SetValue(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
	s.changed = true
}

func (s *signal) value() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

func (s *signal) inject(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
	s.changed = false
}

func (s *signal) takeChange() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.changed {
		return nil, false
	}
	s.changed = false
	return s.v, true
}
