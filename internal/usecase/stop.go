package usecase

import "sync"

// StopToken is a one-shot cooperative cancellation flag. Long-running steps
// poll Stopped at their checkpoints; nothing in flight is interrupted.
type StopToken struct {
	once sync.Once
	done chan struct{}
}

// NewStopToken returns an unset token.
func NewStopToken() *StopToken {
	return &StopToken{done: make(chan struct{})}
}

// Stop sets the flag. Repeated calls are no-ops.
func (s *StopToken) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.done) })
}

// Stopped reports whether Stop has been called. A nil token never stops.
func (s *StopToken) Stopped() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed once Stop is called; nil for a nil token.
func (s *StopToken) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.done
}
