package payment

import "fmt"

type State string

const (
	StateIdle                  State = "idle"
	StateAwaitingAuthorization State = "awaiting_authorization"
	StateCapturing             State = "capturing"
	StateSettled               State = "settled"
	StateFailed                State = "failed"
	StateCancelled             State = "cancelled"
)

var transitions = map[State][]State{
	StateIdle:                  {StateAwaitingAuthorization, StateFailed},
	StateAwaitingAuthorization: {StateCapturing, StateFailed, StateCancelled},
	StateCapturing:             {StateSettled, StateFailed},
}

func (s State) Terminal() bool {
	return s == StateSettled || s == StateFailed || s == StateCancelled
}

// Next validates the move from s to next.
func (s State) Next(next State) (State, error) {
	if s == "" {
		s = StateIdle
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidState, s, next)
}
