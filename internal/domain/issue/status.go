package issue

import "fmt"

type Status string

const (
	StatusRequest    Status = "REQUEST"
	StatusNotApplied Status = "NOT_APPLIED"
	StatusApplied    Status = "APPLIED"
	StatusRejected   Status = "REJECTED"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusRequest:    {StatusNotApplied: true},
	StatusNotApplied: {StatusNotApplied: true, StatusApplied: true, StatusRejected: true},
	StatusRejected:   {StatusNotApplied: true, StatusRequest: true},
	StatusApplied:    {},
}

func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// CanTransitionTo reports whether the workflow permits moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	return allowedTransitions[s][next]
}

// Transition validates a move and returns the target status.
func (s Status) Transition(next Status) (Status, error) {
	if s == StatusApplied {
		return s, ErrIssueAlreadyApplied
	}
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidIssueTransition, s, next)
	}
	return next, nil
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown issue status %q", s)
	}
	return st, nil
}
