package workflows

import "sort"

// Signing request statuses.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusViewed   = "viewed"
	StatusCodeSent = "code_sent"
	StatusSigned   = "signed"
	StatusExpired  = "expired"
	StatusCanceled = "canceled"
)

// StateMachine enforces signing request status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a new state machine with allowed transitions
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			StatusDraft:    {StatusSent, StatusCanceled},
			StatusSent:     {StatusViewed, StatusCodeSent, StatusExpired, StatusCanceled},
			StatusViewed:   {StatusCodeSent, StatusExpired, StatusCanceled},
			StatusCodeSent: {StatusCodeSent, StatusSigned, StatusExpired, StatusCanceled}, // a new code may be requested
			StatusSigned:   {},
			StatusExpired:  {},
			StatusCanceled: {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// IsTerminal reports whether no further transition is possible.
func (sm *StateMachine) IsTerminal(status string) bool {
	allowed, exists := sm.allowedTransitions[status]
	return exists && len(allowed) == 0
}

// Sources returns, in sorted order, every status that may move to to.
func (sm *StateMachine) Sources(to string) []string {
	var from []string
	for status := range sm.allowedTransitions {
		if sm.CanTransition(status, to) {
			from = append(from, status)
		}
	}
	sort.Strings(from)
	return from
}
