package documents

import (
	"fmt"
	"strings"

	"contract961/signing-backend/pkg/workflows"
)

type WorkflowService struct {
	sm *workflows.StateMachine
}

func NewWorkflowService(sm *workflows.StateMachine) *WorkflowService {
	return &WorkflowService{sm: sm}
}

// Check returns ErrInvalidTransition when req may not move to next.
func (s *WorkflowService) Check(req *SigningRequest, next string) error {
	if s.sm.CanTransition(req.Status, next) {
		return nil
	}
	if s.sm.IsTerminal(req.Status) {
		return fmt.Errorf("%w: request %s is already %s", ErrInvalidTransition, req.DisplayID, req.Status)
	}
	return fmt.Errorf("%w: %s -> %s (request %s, allowed: %s)",
		ErrInvalidTransition, req.Status, next, req.DisplayID, strings.Join(s.GetNextStates(req.Status), ", "))
}

func (s *WorkflowService) GetNextStates(status string) []string {
	return s.sm.GetAllowedTransitions(status)
}

// Sources lists the statuses from which a request may move to next.
func (s *WorkflowService) Sources(next string) []string {
	return s.sm.Sources(next)
}
