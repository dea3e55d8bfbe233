package documents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"contract961/signing-backend/pkg/workflows"
)

// ExpiryService closes requests whose signing deadline has passed.
type ExpiryService struct {
	repo     Repository
	workflow *WorkflowService
	logger   *zap.Logger
}

func NewExpiryService(repo Repository, workflow *WorkflowService, logger *zap.Logger) *ExpiryService {
	return &ExpiryService{repo: repo, workflow: workflow, logger: logger}
}

// ExpireOverdue expires every open request with a deadline before now.
func (s *ExpiryService) ExpireOverdue(ctx context.Context, now time.Time) ([]ExpiredRequest, error) {
	expired, err := s.repo.ExpireOverdue(ctx, now, s.workflow.Sources(workflows.StatusExpired))
	if err != nil {
		return nil, err
	}
	for _, r := range expired {
		s.logger.Info("Request expired",
			zap.String("request_id", r.ID.String()),
			zap.String("display_id", r.DisplayID),
		)
	}
	return expired, nil
}
