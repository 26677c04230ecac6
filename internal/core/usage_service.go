package core

import (
	"context"
	"fmt"
	"time"

	"github.com/chatforge/chatforge/internal/store"
)

const dailyUsageWindowDays = 30

type UsageService struct {
	store *store.Store
}

func NewUsageService(st *store.Store) *UsageService {
	return &UsageService{store: st}
}

type Dashboard struct {
	TotalCost     float64            `json:"total_cost"`
	TotalRequests int                `json:"total_requests"`
	UsageByUser   []store.UserUsage  `json:"usage_by_user"`
	UsageByModel  []store.ModelUsage `json:"usage_by_model"`
	DailyUsage    []store.DailyUsage `json:"daily_usage"`
}

// Dashboard aggregates the usage ledger: personal scope covers the caller's
// workspace-less records; a workspace scope requires verified membership
// and covers every member's records in that workspace.
func (s *UsageService) Dashboard(ctx context.Context, userID, workspaceID string) (*Dashboard, error) {
	scope := store.UsageScope{UserID: userID}
	if workspaceID != "" {
		ok, err := s.store.IsWorkspaceMember(ctx, workspaceID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify membership: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: workspace %s", ErrAccessDenied, workspaceID)
		}
		scope.WorkspaceID = &workspaceID
	}

	totalCost, totalRequests, err := s.store.UsageTotals(ctx, scope)
	if err != nil {
		return nil, err
	}
	byUser, err := s.store.UsageByUser(ctx, scope)
	if err != nil {
		return nil, err
	}
	byModel, err := s.store.UsageByModel(ctx, scope)
	if err != nil {
		return nil, err
	}
	since := time.Now().UTC().AddDate(0, 0, -dailyUsageWindowDays)
	daily, err := s.store.DailyUsage(ctx, scope, since)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalCost:     totalCost,
		TotalRequests: totalRequests,
		UsageByUser:   byUser,
		UsageByModel:  byModel,
		DailyUsage:    daily,
	}, nil
}
