package store

import (
	"context"
	"fmt"
	"time"
)

// UsageScope selects which usage records a dashboard query covers: a single
// workspace, or the caller's personal (workspace-less) records.
type UsageScope struct {
	UserID      string
	WorkspaceID *string
}

type UserUsage struct {
	Username     string  `db:"username" json:"username"`
	TotalCost    float64 `db:"total_cost" json:"total_cost"`
	RequestCount int     `db:"request_count" json:"request_count"`
}

type ModelUsage struct {
	Model        string  `db:"model" json:"model"`
	TotalCost    float64 `db:"total_cost" json:"total_cost"`
	RequestCount int     `db:"request_count" json:"request_count"`
}

type DailyUsage struct {
	Date     string  `db:"day" json:"date"`
	Cost     float64 `db:"cost" json:"cost"`
	Requests int     `db:"requests" json:"requests"`
}

func (s *Store) AppendUsageRecord(ctx context.Context, rec *UsageRecord) error {
	rec.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_records (user_id, workspace_id, model, input_tokens, output_tokens, cost_estimate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.WorkspaceID, rec.Model, rec.InputTokens, rec.OutputTokens, rec.CostEstimate, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

// ListUsageRecords returns a user's raw usage records, oldest first.
func (s *Store) ListUsageRecords(ctx context.Context, userID string) ([]UsageRecord, error) {
	var records []UsageRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT * FROM usage_records WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	return records, nil
}

func (scope UsageScope) where() (string, []interface{}) {
	if scope.WorkspaceID != nil {
		return "workspace_id = ?", []interface{}{*scope.WorkspaceID}
	}
	return "user_id = ? AND workspace_id IS NULL", []interface{}{scope.UserID}
}

func (s *Store) UsageTotals(ctx context.Context, scope UsageScope) (totalCost float64, totalRequests int, err error) {
	where, args := scope.where()
	row := struct {
		TotalCost     float64 `db:"total_cost"`
		TotalRequests int     `db:"total_requests"`
	}{}
	err = s.db.GetContext(ctx, &row,
		`SELECT COALESCE(SUM(cost_estimate), 0) AS total_cost, COUNT(*) AS total_requests
		 FROM usage_records WHERE `+where, args...)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query usage totals: %w", err)
	}
	return row.TotalCost, row.TotalRequests, nil
}

func (s *Store) UsageByUser(ctx context.Context, scope UsageScope) ([]UserUsage, error) {
	where, args := scope.where()
	var rows []UserUsage
	err := s.db.SelectContext(ctx, &rows,
		`SELECT u.username AS username,
		        COALESCE(SUM(r.cost_estimate), 0) AS total_cost,
		        COUNT(*) AS request_count
		 FROM usage_records r
		 JOIN users u ON u.id = r.user_id
		 WHERE `+where+`
		 GROUP BY u.username
		 ORDER BY total_cost DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage by user: %w", err)
	}
	return rows, nil
}

func (s *Store) UsageByModel(ctx context.Context, scope UsageScope) ([]ModelUsage, error) {
	where, args := scope.where()
	var rows []ModelUsage
	err := s.db.SelectContext(ctx, &rows,
		`SELECT model,
		        COALESCE(SUM(cost_estimate), 0) AS total_cost,
		        COUNT(*) AS request_count
		 FROM usage_records
		 WHERE `+where+`
		 GROUP BY model
		 ORDER BY total_cost DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage by model: %w", err)
	}
	return rows, nil
}

// DailyUsage buckets the trailing-window records by calendar day.
func (s *Store) DailyUsage(ctx context.Context, scope UsageScope, since time.Time) ([]DailyUsage, error) {
	where, args := scope.where()
	args = append(args, since)
	var rows []DailyUsage
	err := s.db.SelectContext(ctx, &rows,
		`SELECT date(created_at) AS day,
		        COALESCE(SUM(cost_estimate), 0) AS cost,
		        COUNT(*) AS requests
		 FROM usage_records
		 WHERE `+where+` AND created_at >= ?
		 GROUP BY date(created_at)
		 ORDER BY day ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	return rows, nil
}
