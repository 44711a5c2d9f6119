package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/utils"
)

type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type AdminDashboardStats struct {
	TotalHandled  int                `json:"total_handled"`
	ResolvedCount int                `json:"resolved_count"`
	RejectedCount int                `json:"rejected_count"`
	Sentiment     SentimentBreakdown `json:"sentiment"`
}

// GetAdminDashboardStats aggregates the grievances the acting admin has
// closed. Cached in redis for a short window since the dashboard polls.
func GetAdminDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	if err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	key := "AdminStats:" + fmt.Sprint(userId)
	var stats AdminDashboardStats
	exists, err := config.GetRedisObject(key, &stats)
	if err != nil {
		return nil, err
	}
	if exists {
		return &stats, nil
	}

	db := config.GetDB()
	query := `
	SELECT
		COUNT(*) AS total_handled,
		SUM(CASE WHEN status = 'Resolved' THEN 1 ELSE 0 END) AS resolved_count,
		SUM(CASE WHEN status = 'Rejected' THEN 1 ELSE 0 END) AS rejected_count,
		SUM(CASE WHEN sentiment = 'Positive' THEN 1 ELSE 0 END) AS positive,
		SUM(CASE WHEN sentiment = 'Negative' THEN 1 ELSE 0 END) AS negative,
		SUM(CASE WHEN sentiment = 'Neutral' THEN 1 ELSE 0 END) AS neutral
	FROM grievances
	WHERE resolved_by_user_id = ?
	`
	var row struct {
		TotalHandled  int
		ResolvedCount int
		RejectedCount int
		Positive      int
		Negative      int
		Neutral       int
	}
	if err := db.WithContext(ctx).Raw(query, userId).Scan(&row).Error; err != nil {
		return nil, err
	}

	stats = AdminDashboardStats{
		TotalHandled:  row.TotalHandled,
		ResolvedCount: row.ResolvedCount,
		RejectedCount: row.RejectedCount,
		Sentiment: SentimentBreakdown{
			Positive: row.Positive,
			Negative: row.Negative,
			Neutral:  row.Neutral,
		},
	}
	if err := config.SetRedisObject(key, &stats, 5*time.Minute); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetGrievanceSummary produces a deterministic narrative over the aggregate
// counts for the admin overview page.
func GetGrievanceSummary(ctx context.Context) (string, error) {
	if err := RequireAdmin(ctx); err != nil {
		return "", err
	}

	db := config.GetDB()
	var row struct {
		Total    int
		Resolved int
		Negative int
	}
	query := `
	SELECT
		COUNT(*) AS total,
		SUM(CASE WHEN status = 'Resolved' THEN 1 ELSE 0 END) AS resolved,
		SUM(CASE WHEN sentiment = 'Negative' THEN 1 ELSE 0 END) AS negative
	FROM grievances
	`
	if err := db.WithContext(ctx).Raw(query).Scan(&row).Error; err != nil {
		return "", err
	}
	if row.Total == 0 {
		return "No grievance data available yet.", nil
	}

	summary := fmt.Sprintf(
		"Analysis of %d total grievances indicates %d cases classified as negative sentiment. "+
			"With %d cases closed, the resolution process is active; a high volume of negative sentiment warrants a proactive review.",
		row.Total, row.Negative, row.Resolved,
	)
	return summary, nil
}
