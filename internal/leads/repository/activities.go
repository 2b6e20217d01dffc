package repository

import (
	"context"
	"time"

	"smartlead_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Activity is a single immutable entry in a lead's activity log.
type Activity struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	ActivityType     domain.ActivityType
	Body             string
	ActivityDatetime time.Time
}

type AppendActivityParams struct {
	LeadID           uuid.UUID
	ActivityType     domain.ActivityType
	Body             string
	ActivityDatetime *time.Time // nil defaults to now()
}

// AppendActivity inserts an activity record. The activities table is
// append-only: there are no update or delete operations.
func (r *Repository) AppendActivity(ctx context.Context, params AppendActivityParams) (Activity, error) {
	at := time.Now()
	if params.ActivityDatetime != nil {
		at = *params.ActivityDatetime
	}

	var activity Activity
	err := r.pool.QueryRow(ctx, `
		INSERT INTO activities (lead_id, activity_type, body, activity_datetime)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, activity_type, body, activity_datetime
	`, params.LeadID, params.ActivityType, params.Body, at).Scan(
		&activity.ID, &activity.LeadID, &activity.ActivityType,
		&activity.Body, &activity.ActivityDatetime,
	)
	if err != nil {
		return Activity{}, err
	}

	return activity, nil
}

// ListActivities returns a lead's activity log in chronological order.
func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, activity_type, body, activity_datetime
		FROM activities
		WHERE lead_id = $1
		ORDER BY activity_datetime ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		var activity Activity
		if err := rows.Scan(
			&activity.ID, &activity.LeadID, &activity.ActivityType,
			&activity.Body, &activity.ActivityDatetime,
		); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}
