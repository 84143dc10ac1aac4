package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

const defaultNotificationLimit = 50

// DefaultNotificationSettings is what a user gets before saving any settings
func DefaultNotificationSettings(userID string) *models.NotificationSettings {
	return &models.NotificationSettings{
		UserID:           userID,
		Enabled:          true,
		MinMarginPercent: 1.0,
		MinEVPercent:     5.0,
		Channels:         []string{models.ChannelWebSocket},
	}
}

// GetNotificationSettings retrieves a user's alert settings. Users without a
// row get DefaultNotificationSettings.
func (p *Postgres) GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	query := `
		SELECT user_id, enabled, min_margin_pct, min_ev_pct, channels, updated_at
		FROM notification_settings
		WHERE user_id = $1
	`

	settings := &models.NotificationSettings{}
	err := p.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.Enabled,
		&settings.MinMarginPercent,
		&settings.MinEVPercent,
		pq.Array(&settings.Channels),
		&settings.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return DefaultNotificationSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query notification settings: %w", err)
	}

	return settings, nil
}

// UpsertNotificationSettings creates or replaces a user's alert settings
func (p *Postgres) UpsertNotificationSettings(ctx context.Context, userID string, update *models.NotificationSettingsUpdate) error {
	channels := update.Channels
	if channels == nil {
		channels = []string{}
	}

	query := `
		INSERT INTO notification_settings (user_id, enabled, min_margin_pct, min_ev_pct, channels)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			min_margin_pct = EXCLUDED.min_margin_pct,
			min_ev_pct = EXCLUDED.min_ev_pct,
			channels = EXCLUDED.channels,
			updated_at = NOW()
	`

	_, err := p.db.ExecContext(ctx, query,
		userID,
		update.Enabled,
		update.MinMarginPercent,
		update.MinEVPercent,
		pq.Array(channels),
	)
	if err != nil {
		return fmt.Errorf("update notification settings: %w", err)
	}

	return nil
}

// InsertNotification records a delivered alert
func (p *Postgres) InsertNotification(ctx context.Context, n *models.Notification) (int64, error) {
	query := `
		INSERT INTO notifications (user_id, channel, title, body, risk_tier)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := p.db.QueryRowContext(ctx, query,
		n.UserID,
		n.Channel,
		n.Title,
		n.Body,
		string(n.RiskTier),
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}

	return n.ID, nil
}

// ListNotifications returns a user's notifications, newest first
func (p *Postgres) ListNotifications(ctx context.Context, userID string, filters models.NotificationFilters) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, channel, title, body, risk_tier, read_at, created_at
		FROM notifications
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	argPos := 2

	if filters.UnreadOnly {
		query += " AND read_at IS NULL"
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argPos)
	args = append(args, limit)
	argPos++

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filters.Offset)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var (
			n        models.Notification
			riskTier string
			readAt   sql.NullTime
		)
		err := rows.Scan(&n.ID, &n.UserID, &n.Channel, &n.Title, &n.Body, &riskTier, &readAt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.RiskTier = calculator.RiskTier(riskTier)
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead sets read_at on a user's notification. Already-read
// notifications keep their original timestamp.
func (p *Postgres) MarkNotificationRead(ctx context.Context, userID string, id int64) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`

	res, err := p.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
