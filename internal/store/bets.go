package store

import (
	"context"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// RecordBet inserts a placed bet
func (p *Postgres) RecordBet(ctx context.Context, bet *models.BetRecord) (int64, error) {
	placedAt := bet.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	status := bet.Status
	if status == "" {
		status = models.BetStatusPending
	}

	query := `
		INSERT INTO bets (placed_at, sport, bookmaker, bet_type, stake, profit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := p.db.QueryRowContext(ctx, query,
		placedAt,
		bet.Sport,
		bet.Bookmaker,
		bet.BetType,
		bet.Stake,
		bet.Profit,
		status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert bet: %w", err)
	}

	bet.ID = id
	bet.PlacedAt = placedAt
	bet.Status = status
	return id, nil
}

// ListBets returns bets matching the filter, newest first
func (p *Postgres) ListBets(ctx context.Context, filter models.RecordFilter) ([]models.BetRecord, error) {
	query, args := buildBetsQuery(filter)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	bets := []models.BetRecord{}
	for rows.Next() {
		var b models.BetRecord
		err := rows.Scan(&b.ID, &b.PlacedAt, &b.Sport, &b.Bookmaker, &b.BetType, &b.Stake, &b.Profit, &b.Status)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		bets = append(bets, b)
	}

	return bets, rows.Err()
}

func buildBetsQuery(filter models.RecordFilter) (string, []interface{}) {
	query := `
		SELECT id, placed_at, sport, bookmaker, bet_type, stake, profit, status
		FROM bets
		WHERE 1=1`

	args := []interface{}{}
	argPos := 1

	if filter.Sport != "" {
		query += fmt.Sprintf(" AND sport = $%d", argPos)
		args = append(args, filter.Sport)
		argPos++
	}

	if filter.Bookmaker != "" {
		query += fmt.Sprintf(" AND bookmaker = $%d", argPos)
		args = append(args, filter.Bookmaker)
		argPos++
	}

	if filter.BetType != "" {
		query += fmt.Sprintf(" AND bet_type = $%d", argPos)
		args = append(args, filter.BetType)
		argPos++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND placed_at >= $%d", argPos)
		args = append(args, *filter.Since)
		argPos++
	}

	if filter.Until != nil {
		query += fmt.Sprintf(" AND placed_at < $%d", argPos)
		args = append(args, *filter.Until)
		argPos++
	}

	query += " ORDER BY placed_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	return query, args
}
