package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

const defaultHistoryLimit = 50

// SaveCalculation inserts a calculator run and returns its generated ID
func (p *Postgres) SaveCalculation(ctx context.Context, calc *models.Calculation) (string, error) {
	id := uuid.New().String()
	createdAt := calc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO calculations (id, kind, input, result, risk_tier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.db.ExecContext(ctx, query,
		id,
		calc.Kind,
		[]byte(calc.Input),
		[]byte(calc.Result),
		string(calc.RiskTier),
		createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert calculation: %w", err)
	}

	calc.ID = id
	calc.CreatedAt = createdAt
	return id, nil
}

// GetCalculation retrieves a calculation by ID
func (p *Postgres) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, kind, input, result, risk_tier, created_at
		FROM calculations
		WHERE id = $1
	`

	calc, err := scanCalculation(p.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query calculation: %w", err)
	}

	return calc, nil
}

// ListCalculations returns the most recent calculations first
func (p *Postgres) ListCalculations(ctx context.Context, filters CalculationFilters) ([]models.Calculation, error) {
	query := `
		SELECT id, kind, input, result, risk_tier, created_at
		FROM calculations
		WHERE 1=1
	`

	args := []interface{}{}
	argPos := 1

	if filters.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argPos)
		args = append(args, filters.Kind)
		argPos++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
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
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	calcs := []models.Calculation{}
	for rows.Next() {
		calc, err := scanCalculation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		calcs = append(calcs, *calc)
	}

	return calcs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCalculation(row rowScanner) (*models.Calculation, error) {
	var (
		calc           models.Calculation
		input, result  []byte
		riskTier, kind string
	)

	if err := row.Scan(&calc.ID, &kind, &input, &result, &riskTier, &calc.CreatedAt); err != nil {
		return nil, err
	}

	calc.Kind = kind
	calc.Input = input
	calc.Result = result
	calc.RiskTier = calculator.RiskTier(riskTier)
	return &calc, nil
}
