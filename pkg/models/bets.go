package models

import "time"

// Bet types
const (
	BetTypeArbitrage = "arbitrage"
	BetTypeValue     = "value"
)

// Bet statuses
const (
	BetStatusPending = "pending"
	BetStatusWon     = "won"
	BetStatusLost    = "lost"
	BetStatusVoid    = "void"
)

// BetRecord is a flat bet row used by analytics
type BetRecord struct {
	ID        int64     `json:"id"`
	PlacedAt  time.Time `json:"placedAt"`
	Sport     string    `json:"sport"`
	Bookmaker string    `json:"bookmaker"`
	BetType   string    `json:"betType"`
	Stake     float64   `json:"stake"`
	Profit    float64   `json:"profit"`
	Status    string    `json:"status"`
}

// Settled reports whether the bet has a final outcome that counts towards win rate
func (b BetRecord) Settled() bool {
	return b.Status == BetStatusWon || b.Status == BetStatusLost
}

// RecordFilter narrows a set of bet records; zero fields match everything
type RecordFilter struct {
	Since     *time.Time
	Until     *time.Time
	Sport     string
	Bookmaker string
	BetType   string
	Status    string
	Limit     int
	Offset    int
}
