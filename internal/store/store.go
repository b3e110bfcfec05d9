// Package store persists named position definitions.
//
// Positions are stored in their textual notation (see payoff.Format), so
// the library holds strategy definitions only; priced results are never
// written.
package store

import (
	"context"
	"time"

	"binomial-pricer/internal/payoff"
)

// PortfolioStore defines the interface for the position library.
type PortfolioStore interface {
	SavePortfolio(ctx context.Context, name string, position payoff.Position, description string) (*SavedPortfolio, error)
	GetPortfolio(ctx context.Context, name string) (*SavedPortfolio, error)
	ListPortfolios(ctx context.Context, filter PortfolioFilter) ([]SavedPortfolio, error)
	DeletePortfolio(ctx context.Context, name string) error
	Close() error
}

// SavedPortfolio is a named position definition.
type SavedPortfolio struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Notation    string    `json:"notation"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Position rebuilds the stored position from its notation.
func (p *SavedPortfolio) Position() (payoff.Position, error) {
	return payoff.Parse(p.Notation)
}

// PortfolioFilter narrows ListPortfolios.
type PortfolioFilter struct {
	Prefix string
	Limit  int
}
