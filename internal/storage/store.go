// Package storage defines the capability set shared by the vacancy stores.
package storage

import (
	"context"

	"github.com/jimezsa/hhcli/internal/models"
)

// Store persists normalized vacancies keyed by URL.
type Store interface {
	// Add inserts v unless a vacancy with the same URL is already stored.
	Add(ctx context.Context, v models.Vacancy) error
	// Query returns the stored vacancies matching criteria in storage order.
	Query(ctx context.Context, criteria models.Criteria) ([]models.Vacancy, error)
	// Remove deletes every stored vacancy sharing v's URL.
	Remove(ctx context.Context, v models.Vacancy) error
}

// AddAll adds each vacancy and reports how many calls succeeded. The first
// error stops the loop.
func AddAll(ctx context.Context, s Store, vacancies []models.Vacancy) (int, error) {
	added := 0
	for _, v := range vacancies {
		if err := s.Add(ctx, v); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
