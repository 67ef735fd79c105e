package timecard

import (
	"context"

	"timecard/models"
)

// Store is the persistence the timecard service runs on.
//
// Stamp filters treat zero fields as "any". FindStamps orders by stamp time,
// then kind. UpdateState and DeleteStamps report how many rows they touched
// so callers can detect a concurrent change. CreateSummary returns
// ErrSummaryExists on a (user, month) conflict and FindUser returns
// ErrUserNotFound.
type Store interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
	FindStamps(ctx context.Context, f models.StampFilter) ([]models.Stamp, error)
	// LockStamps is FindStamps holding row locks until the transaction ends.
	LockStamps(ctx context.Context, f models.StampFilter) ([]models.Stamp, error)
	CreateStamp(ctx context.Context, s *models.Stamp) error
	DeleteStamps(ctx context.Context, ids []uint) (int64, error)
	UpdateState(ctx context.Context, f models.StampFilter, to models.State) (int64, error)
	CreateSummary(ctx context.Context, s *models.MonthlySummary) error
	FindSummaries(ctx context.Context, f models.SummaryFilter) ([]models.MonthlySummary, error)
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
