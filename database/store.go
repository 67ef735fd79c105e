package database

import (
	"context"
	"errors"

	"timecard/models"
	"timecard/timecard"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements timecard.Store on gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, timecard.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) stampQuery(ctx context.Context, f models.StampFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Stamp{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if !f.From.IsZero() {
		q = q.Where("stamped_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("stamped_at < ?", f.To.UTC())
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	return q
}

func (s *Store) FindStamps(ctx context.Context, f models.StampFilter) ([]models.Stamp, error) {
	var stamps []models.Stamp
	err := s.stampQuery(ctx, f).Order("stamped_at, kind").Find(&stamps).Error
	return stamps, err
}

// LockStamps takes row locks on postgres. SQLite serializes writers on its
// own, so the plain query is enough there.
func (s *Store) LockStamps(ctx context.Context, f models.StampFilter) ([]models.Stamp, error) {
	q := s.stampQuery(ctx, f)
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var stamps []models.Stamp
	err := q.Order("stamped_at, kind").Find(&stamps).Error
	return stamps, err
}

func (s *Store) CreateStamp(ctx context.Context, stamp *models.Stamp) error {
	return s.db.WithContext(ctx).Create(stamp).Error
}

// DeleteStamps removes only stamps that are still NEW.
func (s *Store) DeleteStamps(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("id IN ? AND state = ?", ids, models.StateNew).
		Delete(&models.Stamp{})
	return res.RowsAffected, res.Error
}

func (s *Store) UpdateState(ctx context.Context, f models.StampFilter, to models.State) (int64, error) {
	res := s.stampQuery(ctx, f).Update("state", to)
	return res.RowsAffected, res.Error
}

func (s *Store) CreateSummary(ctx context.Context, sum *models.MonthlySummary) error {
	err := s.db.WithContext(ctx).Create(sum).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return timecard.ErrSummaryExists
	}
	return err
}

func (s *Store) FindSummaries(ctx context.Context, f models.SummaryFilter) ([]models.MonthlySummary, error) {
	q := s.db.WithContext(ctx).Preload("User")
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Month != "" {
		q = q.Where("month = ?", f.Month)
	}
	var sums []models.MonthlySummary
	err := q.Order("user_id, month").Find(&sums).Error
	return sums, err
}

func (s *Store) Transaction(ctx context.Context, fn func(tx timecard.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

var _ timecard.Store = (*Store)(nil)
