package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reservaya/helper"
	"reservaya/model"
)

// Store backs the booking engine with Postgres through GORM. It satisfies
// both helper.CatalogStore and helper.ReservationStore.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EstablishmentByID(ctx context.Context, id uint) (*model.Establishment, error) {
	var est model.Establishment
	err := s.db.WithContext(ctx).Preload("Hours").First(&est, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &est, nil
}

func (s *Store) EstablishmentBySlug(ctx context.Context, slug string) (*model.Establishment, error) {
	var est model.Establishment
	err := s.db.WithContext(ctx).Preload("Hours").Where("slug = ?", slug).First(&est).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &est, nil
}

func (s *Store) TableByID(ctx context.Context, id uint) (*model.Table, error) {
	var table model.Table
	err := s.db.WithContext(ctx).First(&table, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *Store) ActiveTables(ctx context.Context, establishmentId uint) ([]model.Table, error) {
	var tables []model.Table
	err := s.db.WithContext(ctx).
		Where("establishment_id = ? AND is_active = true", establishmentId).
		Order("capacity asc, label asc").
		Find(&tables).Error
	return tables, err
}

// Insert persists a new reservation. The row lock on the table plus the
// overlap re-check keeps competing app instances honest; the partial
// unique index on (table_id, date, start_time) is the final backstop.
func (s *Store) Insert(ctx context.Context, r *model.Reservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table model.Table
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&table, r.TableId).Error; err != nil {
			return err
		}

		start, err := helper.ParseClock(r.StartTime)
		if err != nil {
			return err
		}
		iv := helper.Interval{Start: start, End: start + r.DurationMin}

		var held []model.Reservation
		if err := tx.
			Where("table_id = ? AND date = ? AND status IN ?",
				r.TableId, r.Date.String(), []string{model.ReservationPending, model.ReservationConfirmed}).
			Find(&held).Error; err != nil {
			return err
		}
		for _, h := range held {
			hs, err := helper.ParseClock(h.StartTime)
			if err != nil {
				continue
			}
			if (helper.Interval{Start: hs, End: hs + h.DurationMin}).Overlaps(iv) {
				return helper.ErrDuplicateClaim
			}
		}

		if err := tx.Create(r).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return helper.ErrDuplicateClaim
			}
			return err
		}
		return nil
	})
}

// Update applies a lifecycle transition only while the row still carries
// fromStatus. A sweep and a confirm can both read the same PENDING row
// near the hold-window boundary; the guard makes the second writer lose
// with ErrStaleTransition instead of silently overwriting the first.
func (s *Store) Update(ctx context.Context, r *model.Reservation, fromStatus string) error {
	res := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("id = ? AND status = ?", r.ID, fromStatus).
		Updates(map[string]interface{}{
			"status":       r.Status,
			"confirmed_at": r.ConfirmedAt,
			"cancelled_at": r.CancelledAt,
			"completed_at": r.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return helper.ErrStaleTransition
	}
	return nil
}

func (s *Store) ByID(ctx context.Context, id uint) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ByToken(ctx context.Context, token string) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Where("confirmation_token = ?", token).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) HeldForDay(ctx context.Context, tableId uint, date string) ([]model.Reservation, error) {
	var out []model.Reservation
	err := s.db.WithContext(ctx).
		Where("table_id = ? AND date = ? AND status IN ?",
			tableId, date, []string{model.ReservationPending, model.ReservationConfirmed}).
		Order("start_time asc").
		Find(&out).Error
	return out, err
}

// ExpiredPending returns pending holds whose establishment hold window has
// elapsed as of now.
func (s *Store) ExpiredPending(ctx context.Context, now time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	err := s.db.WithContext(ctx).
		Joins("JOIN establishments ON establishments.id = reservations.establishment_id").
		Where("reservations.status = ? AND reservations.created_at < ?::timestamptz - (establishments.hold_window_min * INTERVAL '1 minute')",
			model.ReservationPending, now).
		Find(&out).Error
	return out, err
}
