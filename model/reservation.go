package model

import (
	"time"

	"reservaya/utils"
)

const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCompleted = "COMPLETED"
	ReservationCancelled = "CANCELLED"
	ReservationExpired   = "EXPIRED"
	ReservationNoShow    = "NO_SHOW"
)

// Reservation rows are never deleted: terminal states are kept for audit.
// The overlap invariant (no two PENDING/CONFIRMED rows on the same table
// with intersecting intervals) is enforced by the booking engine and backed
// by a partial unique index on (table_id, date, start_time).
type Reservation struct {
	DTO
	PublicCode        string           `gorm:"size:16;uniqueIndex" json:"publicCode"`
	ConfirmationToken string           `gorm:"size:36;uniqueIndex;not null" json:"confirmationToken"`
	EstablishmentId   uint             `gorm:"not null;index" json:"establishmentId"`
	TableId           uint             `gorm:"not null;index:idx_reservations_table_day" json:"tableId"`
	CustomerId        *uint            `gorm:"default:null" json:"customerId"`
	Date              utils.CustomDate `gorm:"type:date;not null;index:idx_reservations_table_day" json:"date"`
	StartTime         string           `gorm:"size:5;not null" json:"startTime"` // "HH:MM"
	DurationMin       int              `gorm:"not null" json:"durationMin"`
	PartySize         int              `gorm:"not null" validate:"required,min=1" json:"partySize"`
	Status            string           `gorm:"size:12;not null;default:'PENDING'" json:"status"`
	Notes             string           `gorm:"size:500" json:"notes,omitempty"`
	ContactName       string           `gorm:"size:120" json:"contactName"`
	ContactEmail      string           `gorm:"size:120" json:"contactEmail"`

	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Establishment Establishment `gorm:"foreignKey:EstablishmentId" json:"-"`
	Table         Table         `gorm:"foreignKey:TableId" json:"-"`
	Customer      *Customer     `gorm:"foreignKey:CustomerId;constraint:OnDelete:SET NULL" json:"-"`
}

// Held reports whether the reservation currently occupies its table.
func (r *Reservation) Held() bool {
	return r.Status == ReservationPending || r.Status == ReservationConfirmed
}

// Terminal reports whether the state machine can never leave this state.
func (r *Reservation) Terminal() bool {
	switch r.Status {
	case ReservationCompleted, ReservationCancelled, ReservationExpired, ReservationNoShow:
		return true
	}
	return false
}

// StartAt combines Date and StartTime in the given location.
func (r *Reservation) StartAt(loc *time.Location) time.Time {
	t, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return time.Time{}
	}
	d := r.Date.Time
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

type CreateReservationInput struct {
	TableId      uint   `json:"tableId" validate:"required,gt=0"`
	Date         string `json:"date" validate:"required,len=10"` // YYYY-MM-DD
	StartTime    string `json:"startTime" validate:"required,len=5"`
	PartySize    int    `json:"partySize" validate:"required,min=1"`
	Notes        string `json:"notes" validate:"omitempty,max=500"`
	ContactName  string `json:"contactName" validate:"omitempty,max=120"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

type FilterReservationInput struct {
	Pagination
	EstablishmentId uint   `query:"establishmentId" validate:"omitempty,gt=0"`
	TableId         uint   `query:"tableId" validate:"omitempty,gt=0"`
	Status          string `query:"status" validate:"omitempty,oneof=PENDING CONFIRMED COMPLETED CANCELLED EXPIRED NO_SHOW"`
	Date            string `query:"date" validate:"omitempty,len=10"`
}
