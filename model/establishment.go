package model

type Establishment struct {
	DTO
	Name     string `gorm:"not null" validate:"required" json:"name"`
	Slug     string `gorm:"size:80;uniqueIndex" json:"slug"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	IsActive bool   `gorm:"default:true" json:"isActive"`

	// Booking policy knobs. Durations are minutes unless named otherwise.
	SlotGranularityMin     int `gorm:"not null;default:15" json:"slotGranularityMin"`
	ReservationDurationMin int `gorm:"not null;default:90" json:"reservationDurationMin"`
	BookingHorizonDays     int `gorm:"not null;default:30" json:"bookingHorizonDays"`
	CancelWindowHours      int `gorm:"not null;default:24" json:"cancelWindowHours"`
	HoldWindowMin          int `gorm:"not null;default:15" json:"holdWindowMin"`

	Hours  []OperatingHours `gorm:"foreignKey:EstablishmentId" json:"hours"`
	Tables []Table          `gorm:"foreignKey:EstablishmentId" json:"tables,omitempty"`
}

// OperatingHours holds one weekday's open/close times as "HH:MM".
// Closed weekdays either have no row or Closed set.
type OperatingHours struct {
	DTO
	EstablishmentId uint   `gorm:"index:idx_hours_est_weekday,unique" json:"establishmentId"`
	Weekday         int    `gorm:"index:idx_hours_est_weekday,unique" validate:"min=0,max=6" json:"weekday"`
	Opens           string `gorm:"size:5" json:"opens"`
	Closes          string `gorm:"size:5" json:"closes"`
	Closed          bool   `gorm:"default:false" json:"closed"`
}

// HoursFor returns the operating hours row for a weekday, nil when the
// establishment is closed that day.
func (e *Establishment) HoursFor(weekday int) *OperatingHours {
	for i := range e.Hours {
		if e.Hours[i].Weekday == weekday {
			if e.Hours[i].Closed {
				return nil
			}
			return &e.Hours[i]
		}
	}
	return nil
}

type CreateEstablishmentInput struct {
	Name                   string                `json:"name" validate:"required"`
	Address                string                `json:"address"`
	Phone                  string                `json:"phone"`
	Email                  string                `json:"email" validate:"omitempty,email"`
	SlotGranularityMin     int                   `json:"slotGranularityMin" validate:"omitempty,min=5,max=120"`
	ReservationDurationMin int                   `json:"reservationDurationMin" validate:"omitempty,min=15,max=480"`
	BookingHorizonDays     int                   `json:"bookingHorizonDays" validate:"omitempty,min=1,max=365"`
	CancelWindowHours      int                   `json:"cancelWindowHours" validate:"omitempty,min=0,max=168"`
	HoldWindowMin          int                   `json:"holdWindowMin" validate:"omitempty,min=1,max=120"`
	Hours                  []OperatingHoursInput `json:"hours" validate:"omitempty,dive"`
}

type OperatingHoursInput struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Opens   string `json:"opens" validate:"omitempty,len=5"`
	Closes  string `json:"closes" validate:"omitempty,len=5"`
	Closed  bool   `json:"closed"`
}

type UpdateEstablishmentInput struct {
	Name                   *string `json:"name"`
	Address                *string `json:"address"`
	Phone                  *string `json:"phone"`
	Email                  *string `json:"email" validate:"omitempty,email"`
	SlotGranularityMin     *int    `json:"slotGranularityMin" validate:"omitempty,min=5,max=120"`
	ReservationDurationMin *int    `json:"reservationDurationMin" validate:"omitempty,min=15,max=480"`
	BookingHorizonDays     *int    `json:"bookingHorizonDays" validate:"omitempty,min=1,max=365"`
	CancelWindowHours      *int    `json:"cancelWindowHours" validate:"omitempty,min=0,max=168"`
	HoldWindowMin          *int    `json:"holdWindowMin" validate:"omitempty,min=1,max=120"`
}
