package model

// Account is a staff/admin login, separate from customers.
type Account struct {
	DTO
	Username        string `gorm:"size:60;uniqueIndex;not null" validate:"required" json:"username"`
	Password        string `gorm:"not null" json:"-"`
	Role            string `gorm:"size:20;not null" json:"role"`
	EstablishmentId *uint  `json:"establishmentId"`
	Active          bool   `gorm:"default:true" json:"active"`

	Establishment *Establishment `gorm:"foreignKey:EstablishmentId" json:"-"`
}

type CreateAccountInput struct {
	Username        string `json:"username" validate:"required,min=3"`
	Password        string `json:"password" validate:"required,min=6"`
	Role            string `json:"role" validate:"required,oneof=ADMIN MANAGER WAITER"`
	EstablishmentId *uint  `json:"establishmentId"`
}
