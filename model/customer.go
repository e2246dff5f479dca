package model

type Customer struct {
	DTO
	Name     string `gorm:"not null" validate:"required" json:"name"`
	Email    string `gorm:"size:120;uniqueIndex" validate:"required,email" json:"email"`
	Phone    string `gorm:"size:20" json:"phone"`
	Password string `gorm:"not null" json:"-"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

type RegisterCustomerInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,min=7,max=20"`
	Password string `json:"password" validate:"required,min=6"`
}
