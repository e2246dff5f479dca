package model

type Table struct {
	DTO
	EstablishmentId uint   `gorm:"not null;index" json:"establishmentId"`
	Label           string `gorm:"size:20;not null" validate:"required" json:"label"` // e.g. "T1", "Terrace 3"
	Capacity        int    `gorm:"not null" validate:"required,min=1" json:"capacity"`
	Zone            string `gorm:"size:40" json:"zone,omitempty"` // e.g. "terrace", "window"
	IsActive        bool   `gorm:"default:true" json:"isActive"`

	Establishment Establishment `gorm:"foreignKey:EstablishmentId" json:"-"`
}

type CreateTableInput struct {
	EstablishmentId uint   `json:"establishmentId" validate:"required,gt=0"`
	Label           string `json:"label" validate:"required"`
	Capacity        int    `json:"capacity" validate:"required,min=1,max=50"`
	Zone            string `json:"zone"`
}

type UpdateTableInput struct {
	Label    *string `json:"label"`
	Capacity *int    `json:"capacity" validate:"omitempty,min=1,max=50"`
	Zone     *string `json:"zone"`
	IsActive *bool   `json:"isActive"`
}
