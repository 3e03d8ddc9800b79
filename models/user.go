package models

import "time"

// User mirrors an account from the hosted auth provider; ID is the provider's subject.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Name      string    `json:"name"`
	Address   *Address  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"address,omitempty"`
	Cart      *Cart     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"cart,omitempty"`
	Orders    []Order   `gorm:"foreignKey:UserID" json:"orders,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is the user's saved delivery address. Orders copy it at checkout.
type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName  string    `gorm:"not null" json:"full_name" validate:"required"`
	Phone     string    `gorm:"not null" json:"phone" validate:"required,min=7"`
	Line1     string    `gorm:"not null" json:"line1" validate:"required"`
	Line2     string    `json:"line2"`
	Landmark  string    `json:"landmark"`
	City      string    `gorm:"not null" json:"city" validate:"required"`
	State     string    `gorm:"not null" json:"state" validate:"required"`
	UpdatedAt time.Time `json:"updated_at"`
}
