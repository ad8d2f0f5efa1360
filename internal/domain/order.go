package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order struct - Core domain entity recording a confirmed checkout.
// The session key is the order reference shown to the user.
type Order struct {
	ID         *uuid.UUID `gorm:"type:uuid;primary_key;"`
	SessionKey *string    `gorm:"type:varchar(64);not null;index;"`
	CustomerID *string    `gorm:"type:varchar(64);not null;"`
	Email      *string    `gorm:"type:varchar(254);not null;"`
	Total      *string    `gorm:"type:varchar(32)"`
	CreatedAt  *time.Time `gorm:"type:timestamp"`
	UpdatedAt  *time.Time `gorm:"type:timestamp"`
}

// TableName func
func (o *Order) TableName() string {
	return "orders"
}

// BeforeCreate hook - generates UUID before creating
func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	uuid, err := uuid.NewRandom() // v4
	if err != nil {
		return err
	}
	o.ID = &uuid
	return nil
}

// MigrateDatabase func - Auto-migrate database schema
func MigrateDatabase(db *gorm.DB) {
	if db == nil {
		panic("An error when connect database")
	}

	err := db.AutoMigrate(&Order{})
	if err != nil {
		panic(err)
	}
}
