package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillingRecord holds the single set of billing details a user keeps on file.
type BillingRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FirstName     string    `gorm:"not null" json:"first_name"`
	LastName      string    `gorm:"not null" json:"last_name"`
	CompanyName   string    `json:"company_name,omitempty"`
	Country       string    `gorm:"not null" json:"country"`
	StreetAddress string    `gorm:"not null" json:"street_address"`
	TownCity      string    `gorm:"not null" json:"town_city"`
	StateCounty   string    `gorm:"not null" json:"state_county"`
	PostcodeZip   string    `gorm:"not null" json:"postcode_zip"`
	PhoneNumber   string    `gorm:"not null" json:"phone_number"`
	EmailAddress  string    `gorm:"not null" json:"email_address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (BillingRecord) TableName() string { return "billing_records" }

func (b *BillingRecord) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
