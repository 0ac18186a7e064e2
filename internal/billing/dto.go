package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfields/storefront-backend/pkg/db/models"
)

// BillingRecordDTO is the transport shape for billing details.
type BillingRecordDTO struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	CompanyName   string    `json:"company_name,omitempty"`
	Country       string    `json:"country"`
	StreetAddress string    `json:"street_address"`
	TownCity      string    `json:"town_city"`
	StateCounty   string    `json:"state_county"`
	PostcodeZip   string    `json:"postcode_zip"`
	PhoneNumber   string    `json:"phone_number"`
	EmailAddress  string    `json:"email_address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BillingDetailsRequest carries the writable billing fields.
type BillingDetailsRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	CompanyName   string `json:"company_name"`
	Country       string `json:"country" validate:"required"`
	StreetAddress string `json:"street_address" validate:"required"`
	TownCity      string `json:"town_city" validate:"required"`
	StateCounty   string `json:"state_county" validate:"required"`
	PostcodeZip   string `json:"postcode_zip" validate:"required"`
	PhoneNumber   string `json:"phone_number" validate:"required"`
	EmailAddress  string `json:"email_address" validate:"required,email"`
}

func fromModel(b *models.BillingRecord) *BillingRecordDTO {
	if b == nil {
		return nil
	}
	return &BillingRecordDTO{
		ID:            b.ID,
		UserID:        b.UserID,
		FirstName:     b.FirstName,
		LastName:      b.LastName,
		CompanyName:   b.CompanyName,
		Country:       b.Country,
		StreetAddress: b.StreetAddress,
		TownCity:      b.TownCity,
		StateCounty:   b.StateCounty,
		PostcodeZip:   b.PostcodeZip,
		PhoneNumber:   b.PhoneNumber,
		EmailAddress:  b.EmailAddress,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (r BillingDetailsRequest) apply(record *models.BillingRecord) {
	record.FirstName = r.FirstName
	record.LastName = r.LastName
	record.CompanyName = r.CompanyName
	record.Country = r.Country
	record.StreetAddress = r.StreetAddress
	record.TownCity = r.TownCity
	record.StateCounty = r.StateCounty
	record.PostcodeZip = r.PostcodeZip
	record.PhoneNumber = r.PhoneNumber
	record.EmailAddress = r.EmailAddress
}
