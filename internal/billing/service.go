package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshfields/storefront-backend/pkg/db"
	dbmodels "github.com/freshfields/storefront-backend/pkg/db/models"
	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo Repository
}

// Service manages the one billing record each user keeps on file.
type Service struct {
	repo Repository
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("billing repository is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Create stores billing details for a user that has none yet.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req BillingDetailsRequest) (*BillingRecordDTO, error) {
	if _, err := s.repo.FindByUser(ctx, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "billing details already exist")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check billing details")
	}

	record := &dbmodels.BillingRecord{UserID: userID}
	req.apply(record)
	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsUniqueViolation(err, "idx_billing_records_user") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "billing details already exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create billing details")
	}
	return fromModel(record), nil
}

// Get returns the user's billing details.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*BillingRecordDTO, error) {
	record, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return fromModel(record), nil
}

// Update replaces the stored billing details.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req BillingDetailsRequest) (*BillingRecordDTO, error) {
	record, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.apply(record)
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update billing details")
	}
	return fromModel(record), nil
}

// Delete removes the user's billing details.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	affected, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete billing details")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "billing details not found")
	}
	return nil
}

func (s *Service) find(ctx context.Context, userID uuid.UUID) (*dbmodels.BillingRecord, error) {
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing details not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup billing details")
	}
	return record, nil
}
