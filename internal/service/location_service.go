package service

import (
	"context"
	"errors"
	"fmt"

	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=WAREHOUSE STORE"`
	Address string `json:"address"`
}

type LocationService interface {
	Create(ctx context.Context, req LocationRequest) (*model.Location, error)
	Update(ctx context.Context, id string, req LocationRequest) (*model.Location, error)
	GetByID(ctx context.Context, id string) (*model.Location, error)
	List(ctx context.Context, page, limit int) ([]model.Location, int64, error)
}

type locationService struct {
	locationRepo repository.LocationRepository
}

func NewLocationService(locationRepo repository.LocationRepository) LocationService {
	return &locationService{locationRepo: locationRepo}
}

func (s *locationService) Create(ctx context.Context, req LocationRequest) (*model.Location, error) {
	if _, err := s.locationRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, fmt.Errorf("%w: location code %s already exists", ErrConflict, req.Code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check location code: %w", err)
	}

	location := &model.Location{
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.Type,
		Address:  req.Address,
		IsActive: true,
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return location, nil
}

func (s *locationService) Update(ctx context.Context, id string, req LocationRequest) (*model.Location, error) {
	location, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	location.Code = req.Code
	location.Name = req.Name
	location.Type = req.Type
	location.Address = req.Address

	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}
	return location, nil
}

func (s *locationService) GetByID(ctx context.Context, id string) (*model.Location, error) {
	locationID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid location id: %w", err)
	}
	location, err := s.locationRepo.FindByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: location %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return location, nil
}

func (s *locationService) List(ctx context.Context, page, limit int) ([]model.Location, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.locationRepo.List(ctx, page, limit)
}
