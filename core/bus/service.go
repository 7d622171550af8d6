package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core"
)

var (
	// errors
	ErrNotFound   = errors.New("bus not found")
	ErrNameExists = errors.New("a bus with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedBuses ...Bus) error
		CreateBus(ctx context.Context, b Bus) (Bus, error)
		// QueryAllBuses lists all buses ordered by name.
		QueryAllBuses(ctx context.Context) ([]Bus, error)
		GetBusByID(ctx context.Context, id string) (Bus, error)
		UpdateBus(ctx context.Context, b Bus) (Bus, error)
		// DeleteBusesByID reports ErrNotFound when no bus matched.
		DeleteBusesByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, name string, exclBuses ...Bus) error
		Create(ctx context.Context, nb NewBus) (Bus, error)
		QueryAll(ctx context.Context) ([]Bus, error)
		GetByID(ctx context.Context, id string) (Bus, error)
		Update(ctx context.Context, id string, ub UpdateBus) (Bus, error)
		Delete(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, name string, exclBuses ...Bus) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, exclBuses...); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nb NewBus) (Bus, error) {
	now := time.Now().UTC()
	b := Bus{
		ID:          uuid.New().String(),
		Name:        nb.Name,
		Description: nb.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateBus(ctx, b)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Bus, error) {
	return svc.repo.QueryAllBuses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Bus, error) {
	return svc.repo.GetBusByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ub UpdateBus) (Bus, error) {
	b := Bus{
		ID:          id,
		Name:        ub.Name,
		Description: ub.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateBus(ctx, b)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteBusesByID(ctx, ids...)
}
