package bus

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yzGabiru/callback/core"
)

// Bus is a transport route/vehicle attendance is scoped to.
type Bus struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"` // UTC
}

// NewBus contains information needed to create a new Bus.
type NewBus struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nb *NewBus) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Description = core.CleanString(nb.Description)

	if err := validate.Struct(nb); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nb.Name)
}

// UpdateBus defines what information may be provided to modify an existing
// Bus; blank fields keep their current value.
type UpdateBus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (ub *UpdateBus) Validate(ctx context.Context, origBus Bus, validate *validator.Validate, svc ServiceInterface) error {
	name := core.CleanString(ub.Name)
	if name != "" {
		ub.Name = name
	} else {
		ub.Name = origBus.Name
	}

	desc := core.CleanString(ub.Description)
	if desc != "" {
		ub.Description = desc
	} else {
		ub.Description = origBus.Description
	}

	if err := validate.Struct(ub); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ub.Name, origBus)
}
