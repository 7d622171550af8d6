package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core/bus"
)

type busApi struct {
	svc      bus.ServiceInterface
	validate *validator.Validate
}

func registerBusAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := busApi{
		svc:      deps.BusSvc,
		validate: deps.Validate,
	}

	bg := g.Group("/buses")

	// riders pick their bus before they have an account
	bg.GET("", api.query)

	ag := bg.Group("", jwt, adminMiddleware())
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

func (api *busApi) create(ctx echo.Context) error {
	var data bus.NewBus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBus")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	b, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating bus")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *busApi) query(ctx echo.Context) error {
	buses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying buses")
	}
	if buses == nil {
		buses = []bus.Bus{}
	}
	return ctx.JSON(http.StatusOK, buses)
}

func (api *busApi) retrieve(ctx echo.Context) error {
	b, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting bus")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *busApi) update(ctx echo.Context) error {
	b, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting bus")
	}

	var data bus.UpdateBus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBus")
	}
	if err := data.Validate(ctx.Request().Context(), b, api.validate, api.svc); err != nil {
		return err
	}

	b, err = api.svc.Update(ctx.Request().Context(), b.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating bus")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *busApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting bus")
	}
	return ctx.NoContent(http.StatusNoContent)
}
