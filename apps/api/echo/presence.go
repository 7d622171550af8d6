package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yzGabiru/callback/core/presence"
)

type presenceApi struct {
	svc      presence.ServiceInterface
	validate *validator.Validate
}

func registerPresenceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := presenceApi{
		svc:      deps.PresenceSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/presences", jwt)

	pg.POST("", api.register)
	pg.GET("", api.queryByDate, adminMiddleware())
	pg.GET("/student/:id", api.queryByStudent)
	pg.GET("/bus/:id", api.queryByBus)
	pg.POST("/check-in/:busID/:studentID", api.checkIn)
	pg.PUT("/confirm", api.confirm)
	pg.PUT("/:id/status", api.setStatus)
	pg.DELETE("/student/:id", api.destroyByStudent, adminMiddleware())
}

// register creates the day's attendance record for a student.
func (api *presenceApi) register(ctx echo.Context) error {
	var data presence.NewPresence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPresence")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.checkSelfOrAdmin(ctx, data.StudentID); err != nil {
		return err
	}

	prs, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, prs)
}

// queryByDate lists one day's roll call; empty `date` query means today.
func (api *presenceApi) queryByDate(ctx echo.Context) error {
	prss, err := api.svc.QueryByDate(ctx.Request().Context(), ctx.QueryParam("date"))
	if err != nil {
		return err
	}
	if prss == nil {
		prss = []presence.Presence{}
	}
	return ctx.JSON(http.StatusOK, prss)
}

func (api *presenceApi) queryByStudent(ctx echo.Context) error {
	studentID := ctx.Param("id")
	if err := api.checkSelfOrAdmin(ctx, studentID); err != nil {
		return err
	}

	prss, err := api.svc.QueryByStudent(ctx.Request().Context(), studentID, ctx.QueryParam("bus"))
	if err != nil {
		return err
	}
	if prss == nil {
		prss = []presence.Presence{}
	}
	return ctx.JSON(http.StatusOK, prss)
}

func (api *presenceApi) queryByBus(ctx echo.Context) error {
	prss, err := api.svc.QueryByBus(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if prss == nil {
		prss = []presence.Presence{}
	}
	return ctx.JSON(http.StatusOK, prss)
}

// checkIn is the boarding-scan entry point: confirm today's record or
// register a fresh one on the spot.
func (api *presenceApi) checkIn(ctx echo.Context) error {
	prs, err := api.svc.CheckInOrRegister(ctx.Request().Context(), ctx.Param("busID"), ctx.Param("studentID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prs)
}

// confirm looks up the record for (student, call date) and applies the
// time-of-day confirmation transition with the submitted intents.
func (api *presenceApi) confirm(ctx echo.Context) error {
	var data presence.UpdatePresence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePresence")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if data.CallDate == "" {
		data.CallDate = presence.Today()
	} else if _, err := presence.ParseCallDate(data.CallDate); err != nil {
		return err
	}

	if err := api.checkSelfOrAdmin(ctx, data.StudentID); err != nil {
		return err
	}

	prs, err := api.svc.GetByStudentAndDate(ctx.Request().Context(), data.StudentID, data.CallDate)
	if err != nil {
		return err
	}

	prs, err = api.svc.ConfirmArrival(ctx.Request().Context(), prs.ID, data.BusID, data.IntendsOutbound, data.IntendsReturn)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prs)
}

// setStatus sets exactly one leg's confirmation flag on a record.
func (api *presenceApi) setStatus(ctx echo.Context) error {
	var data presence.ConfirmationStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmationStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prs, err := api.svc.SetConfirmationByLeg(ctx.Request().Context(), ctx.Param("id"), data.Confirmed, data.Leg)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prs)
}

func (api *presenceApi) destroyByStudent(ctx echo.Context) error {
	if err := api.svc.DeleteByStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// checkSelfOrAdmin lets a rider act on their own records only; admins on any.
func (api *presenceApi) checkSelfOrAdmin(ctx echo.Context, studentID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin || claims.Subject == studentID {
		return nil
	}
	return errHttpForbidden
}
