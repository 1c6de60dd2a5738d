package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
	"github.com/trezcool/tamasha/core/user"
)

type eventApi struct {
	svc    *event.Service
	usrSvc *user.Service
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *event.Service, usrSvc *user.Service) {
	api := eventApi{svc: svc, usrSvc: usrSvc}

	// public: the event listing participants register from
	g.GET("/events", api.listOpen)

	ag := g.Group("/admin/events", jwt, adminMiddleware())
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy, adminMiddleware(user.RoleSuperAdmin, user.RoleEliteMaster))
}

// Handlers

func (api *eventApi) listOpen(ctx echo.Context) error {
	events, err := api.svc.QueryOpen(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying open events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) query(ctx echo.Context) error {
	filter := new(event.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []event.Event{})
	}
	filter.Clean()

	events, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// chapter admins may only create events for their own chapter
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !actor.CanManageChapter(core.Chapter(data.Chapter)) {
		return errHttpForbidden
	}

	evt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) update(ctx echo.Context) error {
	evt, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !actor.CanManageChapter(evt.Chapter) {
		return errHttpForbidden
	}

	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(evt); err != nil {
		return err
	}

	evt, err = api.svc.Update(ctx.Request().Context(), evt.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	evt, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), evt.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) getObject(ctx echo.Context) (event.Event, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return event.Event{}, errHttpNotFound
	}
	evt, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return event.Event{}, errHttpNotFound
		}
		return event.Event{}, errors.Wrap(err, "finding event by ID")
	}
	return evt, nil
}
