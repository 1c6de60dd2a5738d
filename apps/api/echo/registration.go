package echoapi

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
	"github.com/trezcool/tamasha/core/registration"
	"github.com/trezcool/tamasha/core/user"
)

// proof uploads are capped at 5 MiB
const maxProofSize = 5 << 20

type registrationApi struct {
	svc      *registration.Service
	eventSvc *event.Service
	usrSvc   *user.Service
	storage  core.FileStorage
}

func registerRegistrationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *registration.Service,
	eventSvc *event.Service,
	usrSvc *user.Service,
	storage core.FileStorage,
) {
	api := registrationApi{svc: svc, eventSvc: eventSvc, usrSvc: usrSvc, storage: storage}

	// public: the participant-facing submission flow
	g.POST("/registrations/quote", api.quote)
	g.POST("/registrations/proof", api.uploadProof)
	g.POST("/registrations", api.submit)

	ag := g.Group("/admin/registrations", jwt, adminMiddleware())
	ag.GET("", api.query)
	ag.GET("/export", api.export)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/proof", api.downloadProof)
	ag.POST("/:id/verify", api.verify)
	ag.POST("/:id/reject", api.reject)
}

// Handlers

type quoteRequest struct {
	EventIDs []int `json:"event_ids" validate:"required,min=1,unique"`
	IsMember bool  `json:"is_member"`
}

func (qr *quoteRequest) Validate() error {
	return core.Validate.Struct(qr)
}

func (api *registrationApi) quote(ctx echo.Context) error {
	var req quoteRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to quoteRequest")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	quote, err := api.svc.QuoteSelection(ctx.Request().Context(), req.EventIDs, req.IsMember)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "event_ids", Error: err.Error()})
		}
		return errors.Wrap(err, "pricing selection")
	}
	return ctx.JSON(http.StatusOK, quote)
}

func (api *registrationApi) uploadProof(ctx echo.Context) error {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "this field is required"})
	}
	if fileHdr.Size > maxProofSize {
		return core.NewValidationError(
			errors.New("file too large"),
			core.FieldError{Field: "file", Error: "file may not exceed 5 MB"})
	}

	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	ref, err := api.storage.Save(ctx.Request().Context(), fileHdr.Filename, fileHdr.Header.Get(echo.HeaderContentType), file)
	if err != nil {
		return errors.Wrap(err, "saving payment proof")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"proof_ref": ref})
}

func (api *registrationApi) submit(ctx echo.Context) error {
	var data registration.NewRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegistration")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *registrationApi) query(ctx echo.Context) error {
	regs, err := api.filtered(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *registrationApi) retrieve(ctx echo.Context) error {
	reg, _, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrationApi) downloadProof(ctx echo.Context) error {
	reg, _, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	proof, err := api.storage.Open(ctx.Request().Context(), reg.ProofRef)
	if err != nil {
		if errors.Cause(err) == core.ErrFileNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "opening payment proof")
	}
	defer proof.Close()
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, proof)
}

func (api *registrationApi) verify(ctx echo.Context) error {
	reg, actor, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	reg, err = api.svc.Approve(ctx.Request().Context(), reg.ID, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reg)
}

type rejectRequest struct {
	Note string `json:"note"`
}

func (api *registrationApi) reject(ctx echo.Context) error {
	reg, actor, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var req rejectRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to rejectRequest")
	}

	reg, err = api.svc.Reject(ctx.Request().Context(), reg.ID, actor, req.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reg)
}

var exportHeader = []string{
	"ID", "Event", "Chapter", "Name", "Email", "Phone", "Branch", "Year",
	"Member", "Member ID", "Team Members", "Transaction ID", "Amount",
	"Status", "Payment Status", "Created At",
}

func (api *registrationApi) export(ctx echo.Context) error {
	regs, err := api.filtered(ctx)
	if err != nil {
		return err
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="registrations.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write(exportHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}

	events := make(map[int]event.Event)
	for _, reg := range regs {
		evt, ok := events[reg.EventID]
		if !ok {
			if evt, err = api.eventSvc.GetByID(ctx.Request().Context(), reg.EventID); err != nil {
				return errors.Wrap(err, "fetching registration event")
			}
			events[reg.EventID] = evt
		}
		if err := w.Write(exportRow(reg, evt)); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing csv")
}

func exportRow(reg registration.Registration, evt event.Event) []string {
	member := "no"
	if reg.IsMember {
		member = "yes"
	}
	return []string{
		strconv.Itoa(reg.ID),
		evt.Name,
		string(evt.Chapter),
		reg.Name,
		reg.Email,
		reg.Phone,
		reg.Branch,
		strconv.Itoa(reg.Year),
		member,
		reg.MemberID,
		strings.Join(reg.TeamMembers, "; "),
		reg.TransactionID,
		strconv.Itoa(reg.Amount),
		string(reg.Status),
		string(reg.PaymentStatus),
		reg.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// filtered lists registrations scoped to the requesting admin.
func (api *registrationApi) filtered(ctx echo.Context) ([]registration.Registration, error) {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}

	filter := new(registration.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		filter = new(registration.QueryFilter)
	}
	filter.Clean()

	regs, err := api.svc.Filter(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []registration.Registration{}
	}
	return regs, nil
}

func (api *registrationApi) getObject(ctx echo.Context) (registration.Registration, user.User, error) {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return registration.Registration{}, user.User{}, errors.Wrap(err, "getting context user")
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return registration.Registration{}, user.User{}, errHttpNotFound
	}
	reg, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == registration.ErrNotFound {
			return registration.Registration{}, user.User{}, errHttpNotFound
		}
		return registration.Registration{}, user.User{}, errors.Wrap(err, "finding registration by ID")
	}

	// chapter admins only see registrations for their own chapter's events
	evt, err := api.eventSvc.GetByID(ctx.Request().Context(), reg.EventID)
	if err != nil {
		return registration.Registration{}, user.User{}, errors.Wrap(err, "fetching registration event")
	}
	if !actor.CanManageChapter(evt.Chapter) {
		return registration.Registration{}, user.User{}, errHttpForbidden
	}
	return reg, actor, nil
}
