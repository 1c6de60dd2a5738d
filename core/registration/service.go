package registration

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
	"github.com/trezcool/tamasha/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("registration not found")
	// ErrAlreadyRegistered is returned by repositories when the persistence
	// layer's (email, phone, event) uniqueness guarantee trips; it closes the
	// window left open by the advisory conflict checks.
	ErrAlreadyRegistered = errors.New("registration already exists for this participant and event")
	// ErrAlreadyProcessed rejects a second approval action on a registration
	// that has already been verified or rejected.
	ErrAlreadyProcessed = errors.New("registration has already been processed")
)

const defaultPaymentMethod = "upi"

type (
	Repository interface {
		// CreateRegistrations persists all rows or none. It must enforce
		// (email, phone, event_id) uniqueness atomically and return
		// ErrAlreadyRegistered on a duplicate.
		CreateRegistrations(ctx context.Context, regs []Registration) ([]Registration, error)
		GetRegistrationByID(ctx context.Context, id int) (Registration, error)
		QueryRegistrationsByParticipant(ctx context.Context, email, phone string) ([]Registration, error)
		// FilterRegistrations applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Email, Phone or TransactionID.
		FilterRegistrations(ctx context.Context, filter QueryFilter) ([]Registration, error)
		// TransitionRegistration applies reg's terminal status fields iff the
		// stored row is still submitted/pending, inserting pay (when non-nil)
		// in the same transaction; returns ErrAlreadyProcessed otherwise.
		TransitionRegistration(ctx context.Context, reg Registration, pay *Payment) (Registration, error)
		GetPaymentByRegistrationID(ctx context.Context, regID int) (Payment, error)
	}

	// Submission is the outcome of a successful multi-event submission.
	Submission struct {
		Registrations []Registration `json:"registrations"`
		Quote         Quote          `json:"quote"`
	}

	Service struct {
		repo      Repository
		eventRepo event.Repository
		mailSvc   core.EmailService
		logger    core.Logger
	}
)

func NewService(repo Repository, eventRepo event.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:      repo,
		eventRepo: eventRepo,
		mailSvc:   mailSvc,
		logger:    logger,
	}
}

// QuoteSelection prices a prospective selection without persisting anything.
func (svc *Service) QuoteSelection(ctx context.Context, eventIDs []int, isMember bool) (Quote, error) {
	if len(eventIDs) == 0 {
		return Quote{}, nil
	}
	events, err := svc.eventRepo.GetEventsByID(ctx, eventIDs...)
	if err != nil {
		return Quote{}, err
	}
	return ComputeQuote(events, isMember), nil
}

// Submit runs the whole submission workflow: validate, check conflicts,
// price, persist. Any rejection aborts the entire multi-event submission;
// no partial state is ever committed.
func (svc *Service) Submit(ctx context.Context, nr NewRegistration) (Submission, error) {
	if err := nr.Validate(); err != nil {
		return Submission{}, err
	}

	selection, err := svc.eventRepo.GetEventsByID(ctx, nr.EventIDs...)
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return Submission{}, core.NewValidationError(err, core.FieldError{Field: "event_ids", Error: err.Error()})
		}
		return Submission{}, errors.Wrap(err, "fetching selected events")
	}
	for _, evt := range selection {
		if !evt.RegistrationOpen {
			return Submission{}, core.NewValidationError(
				fmt.Errorf("registration is closed for %q", evt.Name),
				core.FieldError{Field: "event_ids", Error: fmt.Sprintf("registration is closed for %q", evt.Name)})
		}
		if evt.IsTeamEvent() {
			if size := len(nr.TeamMembers); size < evt.TeamMinSize || size > evt.TeamMaxSize {
				return Submission{}, core.NewValidationError(
					fmt.Errorf("%q requires a team of %d to %d members", evt.Name, evt.TeamMinSize, evt.TeamMaxSize),
					core.FieldError{
						Field: "team_members",
						Error: fmt.Sprintf("%q requires a team of %d to %d members", evt.Name, evt.TeamMinSize, evt.TeamMaxSize),
					})
			}
		}
	}

	if err := svc.checkConflicts(ctx, nr.Email, nr.Phone, selection); err != nil {
		return Submission{}, err
	}

	quote := ComputeQuote(selection, nr.IsMember)
	amounts := ApportionAmounts(selection, nr.IsMember)

	now := time.Now().UTC()
	regs := make([]Registration, 0, len(selection))
	for i, evt := range selection {
		reg := Registration{
			EventID:       evt.ID,
			Name:          nr.Name,
			Email:         nr.Email,
			Phone:         nr.Phone,
			Branch:        nr.Branch,
			Year:          nr.Year,
			IsMember:      nr.IsMember,
			MemberID:      nr.MemberID,
			TransactionID: nr.TransactionID,
			ProofRef:      nr.ProofRef,
			Amount:        amounts[i],
			Status:        StatusSubmitted,
			PaymentStatus: PaymentPending,
			CreatedAt:     now,
		}
		if evt.IsTeamEvent() {
			reg.TeamMembers = nr.TeamMembers
		}
		regs = append(regs, reg)
	}

	created, err := svc.repo.CreateRegistrations(ctx, regs)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyRegistered {
			return Submission{}, &ConflictError{Kind: ConflictDuplicate}
		}
		return Submission{}, errors.Wrap(err, "persisting registrations")
	}

	svc.notify(nr.Name, nr.Email, "registration_submitted", "Registration received", submissionMailData(selection, created, quote))
	return Submission{Registrations: created, Quote: quote}, nil
}

// Approve verifies a registration's payment: the registration becomes
// confirmed/verified and a Payment record is derived in the same
// transaction. Only privileged actors may do this; chapter admins only
// within their own chapter.
func (svc *Service) Approve(ctx context.Context, id int, actor user.User) (Registration, error) {
	reg, evt, err := svc.getForTransition(ctx, id, actor)
	if err != nil {
		return Registration{}, err
	}

	now := time.Now().UTC()
	reg.Status = StatusConfirmed
	reg.PaymentStatus = PaymentVerified
	reg.VerifiedBy = null.IntFrom(actor.ID)
	reg.VerifiedAt = null.TimeFrom(now)

	pay := &Payment{
		RegistrationID: reg.ID,
		Amount:         reg.Amount,
		Currency:       core.Conf.Registration.Currency,
		Method:         defaultPaymentMethod,
		Status:         PaymentVerified,
		VerifiedBy:     actor.ID,
		VerifiedAt:     now,
		CreatedAt:      now,
	}

	reg, err = svc.repo.TransitionRegistration(ctx, reg, pay)
	if err != nil {
		return Registration{}, err
	}

	svc.notify(reg.Name, reg.Email, "registration_confirmed", "Registration confirmed", transitionMailData(reg, evt))
	return reg, nil
}

// Reject marks a registration's payment as rejected. The note is mandatory;
// it is surfaced verbatim to the participant.
func (svc *Service) Reject(ctx context.Context, id int, actor user.User, note string) (Registration, error) {
	note = core.CleanString(note)
	if note == "" {
		return Registration{}, core.NewValidationError(
			errors.New("rejection note required"),
			core.FieldError{Field: "note", Error: "this field is required"})
	}

	reg, evt, err := svc.getForTransition(ctx, id, actor)
	if err != nil {
		return Registration{}, err
	}

	reg.Status = StatusRejected
	reg.PaymentStatus = PaymentRejected
	reg.RejectionNote = null.StringFrom(note)

	reg, err = svc.repo.TransitionRegistration(ctx, reg, nil)
	if err != nil {
		return Registration{}, err
	}

	svc.notify(reg.Name, reg.Email, "registration_rejected", "Registration rejected", transitionMailData(reg, evt))
	return reg, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Registration, error) {
	return svc.repo.GetRegistrationByID(ctx, id)
}

func (svc *Service) GetPayment(ctx context.Context, regID int) (Payment, error) {
	return svc.repo.GetPaymentByRegistrationID(ctx, regID)
}

// Filter lists registrations visible to the actor: everything for super
// admins and elite masters, own-chapter events only for chapter admins.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]Registration, error) {
	if !actor.IsAdmin() {
		return nil, user.ErrPermissionDenied
	}
	regs, err := svc.repo.FilterRegistrations(ctx, filter)
	if err != nil {
		return nil, err
	}
	if actor.Role != user.RoleChapterAdmin {
		return regs, nil
	}

	scoped := make([]Registration, 0, len(regs))
	for _, reg := range regs {
		evt, err := svc.eventRepo.GetEventByID(ctx, reg.EventID)
		if err != nil {
			return nil, errors.Wrap(err, "fetching registration event")
		}
		if evt.Chapter == actor.Chapter {
			scoped = append(scoped, reg)
		}
	}
	return scoped, nil
}

// getForTransition loads the registration and its event, and enforces the
// approval preconditions shared by verify and reject.
func (svc *Service) getForTransition(ctx context.Context, id int, actor user.User) (Registration, event.Event, error) {
	reg, err := svc.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		return Registration{}, event.Event{}, err
	}
	evt, err := svc.eventRepo.GetEventByID(ctx, reg.EventID)
	if err != nil {
		return Registration{}, event.Event{}, errors.Wrap(err, "fetching registration event")
	}
	if !actor.IsAdmin() || !actor.CanManageChapter(evt.Chapter) {
		return Registration{}, event.Event{}, user.ErrPermissionDenied
	}
	if reg.IsTerminal() {
		return Registration{}, event.Event{}, ErrAlreadyProcessed
	}
	return reg, evt, nil
}

// notify dispatches a templated email, fire-and-forget. Send failures are
// the email service's to log; they never roll back a transition.
func (svc *Service) notify(name, email, template, subject string, data interface{}) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: email}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: data,
	})
}

type (
	mailEvent struct {
		Name   string
		Date   string
		Starts string
		Ends   string
		Venue  string
		Amount int
	}

	submissionMail struct {
		Events []mailEvent
		Total  int
	}

	transitionMail struct {
		EventName     string
		Amount        int
		RejectionNote string
	}
)

func submissionMailData(selection []event.Event, regs []Registration, quote Quote) submissionMail {
	amounts := make(map[int]int, len(regs))
	for _, reg := range regs {
		amounts[reg.EventID] = reg.Amount
	}
	data := submissionMail{Total: quote.Total}
	for _, evt := range selection {
		data.Events = append(data.Events, mailEvent{
			Name:   evt.Name,
			Date:   evt.Date.Format("Mon, 02 Jan 2006"),
			Starts: evt.StartsAt.Format("15:04"),
			Ends:   evt.EndsAt.Format("15:04"),
			Venue:  evt.Venue,
			Amount: amounts[evt.ID],
		})
	}
	return data
}

func transitionMailData(reg Registration, evt event.Event) transitionMail {
	return transitionMail{
		EventName:     evt.Name,
		Amount:        reg.Amount,
		RejectionNote: reg.RejectionNote.String,
	}
}
