package registration

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tamasha/core"
)

// Registration statuses. A registration is created submitted/pending and is
// transitioned exactly once into a terminal state by the approval workflow.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// PaymentStatus tracks payment verification on the registration itself.
// This is the authoritative payment state; Payment rows are a derived,
// immutable audit record created only on verification.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

type Registration struct {
	ID      int `json:"id"`
	EventID int `json:"event_id"`

	// participant; identity key for conflict detection is (email, phone)
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Branch string `json:"branch"`
	Year   int    `json:"year"`

	IsMember    bool     `json:"is_member"`
	MemberID    string   `json:"member_id,omitempty"`
	TeamMembers []string `json:"team_members,omitempty"`

	TransactionID string `json:"transaction_id"`
	ProofRef      string `json:"proof_ref"`
	Amount        int    `json:"amount"` // per-registration share, INR

	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	RejectionNote null.String   `json:"rejection_note,omitempty"`
	VerifiedBy    null.Int      `json:"verified_by,omitempty"`
	VerifiedAt    null.Time     `json:"verified_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
}

// IsTerminal reports whether the registration has already been verified or
// rejected; terminal registrations accept no further transitions.
func (r Registration) IsTerminal() bool {
	return r.Status != StatusSubmitted
}

// Payment is created exactly once, by the approval workflow's verify branch,
// and is immutable thereafter.
type Payment struct {
	ID             int           `json:"id"`
	RegistrationID int           `json:"registration_id"`
	Amount         int           `json:"amount"`
	Currency       string        `json:"currency"`
	Method         string        `json:"method"`
	Status         PaymentStatus `json:"status"` // always verified
	VerifiedBy     int           `json:"verified_by"`
	VerifiedAt     time.Time     `json:"verified_at"` // UTC
	CreatedAt      time.Time     `json:"created_at"`  // UTC
}

// NewRegistration contains everything a participant supplies in one
// multi-event submission.
type NewRegistration struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone" validate:"required,phone"`
	Branch string `json:"branch" validate:"required"`
	Year   int    `json:"year" validate:"required,gte=1,lte=5"`

	IsMember bool   `json:"is_member"`
	MemberID string `json:"member_id"`

	EventIDs    []int    `json:"event_ids" validate:"required,min=1,unique"`
	TeamMembers []string `json:"team_members"`

	TransactionID string `json:"transaction_id" validate:"required"`
	ProofRef      string `json:"proof_ref" validate:"required"`
	Consent       bool   `json:"consent" validate:"required"`
}

func (nr *NewRegistration) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.Phone = core.CleanString(nr.Phone)
	nr.Branch = core.CleanString(nr.Branch)
	nr.MemberID = core.CleanString(nr.MemberID)
	nr.TransactionID = core.CleanString(nr.TransactionID)
	for i, m := range nr.TeamMembers {
		nr.TeamMembers[i] = core.CleanString(m)
	}

	if err := core.Validate.Struct(nr); err != nil {
		return err
	}
	if nr.IsMember && nr.MemberID == "" {
		return core.NewValidationError(
			errors.New("member id required"),
			core.FieldError{Field: "member_id", Error: "this field is required for members"})
	}
	return nil
}

type QueryFilter struct {
	Search          string    `query:"search"`
	EventIDs        []int     `query:"event_id"`
	Statuses        []string  `query:"status"`
	PaymentStatuses []string  `query:"payment_status"`
	CreatedFrom     time.Time `query:"created_from"`
	CreatedTo       time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.EventIDs == nil && qf.Statuses == nil &&
		qf.PaymentStatuses == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
