package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tamasha/core/registration"
)

const pqUniqueViolation = "23505"

type registrationRow struct {
	ID            int            `db:"id"`
	EventID       int            `db:"event_id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Phone         string         `db:"phone"`
	Branch        string         `db:"branch"`
	Year          int            `db:"year"`
	IsMember      bool           `db:"is_member"`
	MemberID      string         `db:"member_id"`
	TeamMembers   pq.StringArray `db:"team_members"`
	TransactionID string         `db:"transaction_id"`
	ProofRef      string         `db:"proof_ref"`
	Amount        int            `db:"amount"`
	Status        string         `db:"status"`
	PaymentStatus string         `db:"payment_status"`
	RejectionNote null.String    `db:"rejection_note"`
	VerifiedBy    null.Int       `db:"verified_by"`
	VerifiedAt    null.Time      `db:"verified_at"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r registrationRow) toRegistration() registration.Registration {
	return registration.Registration{
		ID:            r.ID,
		EventID:       r.EventID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Branch:        r.Branch,
		Year:          r.Year,
		IsMember:      r.IsMember,
		MemberID:      r.MemberID,
		TeamMembers:   r.TeamMembers,
		TransactionID: r.TransactionID,
		ProofRef:      r.ProofRef,
		Amount:        r.Amount,
		Status:        registration.Status(r.Status),
		PaymentStatus: registration.PaymentStatus(r.PaymentStatus),
		RejectionNote: r.RejectionNote,
		VerifiedBy:    r.VerifiedBy,
		VerifiedAt:    r.VerifiedAt,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func toRegistrations(rows []registrationRow) []registration.Registration {
	regs := make([]registration.Registration, 0, len(rows))
	for _, r := range rows {
		regs = append(regs, r.toRegistration())
	}
	return regs
}

type registrationRepository struct {
	db *sqlx.DB
}

var _ registration.Repository = (*registrationRepository)(nil) // interface compliance check

func NewRegistrationRepository(db *sqlx.DB) registration.Repository {
	return &registrationRepository{db: db}
}

// CreateRegistrations inserts all rows in one transaction. The UNIQUE
// (email, phone, event_id) index makes the duplicate check race-free; a
// unique violation rolls the whole submission back.
func (repo *registrationRepository) CreateRegistrations(ctx context.Context, regs []registration.Registration) ([]registration.Registration, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO registrations (event_id, name, email, phone, branch, year, is_member, member_id,
			team_members, transaction_id, proof_ref, amount, status, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	created := make([]registration.Registration, 0, len(regs))
	for _, reg := range regs {
		err := tx.QueryRowContext(ctx, query,
			reg.EventID, reg.Name, reg.Email, reg.Phone, reg.Branch, reg.Year, reg.IsMember, reg.MemberID,
			pq.StringArray(reg.TeamMembers), reg.TransactionID, reg.ProofRef, reg.Amount,
			string(reg.Status), string(reg.PaymentStatus), reg.CreatedAt,
		).Scan(&reg.ID)
		if err != nil {
			if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
				return nil, registration.ErrAlreadyRegistered
			}
			return nil, errors.Wrap(err, "inserting registration")
		}
		created = append(created, reg)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return created, nil
}

func (repo *registrationRepository) GetRegistrationByID(ctx context.Context, id int) (registration.Registration, error) {
	var row registrationRow
	err := repo.db.GetContext(ctx, &row, "SELECT * FROM registrations WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return registration.Registration{}, registration.ErrNotFound
	} else if err != nil {
		return registration.Registration{}, errors.Wrap(err, "getting registration")
	}
	return row.toRegistration(), nil
}

func (repo *registrationRepository) QueryRegistrationsByParticipant(ctx context.Context, email, phone string) ([]registration.Registration, error) {
	var rows []registrationRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT * FROM registrations WHERE email = $1 AND phone = $2 ORDER BY id", email, phone)
	if err != nil {
		return nil, errors.Wrap(err, "querying participant registrations")
	}
	return toRegistrations(rows), nil
}

func (repo *registrationRepository) FilterRegistrations(ctx context.Context, filter registration.QueryFilter) ([]registration.Registration, error) {
	query := "SELECT * FROM registrations WHERE 1=1"
	args := make([]interface{}, 0)

	if filter.Search != "" {
		query += " AND (name ILIKE ? OR email ILIKE ? OR phone LIKE ? OR transaction_id ILIKE ?)"
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like, like)
	}
	if len(filter.EventIDs) > 0 {
		query += " AND event_id IN (?)"
		args = append(args, filter.EventIDs)
	}
	if len(filter.Statuses) > 0 {
		query += " AND status IN (?)"
		args = append(args, filter.Statuses)
	}
	if len(filter.PaymentStatuses) > 0 {
		query += " AND payment_status IN (?)"
		args = append(args, filter.PaymentStatuses)
	}
	if !filter.CreatedFrom.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.CreatedTo.UTC())
	}
	query += " ORDER BY created_at DESC, id DESC"

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []registrationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), inArgs...); err != nil {
		return nil, errors.Wrap(err, "filtering registrations")
	}
	return toRegistrations(rows), nil
}

// TransitionRegistration updates the row iff it is still pending; the
// `status = 'submitted'` guard makes a double approval a no-op at the SQL
// level, which we surface as ErrAlreadyProcessed. The payment insert shares
// the transaction so a verified registration can never miss its Payment.
func (repo *registrationRepository) TransitionRegistration(ctx context.Context, reg registration.Registration, pay *registration.Payment) (registration.Registration, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return registration.Registration{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE registrations
		SET status = $2, payment_status = $3, rejection_note = $4, verified_by = $5, verified_at = $6
		WHERE id = $1 AND status = 'submitted'
		RETURNING *`
	var row registrationRow
	err = tx.GetContext(ctx, &row, query,
		reg.ID, string(reg.Status), string(reg.PaymentStatus), reg.RejectionNote, reg.VerifiedBy, reg.VerifiedAt)
	if err == sql.ErrNoRows {
		// either missing or already terminal
		var exists bool
		if err := tx.GetContext(ctx, &exists, "SELECT true FROM registrations WHERE id = $1", reg.ID); err != nil {
			if err == sql.ErrNoRows {
				return registration.Registration{}, registration.ErrNotFound
			}
			return registration.Registration{}, errors.Wrap(err, "checking registration")
		}
		return registration.Registration{}, registration.ErrAlreadyProcessed
	} else if err != nil {
		return registration.Registration{}, errors.Wrap(err, "transitioning registration")
	}

	if pay != nil {
		payQuery := `
			INSERT INTO payments (registration_id, amount, currency, method, status, verified_by, verified_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err := tx.ExecContext(ctx, payQuery,
			pay.RegistrationID, pay.Amount, pay.Currency, pay.Method, string(pay.Status),
			pay.VerifiedBy, pay.VerifiedAt, pay.CreatedAt)
		if err != nil {
			return registration.Registration{}, errors.Wrap(err, "inserting payment")
		}
	}

	if err := tx.Commit(); err != nil {
		return registration.Registration{}, errors.Wrap(err, "committing transaction")
	}
	return row.toRegistration(), nil
}

func (repo *registrationRepository) GetPaymentByRegistrationID(ctx context.Context, regID int) (registration.Payment, error) {
	var pay registration.Payment
	query := `
		SELECT id, registration_id, amount, currency, method, status, verified_by, verified_at, created_at
		FROM payments WHERE registration_id = $1`
	row := repo.db.QueryRowContext(ctx, query, regID)
	var status string
	err := row.Scan(&pay.ID, &pay.RegistrationID, &pay.Amount, &pay.Currency, &pay.Method, &status,
		&pay.VerifiedBy, &pay.VerifiedAt, &pay.CreatedAt)
	if err == sql.ErrNoRows {
		return registration.Payment{}, registration.ErrNotFound
	} else if err != nil {
		return registration.Payment{}, errors.Wrap(err, "getting payment")
	}
	pay.Status = registration.PaymentStatus(status)
	return pay, nil
}
