package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/tamasha/core"
)

// Role is the closed set of admin roles. Registrations can only be
// transitioned by one of these; there is no participant login.
type Role string

const (
	// RoleChapterAdmin may only act on registrations of their own chapter's events.
	RoleChapterAdmin Role = "admin:chapter"
	RoleSuperAdmin   Role = "admin:super"
	RoleEliteMaster  Role = "admin:elite"
)

var AllRoles = []Role{RoleChapterAdmin, RoleSuperAdmin, RoleEliteMaster}

var rolePriorities = map[Role]int{
	RoleEliteMaster:  30,
	RoleSuperAdmin:   20,
	RoleChapterAdmin: 10,
}

func (r Role) IsValid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) Priority() int {
	return rolePriorities[r]
}

type User struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	IsActive     bool         `json:"is_active"`
	Role         Role         `json:"role"`
	Chapter      core.Chapter `json:"chapter,omitempty"` // chapter admins only
	PasswordHash []byte       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
	LastLogin    time.Time    `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role.IsValid()
}

// CanManageChapter reports whether the user may act on data belonging to the
// given chapter. Matched exhaustively on Role so a new role cannot slip
// through the permission boundary unnoticed.
func (u *User) CanManageChapter(ch core.Chapter) bool {
	switch u.Role {
	case RoleSuperAdmin, RoleEliteMaster:
		return true
	case RoleChapterAdmin:
		return u.Chapter == ch
	default:
		return false
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"required,min=4,alphanum"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required"`
	Chapter         string `json:"chapter" validate:"required_if=Role admin:chapter,omitempty,chapter"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	if !Role(nu.Role).IsValid() {
		return core.NewValidationError(ErrInvalidRole, core.FieldError{Field: "role", Error: ErrInvalidRole.Error()})
	}
	return svc.checkUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Username        string `json:"username" validate:"omitempty,min=4,alphanum"`
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Role            string `json:"role"`
	Chapter         string `json:"chapter" validate:"omitempty,chapter"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, svc *Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	if uu.Role != "" && !Role(uu.Role).IsValid() {
		return core.NewValidationError(ErrInvalidRole, core.FieldError{Field: "role", Error: ErrInvalidRole.Error()})
	}
	return svc.checkUniqueness(uu.Username, uu.Email, origUsr)
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	Chapters []string `query:"chapter"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Chapters == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
