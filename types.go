package authkit

import (
	"context"
	"time"
)

// Role is the single canonical role tag carried by a user record, a
// principal, and the role claim of every issued token. The backend has
// no multi-role users.
type Role string

const (
	// RoleAdmin is an exported role recognized by the authorization layer.
	RoleAdmin Role = "ADMIN"
	// RolePrincipal is an exported role recognized by the authorization layer.
	RolePrincipal Role = "PRINCIPAL"
	// RoleVicePrincipal is an exported role recognized by the authorization layer.
	RoleVicePrincipal Role = "VICE_PRINCIPAL"
	// RoleClassTeacher is an exported role recognized by the authorization layer.
	RoleClassTeacher Role = "CLASS_TEACHER"
	// RoleSubjectTeacher is an exported role recognized by the authorization layer.
	RoleSubjectTeacher Role = "SUBJECT_TEACHER"
	// RoleStudent is an exported role recognized by the authorization layer.
	RoleStudent Role = "STUDENT"
	// RoleParent is an exported role recognized by the authorization layer.
	RoleParent Role = "PARENT"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePrincipal, RoleVicePrincipal,
		RoleClassTeacher, RoleSubjectTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// UserRecord is the full account record consumed from [UserStore]. The
// engine reads credential hashes, status and 2FA flags from it and
// writes back last-login, password, and 2FA mutations through
// [UserStore.Save].
type UserRecord struct {
	ID               int64
	Username         string
	Email            string
	Phone            string
	PasswordHash     string
	Role             Role
	Enabled          bool
	TwoFactorEnabled bool
	TwoFactorSecret  string
	LastLogin        time.Time
}

// UserStore is the persistence interface callers must implement to
// integrate authkit with their user database. Implementations return
// [ErrUserNotFound] for lookups that match no record; any other error
// is treated as a backend failure.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (UserRecord, error)
	FindByID(ctx context.Context, id int64) (UserRecord, error)
	Save(ctx context.Context, user UserRecord) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// NotificationSender delivers a generated one-time code to the user,
// typically over SMS. The engine persists the challenge before calling
// Send, so a slow or failing sender never races the stored code.
type NotificationSender interface {
	SendTwoFactorCode(ctx context.Context, destination, code string) error
}

// Principal is the immutable authenticated identity attached to a
// request after token verification. It is built fresh from storage on
// every request and never cached, so disabling an account takes effect
// on the very next request.
type Principal struct {
	ID       int64
	Username string
	Email    string
	Role     Role
	Enabled  bool
}

// LoginResult is returned by [Engine.Login], [Engine.VerifyTwoFactor],
// and [Engine.Refresh]. When RequiresTwoFactor is true all other fields
// are zero and the client must complete the challenge via
// [Engine.VerifyTwoFactor].
//
// RefreshToken is excluded from the JSON surface; HTTP integrations
// deliver it out of band (the example server uses an HttpOnly cookie).
type LoginResult struct {
	AccessToken       string `json:"accessToken,omitempty"`
	RefreshToken      string `json:"-"`
	TokenType         string `json:"tokenType,omitempty"`
	UserID            int64  `json:"userId,omitempty"`
	Username          string `json:"username,omitempty"`
	Email             string `json:"email,omitempty"`
	Role              Role   `json:"role,omitempty"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
}

// CreateAccountRequest is the input for [Engine.CreateAccount].
type CreateAccountRequest struct {
	Username string
	Email    string
	Phone    string
	Password string
	Role     Role
}

// CreateAccountResult is returned by [Engine.CreateAccount].
type CreateAccountResult struct {
	UserID   int64
	Username string
	Role     Role
}
