package authkit

import (
	"context"

	"github.com/edusuite/authkit/internal"
)

// ChangePassword re-verifies the old password with the same hash
// comparison used at login, then re-hashes and persists the new one.
// A wrong old password fails with [ErrInvalidCredentials].
func (e *Engine) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if e == nil || e.users == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := e.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(auditEventPasswordChangeFailed, false, user.ID, user.Username, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.emitAudit(auditEventPasswordChangeFailed, false, user.ID, user.Username, err, nil)
		return err
	}

	user.PasswordHash = newHash
	if err := e.users.Save(ctx, user); err != nil {
		e.emitAudit(auditEventPasswordChangeFailed, false, user.ID, user.Username, err, nil)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(auditEventPasswordChanged, true, user.ID, user.Username, nil, nil)
	return nil
}

// ToggleTwoFactor enables or disables 2FA on an account. Enabling
// generates and persists a fresh long-lived shared secret (20 random
// bytes, hex-encoded) for future key derivation; disabling clears it.
func (e *Engine) ToggleTwoFactor(ctx context.Context, userID int64, enable bool) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	user.TwoFactorEnabled = enable
	if enable {
		secret, err := internal.NewTwoFactorSecret()
		if err != nil {
			return err
		}
		user.TwoFactorSecret = secret
	} else {
		user.TwoFactorSecret = ""
	}

	if err := e.users.Save(ctx, user); err != nil {
		return err
	}

	e.metricInc(MetricTwoFactorToggled)
	e.emitAudit(auditEventTwoFactorToggled, true, user.ID, user.Username, nil, map[string]string{
		"enabled": boolString(enable),
	})
	return nil
}

// CreateAccount provisions a new enabled account after checking the
// username and email for duplicates. The password is hashed before
// anything is persisted; the plaintext never reaches the store.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreateAccountResult, error) {
	if e == nil || e.users == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if !req.Role.Valid() {
		return nil, ErrRoleInvalid
	}

	taken, err := e.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if !taken && req.Email != "" {
		taken, err = e.users.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
	}
	if taken {
		e.metricInc(MetricAccountCreationDuplicate)
		e.emitAudit(auditEventAccountCreateRejected, false, 0, req.Username, ErrAccountExists, nil)
		return nil, ErrAccountExists
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	record := UserRecord{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		Enabled:      true,
	}
	if err := e.users.Save(ctx, record); err != nil {
		return nil, err
	}

	// The store assigns the id; read the record back to report it.
	saved, err := e.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.emitAudit(auditEventAccountCreated, true, saved.ID, saved.Username, nil, nil)
	return &CreateAccountResult{
		UserID:   saved.ID,
		Username: saved.Username,
		Role:     saved.Role,
	}, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
