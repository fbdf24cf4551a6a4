package authkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginDirectSuccess(t *testing.T) {
	engine, store, _ := newTestEngine(t, testEngineConfig())

	result, err := engine.Login(context.Background(), "admin", "Admin@123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if result.RequiresTwoFactor {
		t.Fatal("expected direct login without a 2FA challenge")
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if result.TokenType != "Bearer" {
		t.Fatalf("tokenType = %q, want Bearer", result.TokenType)
	}
	if result.Username != "admin" || result.Role != RoleAdmin || result.UserID == 0 {
		t.Fatalf("result = %+v", result)
	}

	claims, err := engine.VerifyToken(result.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "ADMIN" || claims.UserID != result.UserID {
		t.Fatalf("claims = %+v", claims)
	}

	user, _ := store.get("admin")
	if user.LastLogin.IsZero() {
		t.Fatal("expected last-login timestamp to be recorded")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	engine, _, _ := newTestEngine(t, testEngineConfig())

	// Unknown username and wrong password must be indistinguishable.
	_, unknownErr := engine.Login(context.Background(), "nobody", "Admin@123")
	_, wrongErr := engine.Login(context.Background(), "admin", "Admin@124")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("Login(unknown) = %v, want ErrInvalidCredentials", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("Login(wrong password) = %v, want ErrInvalidCredentials", wrongErr)
	}
	if unknownErr != wrongErr {
		t.Fatal("unknown-user and wrong-password failures must be the same error value")
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	engine, _, _ := newTestEngine(t, testEngineConfig())

	// The password is checked first, so a wrong guess against a
	// disabled account does not reveal the account state.
	if _, err := engine.Login(context.Background(), "ghost", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login(disabled, wrong pass) = %v, want ErrInvalidCredentials", err)
	}
	if _, err := engine.Login(context.Background(), "ghost", "Ghost@123"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("Login(disabled) = %v, want ErrAccountDisabled", err)
	}
}

func TestLoginLastLoginWriteFailureIsNonFatal(t *testing.T) {
	engine, store, _ := newTestEngine(t, testEngineConfig())
	store.saveErr = errors.New("db down")

	result, err := engine.Login(context.Background(), "admin", "Admin@123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected tokens despite the failed bookkeeping write")
	}
}

func TestLoginTwoFactorChallenge(t *testing.T) {
	engine, _, notifier := newTestEngine(t, testEngineConfig())

	result, err := engine.Login(context.Background(), "teacher1", "Teacher@123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !result.RequiresTwoFactor {
		t.Fatal("expected a 2FA challenge")
	}
	if result.AccessToken != "" || result.RefreshToken != "" {
		t.Fatal("expected no tokens before 2FA completion")
	}

	destination, code := notifier.last()
	if destination != "+254700000001" {
		t.Fatalf("destination = %q, want the account's phone", destination)
	}
	if !validCodeFormat(code) {
		t.Fatalf("delivered code %q is not 6 digits", code)
	}
}

func TestVerifyTwoFactorCompletesLogin(t *testing.T) {
	engine, store, notifier := newTestEngine(t, testEngineConfig())

	if _, err := engine.Login(context.Background(), "teacher1", "Teacher@123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, code := notifier.last()

	result, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code)
	if err != nil {
		t.Fatalf("VerifyTwoFactor failed: %v", err)
	}
	if result.RequiresTwoFactor {
		t.Fatal("expected 2FA to be completed")
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected tokens after 2FA completion")
	}
	if result.Role != RoleClassTeacher {
		t.Fatalf("role = %q, want %q", result.Role, RoleClassTeacher)
	}

	user, _ := store.get("teacher1")
	if user.LastLogin.IsZero() {
		t.Fatal("expected last-login timestamp to be recorded")
	}

	// The code is single-use.
	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("VerifyTwoFactor(replay) = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyTwoFactorWrongCodeThenCorrect(t *testing.T) {
	engine, _, notifier := newTestEngine(t, testEngineConfig())

	if _, err := engine.Login(context.Background(), "teacher1", "Teacher@123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, code := notifier.last()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("VerifyTwoFactor(wrong) = %v, want ErrInvalidCode", err)
	}

	// A wrong guess does not consume the pending challenge.
	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code); err != nil {
		t.Fatalf("VerifyTwoFactor(correct after wrong) failed: %v", err)
	}
}

func TestVerifyTwoFactorRejectsMalformedCode(t *testing.T) {
	engine, _, notifier := newTestEngine(t, testEngineConfig())

	if _, err := engine.Login(context.Background(), "teacher1", "Teacher@123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	for _, code := range []string{"", "12345", "1234567", "12a456", "12345 ", "１２３４５６"} {
		if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("VerifyTwoFactor(%q) = %v, want ErrInvalidCode", code, err)
		}
	}

	// Malformed submissions never touch the stored challenge.
	_, code := notifier.last()
	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code); err != nil {
		t.Fatalf("VerifyTwoFactor(correct) failed: %v", err)
	}
}

func TestVerifyTwoFactorWithoutChallenge(t *testing.T) {
	engine, _, _ := newTestEngine(t, testEngineConfig())

	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", "123456"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("VerifyTwoFactor(no challenge) = %v, want ErrInvalidCode", err)
	}
}

func TestLoginNotificationFailure(t *testing.T) {
	engine, _, notifier := newTestEngine(t, testEngineConfig())
	notifier.err = errors.New("sms gateway down")

	if _, err := engine.Login(context.Background(), "teacher1", "Teacher@123"); !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("Login = %v, want ErrNotificationFailed", err)
	}

	// The challenge was stored before delivery was attempted, so the
	// code the gateway saw still completes the flow.
	_, code := notifier.last()
	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code); err != nil {
		t.Fatalf("VerifyTwoFactor after delivery failure failed: %v", err)
	}
}

func TestVerifyTwoFactorDisabledAccount(t *testing.T) {
	engine, store, notifier := newTestEngine(t, testEngineConfig())

	if _, err := engine.Login(context.Background(), "teacher1", "Teacher@123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, code := notifier.last()

	// Account disabled between challenge issuance and verification.
	user, _ := store.get("teacher1")
	user.Enabled = false
	store.put(user)

	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("VerifyTwoFactor(disabled) = %v, want ErrAccountDisabled", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	engine, _, _ := newTestEngine(t, testEngineConfig())

	login, err := engine.Login(context.Background(), "admin", "Admin@123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := engine.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatal("expected a fresh token pair")
	}
	if refreshed.Username != "admin" || refreshed.Role != RoleAdmin {
		t.Fatalf("result = %+v", refreshed)
	}

	claims, err := engine.VerifyToken(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.Role != "ADMIN" {
		t.Fatalf("refreshed access token role = %q, want ADMIN", claims.Role)
	}
}

func TestRefreshRejectsInvalidToken(t *testing.T) {
	engine, _, _ := newTestEngine(t, testEngineConfig())

	if _, err := engine.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("Refresh(garbage) = %v, want ErrSignatureInvalid", err)
	}

	expired, err := engine.jwtManager.Issue("admin", "", 0, -time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := engine.Refresh(context.Background(), expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Refresh(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestRefreshDisabledOrDeletedAccount(t *testing.T) {
	engine, store, _ := newTestEngine(t, testEngineConfig())

	login, err := engine.Login(context.Background(), "admin", "Admin@123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	user, _ := store.get("admin")
	user.Enabled = false
	store.put(user)
	if _, err := engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("Refresh(disabled) = %v, want ErrAccountDisabled", err)
	}

	store.mu.Lock()
	delete(store.byName, "admin")
	store.mu.Unlock()
	if _, err := engine.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Refresh(deleted) = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidCodeFormat(t *testing.T) {
	valid := []string{"100000", "999999", "483920", "000000"}
	invalid := []string{"", "1", "12345", "1234567", "12 456", "abcdef", "12345x"}

	for _, code := range valid {
		if !validCodeFormat(code) {
			t.Errorf("validCodeFormat(%q) = false, want true", code)
		}
	}
	for _, code := range invalid {
		if validCodeFormat(code) {
			t.Errorf("validCodeFormat(%q) = true, want false", code)
		}
	}
}
