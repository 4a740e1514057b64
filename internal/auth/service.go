package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/foodstore/pkg/auth"
	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/config"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"go.uber.org/multierr"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sess *session.Session) error
	ChangePassword(ctx context.Context, sess *session.Session, req ChangePasswordRequest) (json.RawMessage, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (json.RawMessage, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (json.RawMessage, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (json.RawMessage, error)
	LockAccount(ctx context.Context, sess *session.Session, userID int64) (json.RawMessage, error)
}

type accountClient interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResult, error)
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (json.RawMessage, error)
	ForgotPassword(ctx context.Context, emailOrUsername string) (json.RawMessage, error)
	VerifyOTP(ctx context.Context, emailOrUsername, otp string) (json.RawMessage, error)
	ResetPassword(ctx context.Context, emailOrUsername, newPassword string) (json.RawMessage, error)
	LockAccount(ctx context.Context, token string, userID int64) (json.RawMessage, error)
}

type sessionManager interface {
	Begin(ctx context.Context, userID int64, username string, role enums.Role, backendToken string) (*session.Session, error)
	End(ctx context.Context, sessionID string) error
}

type countForgetter interface {
	Forget(userID int64)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Accounts  accountClient
	Sessions  sessionManager
	CartCount countForgetter
	JWTConfig config.JWTConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	accounts  accountClient
	sessions  sessionManager
	cartCount countForgetter
	jwtCfg    config.JWTConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account client is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.CartCount == nil {
		return nil, fmt.Errorf("cart count holder is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts:  params.Accounts,
		sessions:  params.Sessions,
		cartCount: params.CartCount,
		jwtCfg:    params.JWTConfig,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Login verifies credentials with the backend, opens a session holding the
// backend token and mints the browser's access token.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	result, err := s.accounts.Login(ctx, username, req.Password)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidCredentialsMessage)
		}
		return nil, err
	}

	identity, err := parseLoginResult(result)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Begin(ctx, identity.userID, identity.username, identity.role, result.Token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "begin session")
	}

	now := s.now()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		SessionID: sess.ID,
		UserID:    identity.userID,
		Username:  identity.username,
		Role:      identity.role,
	})
	if err != nil {
		err = multierr.Append(err, s.sessions.End(ctx, sess.ID))
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id": identity.userID,
		"role":    identity.role.String(),
	}), "auth.login")

	return &LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute).UTC(),
		Username:    identity.username,
		Role:        identity.role,
		UserID:      identity.userID,
	}, nil
}

// Logout ends the session and drops the user's cached cart count.
func (s *service) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	s.cartCount.Forget(sess.UserID)
	if err := s.sessions.End(ctx, sess.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end session")
	}
	s.logg.Info(s.logg.WithUserID(ctx, strconv.FormatInt(sess.UserID, 10)), "auth.logout")
	return nil
}

func (s *service) ChangePassword(ctx context.Context, sess *session.Session, req ChangePasswordRequest) (json.RawMessage, error) {
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to change your password")
	}
	return s.accounts.ChangePassword(ctx, sess.BackendToken, req.OldPassword, req.NewPassword)
}

func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (json.RawMessage, error) {
	return s.accounts.ForgotPassword(ctx, strings.TrimSpace(req.EmailOrUsername))
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (json.RawMessage, error) {
	return s.accounts.VerifyOTP(ctx, strings.TrimSpace(req.EmailOrUsername), strings.TrimSpace(req.OTP))
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (json.RawMessage, error) {
	return s.accounts.ResetPassword(ctx, strings.TrimSpace(req.EmailOrUsername), req.NewPassword)
}

// LockAccount toggles the lock on another user's account. Admin only.
func (s *service) LockAccount(ctx context.Context, sess *session.Session, userID int64) (json.RawMessage, error) {
	if sess == nil || sess.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.accounts.LockAccount(ctx, sess.BackendToken, userID)
}

type identity struct {
	userID   int64
	username string
	role     enums.Role
}

func parseLoginResult(result *backend.LoginResult) (identity, error) {
	if result == nil || strings.TrimSpace(result.Token) == "" {
		return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	username := strings.TrimSpace(result.Username)
	if username == "" {
		return identity{}, pkgerrors.New(pkgerrors.CodeDependency, "login response missing username")
	}
	role, err := enums.ParseRole(result.Role)
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login response has unknown role")
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(result.UserID.String()), 10, 64)
	if err != nil || userID <= 0 {
		return identity{}, pkgerrors.New(pkgerrors.CodeDependency, "login response missing user id")
	}
	return identity{userID: userID, username: username, role: role}, nil
}
