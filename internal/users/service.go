package users

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/angelmondragon/foodstore/pkg/pagination"
)

type userClient interface {
	ListUsers(ctx context.Context, token, search string, page, size int) backend.UserPage
	GetUserByUsername(ctx context.Context, token, username string) json.RawMessage
	CreateUser(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error)
	UpdateUser(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error)
	DeleteUser(ctx context.Context, token string, id int64) error
	CheckAccount(ctx context.Context, token, email, username string) backend.AccountCheck
}

// ListQuery filters the admin user listing.
type ListQuery struct {
	Search string
	pagination.Params
}

// ListResult is one page of users.
type ListResult struct {
	Users []json.RawMessage `json:"users"`
	Meta  pagination.Meta   `json:"meta"`
}

// Service is the admin user management surface. Every operation requires
// the admin role.
type Service interface {
	List(ctx context.Context, sess *session.Session, query ListQuery) (*ListResult, error)
	GetByUsername(ctx context.Context, sess *session.Session, username string) (json.RawMessage, error)
	Create(ctx context.Context, sess *session.Session, doc json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, sess *session.Session, id int64, doc json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, sess *session.Session, id int64) error
	CheckAccount(ctx context.Context, sess *session.Session, email, username string) (backend.AccountCheck, error)
}

type service struct {
	users userClient
	logg  *logger.Logger
}

func NewService(users userClient, logg *logger.Logger) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{users: users, logg: logg}, nil
}

func (s *service) List(ctx context.Context, sess *session.Session, query ListQuery) (*ListResult, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	params := query.Params.Normalize()
	page := s.users.ListUsers(ctx, sess.BackendToken, strings.TrimSpace(query.Search), params.Page, params.Size)
	total := page.TotalElements
	if total < int64(len(page.Content)) {
		total = int64(len(page.Content))
	}
	return &ListResult{Users: page.Content, Meta: pagination.NewMeta(params, total)}, nil
}

func (s *service) GetByUsername(ctx context.Context, sess *session.Session, username string) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	doc := s.users.GetUserByUsername(ctx, sess.BackendToken, username)
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return doc, nil
}

// Create registers an account after checking that neither the email nor the
// username is already taken.
func (s *service) Create(ctx context.Context, sess *session.Session, doc json.RawMessage) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	var ids struct {
		Email    string `json:"email"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(doc, &ids); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "user payload must be a json object")
	}
	ids.Email = strings.TrimSpace(ids.Email)
	ids.Username = strings.TrimSpace(ids.Username)
	if ids.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	check := s.users.CheckAccount(ctx, sess.BackendToken, ids.Email, ids.Username)
	if check.ExistsEmail || check.ExistsUsername {
		taken := map[string]bool{"email": check.ExistsEmail, "username": check.ExistsUsername}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already exists").WithDetails(taken)
	}
	return s.users.CreateUser(ctx, sess.BackendToken, doc)
}

func (s *service) Update(ctx context.Context, sess *session.Session, id int64, doc json.RawMessage) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if len(doc) == 0 || !json.Valid(doc) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body must be valid JSON")
	}
	return s.users.UpdateUser(ctx, sess.BackendToken, id, doc)
}

func (s *service) Delete(ctx context.Context, sess *session.Session, id int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if id == sess.UserID {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete the signed-in account")
	}
	return s.users.DeleteUser(ctx, sess.BackendToken, id)
}

func (s *service) CheckAccount(ctx context.Context, sess *session.Session, email, username string) (backend.AccountCheck, error) {
	if err := requireAdmin(sess); err != nil {
		return backend.AccountCheck{}, err
	}
	return s.users.CheckAccount(ctx, sess.BackendToken, strings.TrimSpace(email), strings.TrimSpace(username)), nil
}

func requireAdmin(sess *session.Session) error {
	if sess == nil || sess.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if sess.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}
