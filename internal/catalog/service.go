package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

type menuClient interface {
	ListFoods(ctx context.Context, token string) []json.RawMessage
	GetFood(ctx context.Context, token string, id int64) json.RawMessage
	CreateFood(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error)
	UpdateFood(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error)
	DeleteFood(ctx context.Context, token string, id int64) error

	ListCategories(ctx context.Context, token string) []json.RawMessage
	GetCategory(ctx context.Context, token string, id int64) json.RawMessage
	CreateCategory(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error)
	UpdateCategory(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error)
	DeleteCategory(ctx context.Context, token string, id int64) error
}

type newsClient interface {
	ListNews(ctx context.Context, token string) ([]json.RawMessage, error)
	GetNews(ctx context.Context, token string, id int64) (json.RawMessage, error)
	CreateNews(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error)
	UpdateNews(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error)
	DeleteNews(ctx context.Context, token string, id int64) error
}

type reviewClient interface {
	CreateReview(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error)
	ListFoodReviews(ctx context.Context, token string, foodID int64) ([]json.RawMessage, error)
	DeleteReview(ctx context.Context, token string, id int64) error
}

// Kind names a catalog resource.
type Kind string

const (
	KindFood     Kind = "food"
	KindCategory Kind = "category"
	KindNews     Kind = "news"
)

// Service serves the menu, news and reviews. Reads are open to anonymous
// visitors; mutations forward the caller's backend token.
type Service interface {
	List(ctx context.Context, sess *session.Session, kind Kind) ([]json.RawMessage, error)
	Get(ctx context.Context, sess *session.Session, kind Kind, id int64) (json.RawMessage, error)
	Create(ctx context.Context, sess *session.Session, kind Kind, doc json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, sess *session.Session, kind Kind, id int64, doc json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, sess *session.Session, kind Kind, id int64) error

	Reviews(ctx context.Context, sess *session.Session, foodID int64) ([]json.RawMessage, error)
	CreateReview(ctx context.Context, sess *session.Session, doc json.RawMessage) (json.RawMessage, error)
	DeleteReview(ctx context.Context, sess *session.Session, id int64) error
}

type ServiceParams struct {
	Menu    menuClient
	News    newsClient
	Reviews reviewClient
	Logger  *logger.Logger
}

type service struct {
	menu    menuClient
	news    newsClient
	reviews reviewClient
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Menu == nil {
		return nil, fmt.Errorf("menu client required")
	}
	if params.News == nil {
		return nil, fmt.Errorf("news client required")
	}
	if params.Reviews == nil {
		return nil, fmt.Errorf("review client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		menu:    params.Menu,
		news:    params.News,
		reviews: params.Reviews,
		logg:    params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, sess *session.Session, kind Kind) ([]json.RawMessage, error) {
	token := tokenOf(sess)
	switch kind {
	case KindFood:
		return s.menu.ListFoods(ctx, token), nil
	case KindCategory:
		return s.menu.ListCategories(ctx, token), nil
	case KindNews:
		return s.news.ListNews(ctx, token)
	}
	return nil, unknownKind(kind)
}

func (s *service) Get(ctx context.Context, sess *session.Session, kind Kind, id int64) (json.RawMessage, error) {
	token := tokenOf(sess)
	var doc json.RawMessage
	switch kind {
	case KindFood:
		doc = s.menu.GetFood(ctx, token, id)
	case KindCategory:
		doc = s.menu.GetCategory(ctx, token, id)
	case KindNews:
		return s.news.GetNews(ctx, token, id)
	default:
		return nil, unknownKind(kind)
	}
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", kind))
	}
	return doc, nil
}

func (s *service) Create(ctx context.Context, sess *session.Session, kind Kind, doc json.RawMessage) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if err := requireDocument(doc); err != nil {
		return nil, err
	}
	switch kind {
	case KindFood:
		return s.menu.CreateFood(ctx, sess.BackendToken, doc)
	case KindCategory:
		return s.menu.CreateCategory(ctx, sess.BackendToken, doc)
	case KindNews:
		return s.news.CreateNews(ctx, sess.BackendToken, doc)
	}
	return nil, unknownKind(kind)
}

func (s *service) Update(ctx context.Context, sess *session.Session, kind Kind, id int64, doc json.RawMessage) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if err := requireDocument(doc); err != nil {
		return nil, err
	}
	switch kind {
	case KindFood:
		return s.menu.UpdateFood(ctx, sess.BackendToken, id, doc)
	case KindCategory:
		return s.menu.UpdateCategory(ctx, sess.BackendToken, id, doc)
	case KindNews:
		return s.news.UpdateNews(ctx, sess.BackendToken, id, doc)
	}
	return nil, unknownKind(kind)
}

func (s *service) Delete(ctx context.Context, sess *session.Session, kind Kind, id int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	switch kind {
	case KindFood:
		return s.menu.DeleteFood(ctx, sess.BackendToken, id)
	case KindCategory:
		return s.menu.DeleteCategory(ctx, sess.BackendToken, id)
	case KindNews:
		return s.news.DeleteNews(ctx, sess.BackendToken, id)
	}
	return unknownKind(kind)
}

func (s *service) Reviews(ctx context.Context, sess *session.Session, foodID int64) ([]json.RawMessage, error) {
	return s.reviews.ListFoodReviews(ctx, tokenOf(sess), foodID)
}

// CreateReview posts a review as the signed-in user. The user reference in
// the document is overwritten with the session's user.
func (s *service) CreateReview(ctx context.Context, sess *session.Session, doc json.RawMessage) (json.RawMessage, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "review must be a JSON object")
	}
	if _, ok := fields["food"]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review food is required")
	}
	user, err := json.Marshal(map[string]int64{"id": sess.UserID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode review user")
	}
	fields["user"] = user
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode review")
	}
	return s.reviews.CreateReview(ctx, sess.BackendToken, body)
}

// DeleteReview forwards the caller's token; the backend decides whether the
// caller owns the review.
func (s *service) DeleteReview(ctx context.Context, sess *session.Session, id int64) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	return s.reviews.DeleteReview(ctx, sess.BackendToken, id)
}

func tokenOf(sess *session.Session) string {
	if sess == nil {
		return ""
	}
	return sess.BackendToken
}

func requireDocument(doc json.RawMessage) error {
	if len(doc) == 0 || !json.Valid(doc) {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must be valid JSON")
	}
	return nil
}

func unknownKind(kind Kind) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown catalog resource %q", kind))
}

func requireSession(sess *session.Session) error {
	if sess == nil || sess.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func requireAdmin(sess *session.Session) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if sess.Role != enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}
