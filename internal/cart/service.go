package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/shopspring/decimal"
)

type cartClient interface {
	ListCartLines(ctx context.Context, token string, userID int64) ([]backend.CartLine, error)
	CreateCartLine(ctx context.Context, token string, in backend.CartLineInput) (*backend.CartLine, error)
	UpdateCartLine(ctx context.Context, token string, id int64, in backend.CartLineInput) (*backend.CartLine, error)
	DeleteCartLine(ctx context.Context, token string, id int64) error
	CheckoutCart(ctx context.Context, token string, userID int64) (json.RawMessage, error)
}

type countHolder interface {
	Count(userID int64) int
	Refresh(ctx context.Context, sess *session.Session) int
	Sync(ctx context.Context, sess *session.Session) int
}

// Service exposes the signed-in user's cart operations.
type Service interface {
	List(ctx context.Context, sess *session.Session) (*View, error)
	Add(ctx context.Context, sess *session.Session, input LineInput) (*backend.CartLine, error)
	Update(ctx context.Context, sess *session.Session, lineID int64, input LineInput) (*backend.CartLine, error)
	Remove(ctx context.Context, sess *session.Session, lineID int64) error
	Checkout(ctx context.Context, sess *session.Session) (json.RawMessage, error)
	Count(ctx context.Context, sess *session.Session, refresh bool) int
}

// LineInput is the user-supplied part of a cart line.
type LineInput struct {
	FoodID   int64  `json:"food_id" validate:"required,gt=0"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Note     string `json:"note" validate:"omitempty,max=500"`
}

// View is the cart as rendered to the browser.
type View struct {
	Lines    []backend.CartLine `json:"lines"`
	Total    decimal.Decimal    `json:"total"`
	Currency string             `json:"currency"`
	Count    int                `json:"count"`
}

type service struct {
	carts    cartClient
	counts   countHolder
	currency string
	logg     *logger.Logger
}

// NewService builds the cart service.
func NewService(carts cartClient, counts countHolder, currency string, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart client required")
	}
	if counts == nil {
		return nil, fmt.Errorf("cart count holder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{carts: carts, counts: counts, currency: strings.TrimSpace(currency), logg: logg}, nil
}

func (s *service) List(ctx context.Context, sess *session.Session) (*View, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	lines, err := s.carts.ListCartLines(ctx, sess.BackendToken, sess.UserID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	count := 0
	for _, line := range lines {
		total = total.Add(line.Subtotal())
		count += line.Quantity
	}
	return &View{Lines: lines, Total: total, Currency: s.currency, Count: count}, nil
}

func (s *service) Add(ctx context.Context, sess *session.Session, input LineInput) (*backend.CartLine, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	line, err := s.carts.CreateCartLine(ctx, sess.BackendToken, s.toBackend(sess, input))
	if err != nil {
		return nil, err
	}
	s.counts.Refresh(ctx, sess)
	return line, nil
}

func (s *service) Update(ctx context.Context, sess *session.Session, lineID int64, input LineInput) (*backend.CartLine, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	line, err := s.carts.UpdateCartLine(ctx, sess.BackendToken, lineID, s.toBackend(sess, input))
	if err != nil {
		return nil, err
	}
	s.counts.Refresh(ctx, sess)
	return line, nil
}

func (s *service) Remove(ctx context.Context, sess *session.Session, lineID int64) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.carts.DeleteCartLine(ctx, sess.BackendToken, lineID); err != nil {
		return err
	}
	s.counts.Refresh(ctx, sess)
	return nil
}

// Checkout converts the cart into an order without going through the payment gateway.
func (s *service) Checkout(ctx context.Context, sess *session.Session) (json.RawMessage, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, strconv.FormatInt(sess.UserID, 10))
	order, err := s.carts.CheckoutCart(ctx, sess.BackendToken, sess.UserID)
	// the backend may have cleared part of the cart before failing
	s.counts.Refresh(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "cart.checked_out")
	return order, nil
}

// Count returns the cached count, refreshing first when asked.
func (s *service) Count(ctx context.Context, sess *session.Session, refresh bool) int {
	if sess == nil || sess.UserID <= 0 {
		return 0
	}
	if refresh {
		return s.counts.Sync(ctx, sess)
	}
	return s.counts.Count(sess.UserID)
}

func (s *service) toBackend(sess *session.Session, input LineInput) backend.CartLineInput {
	return backend.CartLineInput{
		Quantity: input.Quantity,
		Note:     strings.TrimSpace(input.Note),
		User:     backend.Ref{ID: sess.UserID},
		Food:     backend.Ref{ID: input.FoodID},
	}
}

func requireSession(sess *session.Session) error {
	if sess == nil || sess.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use the cart")
	}
	return nil
}
