package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodstore/pkg/enums"
	"github.com/shopspring/decimal"
)

// Ref is the `{ "id": n }` reference the backend uses for relations.
type Ref struct {
	ID int64 `json:"id"`
}

// CartFood is the food embedded in a cart line.
type CartFood struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// CartLine is one (user, food, quantity, price snapshot) record.
type CartLine struct {
	ID       int64               `json:"id"`
	User     *Ref                `json:"user,omitempty"`
	Food     CartFood            `json:"food"`
	Quantity int                 `json:"quantity"`
	Price    decimal.NullDecimal `json:"price"`
	Note     string              `json:"note,omitempty"`
}

// UnitPrice returns the line's price snapshot, falling back to the food price.
func (l CartLine) UnitPrice() decimal.Decimal {
	if l.Price.Valid {
		return l.Price.Decimal
	}
	return l.Food.Price
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartLineInput is the payload for creating or updating a cart line.
type CartLineInput struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
	User     Ref    `json:"user"`
	Food     Ref    `json:"food"`
}

// OrderDetail is one line of an order.
type OrderDetail struct {
	ID          int64           `json:"id"`
	Order       *Ref            `json:"order,omitempty"`
	Food        *CartFood       `json:"food,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Order aggregates a user's purchase.
type Order struct {
	ID            int64             `json:"id"`
	User          *Ref              `json:"user,omitempty"`
	CustomerName  string            `json:"customerName,omitempty"`
	TotalPrice    decimal.Decimal   `json:"totalPrice"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Status        enums.OrderStatus `json:"status"`
	CreatedAt     Timestamp         `json:"createdAt"`
	OrderDetails  []OrderDetail     `json:"orderDetails,omitempty"`
	Deleted       bool              `json:"deleted"`
}

// UserID returns the owning user id or 0.
func (o Order) UserID() int64 {
	if o.User == nil {
		return 0
	}
	return o.User.ID
}

// PaymentReturn carries the identifiers the gateway appends to the return URL.
type PaymentReturn struct {
	PaymentID string
	PayerID   string
	OrderID   string
}

// Complete reports whether all three identifiers are present.
func (p PaymentReturn) Complete() bool {
	return strings.TrimSpace(p.PaymentID) != "" &&
		strings.TrimSpace(p.PayerID) != "" &&
		strings.TrimSpace(p.OrderID) != ""
}

// ExecutionResult is the normalized answer to a payment confirmation.
type ExecutionResult struct {
	AlreadyProcessed bool
	Message          string
}

// UserPage is the paginated admin user listing.
type UserPage struct {
	Content       []json.RawMessage `json:"content"`
	TotalElements int64             `json:"totalElements"`
}

// AccountCheck reports which identifiers are already registered.
type AccountCheck struct {
	ExistsEmail    bool `json:"existsEmail"`
	ExistsUsername bool `json:"existsUsername"`
}

// LoginResult is the backend's sign-in answer.
type LoginResult struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     string      `json:"role"`
	UserID   json.Number `json:"userId"`
}

// Timestamp decodes the backend's zone-less and RFC 3339 date-times as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
