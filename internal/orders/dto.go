package orders

import (
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderView is an order with its human-readable status.
type OrderView struct {
	backend.Order
	StatusLabel string `json:"status_label"`
}

func newOrderView(order backend.Order) OrderView {
	return OrderView{Order: order, StatusLabel: order.Status.String()}
}

// CreateOrderInput is the administrative order form.
type CreateOrderInput struct {
	UserID        int64               `json:"user_id" validate:"required,gt=0"`
	CustomerName  string              `json:"customer_name" validate:"omitempty,max=200"`
	PaymentMethod string              `json:"payment_method" validate:"omitempty,max=50"`
	Status        *enums.OrderStatus  `json:"status"`
	Details       []CreateDetailInput `json:"details" validate:"required,min=1,dive"`
}

// CreateDetailInput is one line of the administrative order form.
type CreateDetailInput struct {
	FoodID   int64           `json:"food_id" validate:"required,gt=0"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

// UpdateStatusInput changes the order status.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// SetDeletedInput toggles the soft-delete flag.
type SetDeletedInput struct {
	Deleted bool `json:"deleted"`
}
