package enums

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OrderStatus is the numeric status code the backend stores on an order.
type OrderStatus int

const (
	OrderStatusPending   OrderStatus = 0
	OrderStatusConfirmed OrderStatus = 1
	OrderStatusDelivered OrderStatus = 2
	OrderStatusCancelled OrderStatus = 3
	OrderStatusUnknown   OrderStatus = -1
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:   "pending",
	OrderStatusConfirmed: "confirmed",
	OrderStatusDelivered: "delivered",
	OrderStatusCancelled: "cancelled",
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// ParseOrderStatus accepts either the numeric code or the status name.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if code, err := strconv.Atoi(trimmed); err == nil {
		status := OrderStatus(code)
		if status.IsValid() {
			return status, nil
		}
		return OrderStatusUnknown, fmt.Errorf("invalid order status %q", value)
	}
	if trimmed == "canceled" {
		trimmed = "cancelled"
	}
	for status, name := range orderStatusNames {
		if name == trimmed {
			return status, nil
		}
	}
	return OrderStatusUnknown, fmt.Errorf("invalid order status %q", value)
}

// UnmarshalJSON accepts the numeric code, a status name, or a free-form label.
// Unrecognized labels decode as OrderStatusUnknown instead of failing the payload.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*s = OrderStatus(code)
		if !s.IsValid() {
			*s = OrderStatusUnknown
		}
		return nil
	}
	var label *string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("decoding order status: %w", err)
	}
	if label == nil {
		*s = OrderStatusPending
		return nil
	}
	parsed, err := ParseOrderStatus(*label)
	if err != nil {
		*s = OrderStatusUnknown
		return nil
	}
	*s = parsed
	return nil
}
