package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

const resourceOrders = "orders"

// ListOrders returns every order (admin scope).
func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	if err := c.doJSON(ctx, call{
		resource: resourceOrders,
		method:   http.MethodGet,
		path:     "/orders",
		token:    token,
	}, &orders); err != nil {
		return nil, err
	}
	return nonNil(orders), nil
}

// ListUserOrders returns the orders owned by one user.
func (c *Client) ListUserOrders(ctx context.Context, token string, userID int64) ([]Order, error) {
	var orders []Order
	if err := c.doJSON(ctx, call{
		resource: resourceOrders,
		method:   http.MethodGet,
		path:     pathf("/orders/user/%s", userID),
		token:    token,
	}, &orders); err != nil {
		return nil, err
	}
	return nonNil(orders), nil
}

func (c *Client) GetOrder(ctx context.Context, token string, id int64) (*Order, error) {
	var order Order
	if err := c.doJSON(ctx, call{
		resource: resourceOrders,
		method:   http.MethodGet,
		path:     pathf("/orders/%s", id),
		token:    token,
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder submits an administrative order form.
func (c *Client) CreateOrder(ctx context.Context, token string, order Order) (*Order, error) {
	var created Order
	if err := c.doJSON(ctx, call{
		resource: resourceOrders,
		method:   http.MethodPost,
		path:     "/orders",
		token:    token,
		body:     order,
	}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOrder replaces the order's mutable fields (status, deleted flag).
func (c *Client) UpdateOrder(ctx context.Context, token string, id int64, order Order) (*Order, error) {
	var updated Order
	if err := c.doJSON(ctx, call{
		resource: resourceOrders,
		method:   http.MethodPut,
		path:     pathf("/orders/%s", id),
		token:    token,
		body:     order,
	}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteOrder(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, call{
		resource: resourceOrders,
		method:   http.MethodDelete,
		path:     pathf("/orders/%s", id),
		token:    token,
	})
	return err
}

func (c *Client) orderDetails() documents {
	return documents{client: c, resource: "order_details", path: "/order-details"}
}

// ListOrderDetails returns every order detail line.
func (c *Client) ListOrderDetails(ctx context.Context, token string) ([]OrderDetail, error) {
	var details []OrderDetail
	if err := c.doJSON(ctx, call{
		resource: "order_details",
		method:   http.MethodGet,
		path:     "/order-details",
		token:    token,
	}, &details); err != nil {
		return nil, err
	}
	return nonNil(details), nil
}

func (c *Client) GetOrderDetail(ctx context.Context, token string, id int64) (json.RawMessage, error) {
	return c.orderDetails().get(ctx, token, id)
}

func (c *Client) CreateOrderDetail(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	return c.orderDetails().create(ctx, token, doc)
}

func (c *Client) UpdateOrderDetail(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	return c.orderDetails().update(ctx, token, id, doc)
}

func (c *Client) DeleteOrderDetail(ctx context.Context, token string, id int64) error {
	return c.orderDetails().remove(ctx, token, id)
}

func (c *Client) orderStatuses() documents {
	return documents{client: c, resource: "order_statuses", path: "/order-status"}
}

func (c *Client) ListOrderStatuses(ctx context.Context, token string) ([]json.RawMessage, error) {
	return c.orderStatuses().list(ctx, token)
}

func (c *Client) GetOrderStatus(ctx context.Context, token string, id int64) (json.RawMessage, error) {
	return c.orderStatuses().get(ctx, token, id)
}

func (c *Client) CreateOrderStatus(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	return c.orderStatuses().create(ctx, token, doc)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	return c.orderStatuses().update(ctx, token, id, doc)
}

func (c *Client) DeleteOrderStatus(ctx context.Context, token string, id int64) error {
	return c.orderStatuses().remove(ctx, token, id)
}
