package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
)

const resourceCarts = "carts"

// ListCartLines fetches the user's cart. The backend answers with a bare list,
// `{"carts": [...]}` or `{"data": [...]}`; all three normalize to one slice.
func (c *Client) ListCartLines(ctx context.Context, token string, userID int64) ([]CartLine, error) {
	body, err := c.do(ctx, call{
		resource: resourceCarts,
		method:   http.MethodGet,
		path:     "/carts/user",
		query:    url.Values{"userId": {strconv.FormatInt(userID, 10)}},
		token:    token,
	})
	if err != nil {
		return nil, err
	}
	return DecodeCartLines(body)
}

// DecodeCartLines normalizes the accepted cart response shapes.
func DecodeCartLines(body []byte) ([]CartLine, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []CartLine{}, nil
	}
	if trimmed[0] == '[' {
		var lines []CartLine
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart lines")
		}
		return nonNil(lines), nil
	}

	var wrapped struct {
		Carts []CartLine `json:"carts"`
		Data  []CartLine `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart lines")
	}
	if wrapped.Carts != nil {
		return wrapped.Carts, nil
	}
	return nonNil(wrapped.Data), nil
}

// CreateCartLine adds a food to the user's cart.
func (c *Client) CreateCartLine(ctx context.Context, token string, in CartLineInput) (*CartLine, error) {
	var line CartLine
	if err := c.doJSON(ctx, call{
		resource: resourceCarts,
		method:   http.MethodPost,
		path:     "/carts",
		token:    token,
		body:     in,
	}, &line); err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateCartLine replaces a cart line.
func (c *Client) UpdateCartLine(ctx context.Context, token string, id int64, in CartLineInput) (*CartLine, error) {
	var line CartLine
	if err := c.doJSON(ctx, call{
		resource: resourceCarts,
		method:   http.MethodPut,
		path:     pathf("/carts/%s", id),
		token:    token,
		body:     in,
	}, &line); err != nil {
		return nil, err
	}
	return &line, nil
}

// DeleteCartLine removes one cart line.
func (c *Client) DeleteCartLine(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, call{
		resource: resourceCarts,
		method:   http.MethodDelete,
		path:     pathf("/carts/%s", id),
		token:    token,
	})
	return err
}

// CheckoutCart converts the user's remaining cart lines into an order and clears the cart.
// The backend's answer is returned verbatim.
func (c *Client) CheckoutCart(ctx context.Context, token string, userID int64) (json.RawMessage, error) {
	body, err := c.do(ctx, call{
		resource: resourceCarts,
		method:   http.MethodPost,
		path:     pathf("/carts/checkout/%s", userID),
		token:    token,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func rawOrNull(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if !json.Valid(trimmed) {
		encoded, _ := json.Marshal(string(trimmed))
		return encoded
	}
	return json.RawMessage(trimmed)
}
