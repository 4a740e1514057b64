package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// documents is the plain REST CRUD shape shared by the opaque resources
// (foods, categories, news, order statuses, order details).
type documents struct {
	client   *Client
	resource string
	path     string
}

func (d documents) list(ctx context.Context, token string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := d.client.doJSON(ctx, call{
		resource: d.resource,
		method:   http.MethodGet,
		path:     d.path,
		token:    token,
	}, &items); err != nil {
		return nil, err
	}
	return nonNil(items), nil
}

func (d documents) get(ctx context.Context, token string, id int64) (json.RawMessage, error) {
	body, err := d.client.do(ctx, call{
		resource: d.resource,
		method:   http.MethodGet,
		path:     d.path + pathf("/%s", id),
		token:    token,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

func (d documents) create(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	body, err := d.client.do(ctx, call{
		resource: d.resource,
		method:   http.MethodPost,
		path:     d.path,
		token:    token,
		body:     doc,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

func (d documents) update(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	body, err := d.client.do(ctx, call{
		resource: d.resource,
		method:   http.MethodPut,
		path:     d.path + pathf("/%s", id),
		token:    token,
		body:     doc,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

func (d documents) remove(ctx context.Context, token string, id int64) error {
	_, err := d.client.do(ctx, call{
		resource: d.resource,
		method:   http.MethodDelete,
		path:     d.path + pathf("/%s", id),
		token:    token,
	})
	return err
}
