package backend

import (
	"context"
	"encoding/json"
)

func (c *Client) foods() documents {
	return documents{client: c, resource: "foods", path: "/foods"}
}

func (c *Client) categories() documents {
	return documents{client: c, resource: "categories", path: "/categories"}
}

func (c *Client) news() documents {
	return documents{client: c, resource: "news", path: "/news"}
}

// ListFoods returns the menu. Failures degrade to an empty list.
func (c *Client) ListFoods(ctx context.Context, token string) []json.RawMessage {
	items, err := c.foods().list(ctx, token)
	if err != nil {
		c.logg.WarnErr(ctx, "backend.foods.list_degraded", err)
		return []json.RawMessage{}
	}
	return items
}

// GetFood returns one food or nil when it cannot be fetched.
func (c *Client) GetFood(ctx context.Context, token string, id int64) json.RawMessage {
	item, err := c.foods().get(ctx, token, id)
	if err != nil {
		c.logg.WarnErr(ctx, "backend.foods.get_degraded", err)
		return nil
	}
	return item
}

func (c *Client) CreateFood(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	return c.foods().create(ctx, token, doc)
}

func (c *Client) UpdateFood(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	return c.foods().update(ctx, token, id, doc)
}

func (c *Client) DeleteFood(ctx context.Context, token string, id int64) error {
	return c.foods().remove(ctx, token, id)
}

// ListCategories returns all categories. Failures degrade to an empty list.
func (c *Client) ListCategories(ctx context.Context, token string) []json.RawMessage {
	items, err := c.categories().list(ctx, token)
	if err != nil {
		c.logg.WarnErr(ctx, "backend.categories.list_degraded", err)
		return []json.RawMessage{}
	}
	return items
}

// GetCategory returns one category or nil when it cannot be fetched.
func (c *Client) GetCategory(ctx context.Context, token string, id int64) json.RawMessage {
	item, err := c.categories().get(ctx, token, id)
	if err != nil {
		c.logg.WarnErr(ctx, "backend.categories.get_degraded", err)
		return nil
	}
	return item
}

func (c *Client) CreateCategory(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	return c.categories().create(ctx, token, doc)
}

func (c *Client) UpdateCategory(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	return c.categories().update(ctx, token, id, doc)
}

func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	return c.categories().remove(ctx, token, id)
}

func (c *Client) ListNews(ctx context.Context, token string) ([]json.RawMessage, error) {
	return c.news().list(ctx, token)
}

func (c *Client) GetNews(ctx context.Context, token string, id int64) (json.RawMessage, error) {
	return c.news().get(ctx, token, id)
}

func (c *Client) CreateNews(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	return c.news().create(ctx, token, doc)
}

func (c *Client) UpdateNews(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	return c.news().update(ctx, token, id, doc)
}

func (c *Client) DeleteNews(ctx context.Context, token string, id int64) error {
	return c.news().remove(ctx, token, id)
}
