package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

const resourceReviews = "reviews"

// CreateReview posts a review; the backend derives the author from the bearer token.
func (c *Client) CreateReview(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	body, err := c.do(ctx, call{
		resource: resourceReviews,
		method:   http.MethodPost,
		path:     "/reviews",
		token:    token,
		body:     doc,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

func (c *Client) ListFoodReviews(ctx context.Context, token string, foodID int64) ([]json.RawMessage, error) {
	var reviews []json.RawMessage
	if err := c.doJSON(ctx, call{
		resource: resourceReviews,
		method:   http.MethodGet,
		path:     pathf("/reviews/food/%s", foodID),
		token:    token,
	}, &reviews); err != nil {
		return nil, err
	}
	return nonNil(reviews), nil
}

// DeleteReview removes a review; ownership is enforced upstream.
func (c *Client) DeleteReview(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, call{
		resource: resourceReviews,
		method:   http.MethodDelete,
		path:     pathf("/reviews/%s", id),
		token:    token,
	})
	return err
}
