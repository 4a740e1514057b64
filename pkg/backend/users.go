package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
)

const resourceUsers = "users"

// ListUsers pages through accounts. Failures degrade to an empty page.
func (c *Client) ListUsers(ctx context.Context, token, search string, page, size int) UserPage {
	var result UserPage
	err := c.doJSON(ctx, call{
		resource: resourceUsers,
		method:   http.MethodGet,
		path:     "/admin",
		query: url.Values{
			"search": {search},
			"page":   {strconv.Itoa(page)},
			"size":   {strconv.Itoa(size)},
		},
		token: token,
	}, &result)
	if err != nil {
		c.logg.WarnErr(ctx, "backend.users.list_degraded", err)
		return UserPage{Content: []json.RawMessage{}}
	}
	result.Content = nonNil(result.Content)
	return result
}

// GetUserByUsername returns the profile or nil when it cannot be fetched.
func (c *Client) GetUserByUsername(ctx context.Context, token, username string) json.RawMessage {
	body, err := c.do(ctx, call{
		resource: resourceUsers,
		method:   http.MethodGet,
		path:     "/admin/information",
		query:    url.Values{"username": {username}},
		token:    token,
	})
	if err != nil {
		c.logg.WarnErr(ctx, "backend.users.get_degraded", err)
		return nil
	}
	return rawOrNull(body)
}

// CreateUser registers an account. An empty password is dropped so the backend applies its default.
func (c *Client) CreateUser(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	cleaned, err := dropEmptyPassword(doc)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, call{
		resource: resourceUsers,
		method:   http.MethodPost,
		path:     "/admin",
		token:    token,
		body:     cleaned,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

func (c *Client) UpdateUser(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	body, err := c.do(ctx, call{
		resource: resourceUsers,
		method:   http.MethodPut,
		path:     pathf("/admin/%s", id),
		token:    token,
		body:     doc,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(body), nil
}

func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, call{
		resource: resourceUsers,
		method:   http.MethodDelete,
		path:     pathf("/admin/%s", id),
		token:    token,
	})
	return err
}

// CheckAccount reports whether the email or username is taken. Failures degrade to "neither exists".
func (c *Client) CheckAccount(ctx context.Context, token, email, username string) AccountCheck {
	var result AccountCheck
	if err := c.doJSON(ctx, call{
		resource: resourceUsers,
		method:   http.MethodGet,
		path:     "/admin/check_account",
		query:    url.Values{"email": {email}, "username": {username}},
		token:    token,
	}, &result); err != nil {
		c.logg.WarnErr(ctx, "backend.users.check_account_degraded", err)
		return AccountCheck{}
	}
	return result
}

func dropEmptyPassword(doc json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "user payload must be a json object")
	}
	raw, ok := fields["password"]
	if !ok {
		return doc, nil
	}
	var password *string
	if err := json.Unmarshal(raw, &password); err == nil && (password == nil || strings.TrimSpace(*password) == "") {
		delete(fields, "password")
		cleaned, err := json.Marshal(fields)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode user payload")
		}
		return cleaned, nil
	}
	return doc, nil
}
