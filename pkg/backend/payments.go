package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/shopspring/decimal"
)

const resourcePayments = "payments"

// CreatePayment asks the backend for a gateway approval link. orderID is
// forwarded only when non-empty.
func (c *Client) CreatePayment(ctx context.Context, token string, amount decimal.Decimal, orderID string) (string, error) {
	query := url.Values{"amount": {amount.String()}}
	if trimmed := strings.TrimSpace(orderID); trimmed != "" {
		query.Set("orderId", trimmed)
	}
	body, err := c.do(ctx, call{
		resource: resourcePayments,
		method:   http.MethodPost,
		path:     "/payment/create",
		query:    query,
		token:    token,
	})
	if err != nil {
		return "", err
	}
	return plainText(body), nil
}

// ExecutePayment confirms the transaction with the identifiers from the
// return URL. A replayed confirmation is reported through
// ExecutionResult.AlreadyProcessed whether the backend answered with a
// success or an error status.
func (c *Client) ExecutePayment(ctx context.Context, token string, ret PaymentReturn) (ExecutionResult, error) {
	body, err := c.do(ctx, call{
		resource: resourcePayments,
		method:   http.MethodGet,
		path:     "/payment/success",
		query: url.Values{
			"paymentId": {ret.PaymentID},
			"PayerID":   {ret.PayerID},
			"orderId":   {ret.OrderID},
		},
		token:       token,
		replayCheck: true,
	})
	if err != nil {
		if statusErr, ok := AsStatusError(err); ok && statusErr.AlreadyProcessed {
			return ExecutionResult{AlreadyProcessed: true, Message: plainText([]byte(statusErr.Body))}, nil
		}
		return ExecutionResult{}, err
	}
	return ExecutionResult{
		AlreadyProcessed: c.IsAlreadyProcessed(body),
		Message:          plainText(body),
	}, nil
}

// CancelPayment acknowledges a cancelled approval and returns the backend's message.
func (c *Client) CancelPayment(ctx context.Context, token, orderID string) (string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	body, err := c.do(ctx, call{
		resource: resourcePayments,
		method:   http.MethodGet,
		path:     "/payment/cancel",
		query:    url.Values{"orderId": {orderID}},
		token:    token,
	})
	if err != nil {
		return "", err
	}
	return plainText(body), nil
}

// IsAlreadyProcessed reports whether a confirmation body marks a replay,
// either through a structured `"status": "ALREADY_PROCESSED"` field or one of
// the configured marker substrings.
func (c *Client) IsAlreadyProcessed(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '{' {
		var structured struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(trimmed, &structured); err == nil &&
			strings.EqualFold(strings.TrimSpace(structured.Status), alreadyProcessedStatus) {
			return true
		}
	}
	for _, marker := range c.markers {
		if bytes.Contains(trimmed, []byte(marker)) {
			return true
		}
	}
	return false
}

// plainText unwraps a JSON string body or a `{"message": ...}` object and
// otherwise returns the trimmed text.
func plainText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return strings.TrimSpace(s)
		}
	case '{':
		var obj struct {
			Message     string `json:"message"`
			RedirectURL string `json:"redirectUrl"`
			ApprovalURL string `json:"approvalUrl"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			for _, candidate := range []string{obj.RedirectURL, obj.ApprovalURL, obj.Message} {
				if strings.TrimSpace(candidate) != "" {
					return strings.TrimSpace(candidate)
				}
			}
		}
	}
	return string(trimmed)
}
