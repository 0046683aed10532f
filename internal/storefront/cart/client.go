package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jcmexdev/storefront-preorders/internal/pkg/requestctx"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/wire"
)

// NetworkError means the request never got a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "Network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means the server answered but did not place the order.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Server error placing order (status %d)", e.Status)
	}
	return fmt.Sprintf("Server error placing order (status %d): %s", e.Status, e.Message)
}

// UserMessage is the short text shown to a customer for a checkout outcome.
func UserMessage(order wire.Order, err error) string {
	var netErr *NetworkError
	var srvErr *ServerError
	switch {
	case err == nil:
		return "Pre-order placed! Order ID: " + order.ID
	case errors.Is(err, ErrNameRequired):
		return "Please enter name"
	case errors.Is(err, ErrEmptyCart):
		return "Cart empty"
	case errors.As(err, &netErr):
		return "Network error"
	case errors.As(err, &srvErr):
		return "Server error placing order"
	default:
		return err.Error()
	}
}

// ToastMessage is the text shown when another customer's order arrives.
func ToastMessage(order wire.Order) string {
	return "New order received: " + order.ID
}

var _ Submitter = (*Client)(nil)

// Client talks to a storefront server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	dialer     *websocket.Dialer
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("cart: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("cart: base url must be http or https, got %q", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		dialer:     websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit posts the order. An empty idempotencyKey sends none.
func (c *Client) Submit(ctx context.Context, req wire.PlaceOrderRequest, idempotencyKey string) (wire.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return wire.Order{}, fmt.Errorf("cart: encode order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+"/orders", bytes.NewReader(body))
	if err != nil {
		return wire.Order{}, fmt.Errorf("cart: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set(requestctx.HeaderXIdempotencyKey, idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return wire.Order{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return wire.Order{}, &NetworkError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var e wire.ErrorResponse
		_ = json.Unmarshal(raw, &e)
		return wire.Order{}, &ServerError{Status: resp.StatusCode, Code: e.Error, Message: e.Message}
	}

	var placed wire.PlaceOrderResponse
	if err := json.Unmarshal(raw, &placed); err != nil || !placed.Success {
		return wire.Order{}, &ServerError{Status: resp.StatusCode, Message: "unexpected response body"}
	}
	return placed.Order, nil
}

// Watch streams new-order events to fn until ctx is done or the connection
// drops. It returns nil when ctx ends the stream.
func (c *Client) Watch(ctx context.Context, fn func(wire.Order)) error {
	wsURL := *c.baseURL
	if wsURL.Scheme == "https" {
		wsURL.Scheme = "wss"
	} else {
		wsURL.Scheme = "ws"
	}
	wsURL.Path += "/ws"

	conn, _, err := c.dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &NetworkError{Err: err}
		}
		var ev wire.Event
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Event != wire.EventNewOrder {
			continue
		}
		fn(ev.Data)
	}
}
