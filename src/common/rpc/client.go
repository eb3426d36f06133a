package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	resty "gopkg.in/resty.v1"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

var ErrNotFound = errors.New("query not found")

// Error is a non-2xx answer from the board API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("board api returned %d", e.Status)
	}
	return fmt.Sprintf("board api returned %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client calls the named board queries over HTTP.
type Client struct {
	http *resty.Client
	base string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		base: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.base + "/rspc/" + strings.Join(escaped, "/")
}

func check(resp *resty.Response) error {
	if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		return nil
	}
	apiErr := &Error{Status: resp.StatusCode()}
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	return apiErr
}

// Journey runs the named query.
func (c *Client) Journey(ctx context.Context, name string) (types.Journey, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.endpoint(name))
	if err != nil {
		return types.Journey{}, fmt.Errorf("failed to query %s: %w", name, err)
	}
	if err := check(resp); err != nil {
		return types.Journey{}, err
	}

	var journey types.Journey
	if err := json.Unmarshal(resp.Body(), &journey); err != nil {
		return types.Journey{}, fmt.Errorf("failed to decode %s journey: %w", name, err)
	}
	return journey, nil
}

// FetchJourney lets the client back a query.Client.
func (c *Client) FetchJourney(ctx context.Context, name string) (types.Journey, error) {
	return c.Journey(ctx, name)
}

// Invalidate drops the server's cached answer to the named query.
func (c *Client) Invalidate(ctx context.Context, name string) error {
	resp, err := c.http.R().SetContext(ctx).Post(c.endpoint(name, "invalidate"))
	if err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", name, err)
	}
	return check(resp)
}
