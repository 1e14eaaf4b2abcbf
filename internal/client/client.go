// Package client is the REST data source. Every call attaches the session's
// bearer token and normalizes failures into apperr kinds.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/backend"
	"github.com/kidandcat/bugracer/internal/logger"
	"github.com/kidandcat/bugracer/internal/model"
)

const DefaultTimeout = 20 * time.Second

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the transport, e.g. with an httptest client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLayout(l Layout) Option {
	return func(c *Client) { c.layout = l }
}

// WithTokenSource sets the func consulted for the bearer token on every call.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

type Client struct {
	httpClient *http.Client
	server     string
	layout     Layout
	token      func() string
}

var _ backend.Source = (*Client)(nil)

func New(server string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		server:     strings.TrimRight(server, "/"),
		token:      func() string { return "" },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Bugs() backend.Bugs {
	return &Resource[model.Bug, model.BugInput, model.BugPatch]{c: c, name: "bugs"}
}

func (c *Client) Projects() backend.Projects {
	return &Resource[model.Project, model.ProjectInput, model.ProjectPatch]{c: c, name: "projects"}
}

func (c *Client) Users() backend.Users {
	return &Resource[model.User, model.UserInput, model.UserPatch]{c: c, name: "users", fill: fillAvatar}
}

func (c *Client) Activities() backend.ActivityLog {
	return activityLog{c}
}

type activityLog struct{ c *Client }

func (a activityLog) List(ctx context.Context, f model.Filter) ([]model.Activity, error) {
	var out []model.Activity
	if err := a.c.do(ctx, "activities.list", a.c.layout.list("activities", f), nil, &out, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// envelope mirrors model.Envelope with the payload left undecoded.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// do sends one request. An explicit token overrides the token source.
func (c *Client) do(ctx context.Context, op string, rt route, in, out any, token string) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return apperr.Wrap(apperr.Unknown, op, err)
		}
		body = buf
	}

	u := c.server + "/" + strings.TrimLeft(rt.path, "/")
	if len(rt.query) > 0 {
		u += "?" + rt.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, rt.method, u, body)
	if err != nil {
		return apperr.Wrap(apperr.Unknown, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token == "" {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debugf("%s %s: %v", rt.method, u, err)
		return apperr.Wrap(apperr.Network, op, transportError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(apperr.Network, op, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(payload, &env)

	if resp.StatusCode >= 400 {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(payload))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &apperr.Error{Kind: StatusKind(resp.StatusCode), Op: op, Status: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if decodeErr != nil {
		return &apperr.Error{Kind: apperr.Server, Op: op, Status: resp.StatusCode, Message: "malformed response", Err: decodeErr}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return &apperr.Error{Kind: apperr.Server, Op: op, Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &apperr.Error{Kind: apperr.Server, Op: op, Status: resp.StatusCode, Message: "malformed response data", Err: err}
	}
	return nil
}

// StatusKind maps an HTTP error status to an error kind. Other 4xx and
// 5xx codes are server errors; anything below 400 is unknown.
func StatusKind(code int) apperr.Kind {
	switch {
	case code == http.StatusBadRequest, code == http.StatusConflict, code == http.StatusUnprocessableEntity:
		return apperr.Validation
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return apperr.Unauthorized
	case code == http.StatusNotFound:
		return apperr.NotFound
	case code >= 400:
		return apperr.Server
	}
	return apperr.Unknown
}

// transportError unwraps url.Error so the message reads as the cause.
func transportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return fmt.Errorf("request timed out: %w", uerr.Err)
		}
		return uerr.Err
	}
	return err
}
