package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
)

// DefaultBaseURL is the hosted students API.
const DefaultBaseURL = "https://mate.academy/students-api"

// RequestIDHeader correlates client and server log lines.
const RequestIDHeader = "X-Request-Id"

// Client is the HTTP implementation of Collection.
type Client struct {
	base    *url.URL
	userID  int
	http    *http.Client
	logger  *log.Logger
	schemas *schemas
}

var _ Collection = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport (tests use httptest servers).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithLogger routes request logs to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client for the collection owned by userID.
func NewClient(baseURL string, userID int, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http(s): %q", baseURL)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("user id must be positive, got %d", userID)
	}
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	c := &Client{
		base:    u,
		userID:  userID,
		http:    &http.Client{},
		logger:  log.New(io.Discard),
		schemas: s,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// UserID is the fixed owner id of this client.
func (c *Client) UserID() int { return c.userID }

func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	q := url.Values{"userId": {strconv.Itoa(c.userID)}}
	body, err := c.do(ctx, "list", 0, http.MethodGet, "/todos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if err := validate(c.schemas.list, body); err != nil {
		return nil, &NetworkError{Op: "list", Err: err}
	}
	var items []model.Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &NetworkError{Op: "list", Err: fmt.Errorf("json unmarshal: %w", err)}
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

type createRequest struct {
	Title     string `json:"title"`
	UserID    int    `json:"userId"`
	Completed bool   `json:"completed"`
}

func (c *Client) Create(ctx context.Context, title string) (model.Item, error) {
	return c.itemCall(ctx, "create", 0, http.MethodPost, "/todos",
		createRequest{Title: title, UserID: c.userID, Completed: false})
}

func (c *Client) Update(ctx context.Context, id int, patch model.Patch) (model.Item, error) {
	return c.itemCall(ctx, "update", id, http.MethodPatch, "/todos/"+strconv.Itoa(id), patch)
}

func (c *Client) Delete(ctx context.Context, id int) error {
	_, err := c.do(ctx, "delete", id, http.MethodDelete, "/todos/"+strconv.Itoa(id), nil)
	return err
}

func (c *Client) itemCall(ctx context.Context, op string, id int, method, path string, payload any) (model.Item, error) {
	body, err := c.do(ctx, op, id, method, path, payload)
	if err != nil {
		return model.Item{}, err
	}
	if err := validate(c.schemas.item, body); err != nil {
		return model.Item{}, &NetworkError{Op: op, ID: id, Err: err}
	}
	var it model.Item
	if err := json.Unmarshal(body, &it); err != nil {
		return model.Item{}, &NetworkError{Op: op, ID: id, Err: fmt.Errorf("json unmarshal: %w", err)}
	}
	return it, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op string, id int, method, path string, payload any) ([]byte, error) {
	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &NetworkError{Op: op, ID: id, Err: fmt.Errorf("json marshal: %w", err)}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rdr)
	if err != nil {
		return nil, &NetworkError{Op: op, ID: id, Err: err}
	}
	rid := uuid.NewString()
	req.Header.Set(RequestIDHeader, rid)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "method", method, "path", path, "request_id", rid, "err", err)
		return nil, &NetworkError{Op: op, ID: id, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.logger.Debug("request", "op", op, "method", method, "path", path,
		"status", resp.StatusCode, "request_id", rid, "elapsed", time.Since(start))
	if err != nil {
		return nil, &NetworkError{Op: op, ID: id, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Op: op, ID: id, Status: resp.StatusCode, Err: serverMessage(body)}
	}
	return body, nil
}

// serverMessage extracts {"error": "..."} bodies, if any.
func serverMessage(body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return errors.New(e.Error)
	}
	return nil
}
