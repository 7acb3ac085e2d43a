package cloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// HTTPClient talks to the remote mirror over its REST surface. Every response
// body is the `{"error": "..."}` shape; a non-empty error or a non-2xx status
// is surfaced as a plain error so the push adapters treat it as "not sent".
type HTTPClient struct {
	baseURL string
	tokens  TokenSource
	monitor *Monitor
	httpDo  *http.Client
}

// TokenSource returns the raw bearer token for the current account, or the
// empty string when signed out.
type TokenSource interface {
	Token() (string, error)
}

// NewHTTPClient builds a client for the given endpoint. monitor may be nil;
// when present it is flipped offline on transport errors and back online on
// any completed request.
func NewHTTPClient(baseURL string, tokens TokenSource, monitor *Monitor) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		tokens:  tokens,
		monitor: monitor,
		httpDo:  &http.Client{Timeout: 30 * time.Second},
	}
}

type remoteResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) UpsertBook(ctx context.Context, ownerID string, book *models.Book) error {
	return c.do(ctx, http.MethodPut, c.entityURL(ownerID, "books", book.ID), book, nil)
}

func (c *HTTPClient) DeleteBook(ctx context.Context, ownerID, bookID string) error {
	return c.do(ctx, http.MethodDelete, c.entityURL(ownerID, "books", bookID), nil, nil)
}

func (c *HTTPClient) UpsertSession(ctx context.Context, ownerID string, session *models.Session) error {
	return c.do(ctx, http.MethodPut, c.entityURL(ownerID, "sessions", session.ID), session, nil)
}

func (c *HTTPClient) UpsertProgress(ctx context.Context, ownerID string, progress *models.UserProgress) error {
	return c.do(ctx, http.MethodPut, c.collectionURL(ownerID, "progress"), progress, nil)
}

func (c *HTTPClient) FetchBooks(ctx context.Context, ownerID string) ([]*models.Book, error) {
	books := []*models.Book{}
	err := c.do(ctx, http.MethodGet, c.collectionURL(ownerID, "books"), nil, &books)
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (c *HTTPClient) FetchSessions(ctx context.Context, ownerID string) ([]*models.Session, error) {
	sessions := []*models.Session{}
	err := c.do(ctx, http.MethodGet, c.collectionURL(ownerID, "sessions"), nil, &sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) FetchProgress(ctx context.Context, ownerID string) (*models.UserProgress, error) {
	progress := &models.UserProgress{}
	err := c.do(ctx, http.MethodGet, c.collectionURL(ownerID, "progress"), nil, progress)
	if err != nil {
		var nf *notFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return progress, nil
}

func (c *HTTPClient) collectionURL(ownerID, collection string) string {
	return fmt.Sprintf("%s/v1/%s/%s", c.baseURL, url.PathEscape(ownerID), collection)
}

func (c *HTTPClient) entityURL(ownerID, collection, id string) string {
	return fmt.Sprintf("%s/%s", c.collectionURL(ownerID, collection), url.PathEscape(id))
}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

func (c *HTTPClient) do(ctx context.Context, method, rawURL string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WithStack(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return errors.WithStack(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return errors.Wrap(err, "failed to read cloud token")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpDo.Do(req)
	if err != nil {
		if c.monitor != nil {
			c.monitor.Set(false)
		}
		return errors.Wrap(err, "remote request failed")
	}
	defer resp.Body.Close()

	// The request completed, so the device is reachable even if the remote
	// rejected it.
	if c.monitor != nil {
		c.monitor.Set(true)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &notFoundError{}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return errors.WithStack(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remote := remoteResponse{}
		if err := json.Unmarshal(data, &remote); err == nil && remote.Error != "" {
			return errors.Errorf("remote error: %s", remote.Error)
		}
		return errors.Errorf("remote error: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "failed to decode remote response")
		}
	}

	return nil
}
