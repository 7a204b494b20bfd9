// Package remote fetches tasks from an HTTP source and merges them into a
// task store at most once per successful session.
package remote

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasklist/internal/utils"
)

// DefaultURL is the demo endpoint the task list was first built against.
const DefaultURL = "https://my-json-server.typicode.com/typicode/demo/posts"

// maxBodySize caps how much of a response is read.
const maxBodySize = 8 << 20

//go:embed items.schema.json
var itemsSchemaJSON string

var itemsSchema = jsonschema.MustCompileString("items.schema.json", itemsSchemaJSON)

// Item is one task as the remote source describes it. Fields other than id
// and title are ignored.
type Item struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Source returns a batch of remote items.
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// FetchError reports a failed or unparseable fetch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPSource GETs a JSON array of items from URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns a source for url. A zero timeout leaves the
// transport defaults in place.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if url == "" {
		url = DefaultURL
	}
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// Fetch issues the GET and decodes the batch.
func (h *HTTPSource) Fetch(ctx context.Context) ([]Item, error) {
	items, err := h.fetch(ctx)
	if err != nil {
		return nil, &FetchError{URL: h.URL, Err: err}
	}
	return items, nil
}

func (h *HTTPSource) fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return DecodeItems(body)
}

// DecodeItems parses and validates a remote batch.
func DecodeItems(data []byte) ([]Item, error) {
	if err := utils.ValidateJSON(itemsSchema, data); err != nil {
		var se *utils.SchemaError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("invalid response: %s", se.Msg)
		}
		return nil, fmt.Errorf("parse response: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return items, nil
}
