package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"kandycal/internal/model"

	appLog "kandycal/internal/log"
)

const (
	// defaultBaseURL is the Google Sheets CSV export endpoint. The sheet
	// must be published or link-shared for the export URL to resolve.
	defaultBaseURL = "https://docs.google.com/spreadsheets/d"

	// DefaultGID selects the first sub-sheet when none is given.
	DefaultGID = "0"
)

// HTTPClient is the transport the loader fetches through. *http.Client
// satisfies it; tests substitute a mock.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader fetches the events feed as CSV and converts it into Events.
type Loader struct {
	client  HTTPClient
	baseURL string
}

// Option configures a Loader.
type Option func(*Loader)

// WithBaseURL replaces the export endpoint, mainly for tests pointed at
// an httptest server.
func WithBaseURL(base string) Option {
	return func(l *Loader) {
		l.baseURL = base
	}
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(c HTTPClient) Option {
	return func(l *Loader) {
		l.client = c
	}
}

// NewLoader creates a feed Loader with a 15 second request timeout.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the sub-sheet gid of the sheet sheetID and returns the
// validated events in source row order.
//
// The call never partially resolves: either the whole sequence of valid
// rows is returned, or a single error wrapping ErrConfiguration,
// ErrNetwork or ErrParse. Individual malformed rows are dropped inside
// ParseEvents and do not fail the load.
func (l *Loader) Load(ctx context.Context, sheetID, gid string) ([]model.Event, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("%w: sheet ID is required", ErrConfiguration)
	}
	if gid == "" {
		gid = DefaultGID
	}

	exportURL := fmt.Sprintf("%s/%s/export?format=csv&gid=%s",
		l.baseURL, url.PathEscape(sheetID), url.QueryEscape(gid))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	appLog.Info("feed fetch start", "sheet_id", sheetID, "gid", gid)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrNetwork, resp.Status)
	}

	events, err := ParseEvents(resp.Body)
	if err != nil {
		return nil, err
	}

	appLog.Info("feed fetch completed", "sheet_id", sheetID, "gid", gid, "event_count", len(events))
	return events, nil
}
