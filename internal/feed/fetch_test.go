package feed_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"kandycal/internal/feed"
	"kandycal/internal/model"
)

type mockClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
	calls  int
}

func (mc *mockClient) Do(req *http.Request) (*http.Response, error) {
	mc.calls++
	if mc.DoFunc == nil {
		return nil, errors.New("no DoFunc configured")
	}
	return mc.DoFunc(req)
}

func csvResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestLoader_Load(t *testing.T) {
	const validCSV = "Date,Event Name,Type\n" +
		"2024-03-05,Perahera,Daily\n" +
		"3/10/2024,Market,Monthly\n"

	tests := []struct {
		name    string
		sheetID string
		gid     string
		doFunc  func(req *http.Request) (*http.Response, error)
		want    []model.Event
		wantErr error
	}{
		{
			name:    "success",
			sheetID: "sheet-1",
			gid:     "0",
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return csvResponse(http.StatusOK, validCSV), nil
			},
			want: []model.Event{
				{Date: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), Name: "Perahera", Type: model.TypeDaily},
				{Date: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), Name: "Market", Type: model.TypeMonthly},
			},
		},
		{
			name:    "missing sheet ID is a configuration error",
			sheetID: "",
			wantErr: feed.ErrConfiguration,
		},
		{
			name:    "non-success status is a network error",
			sheetID: "sheet-1",
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return csvResponse(http.StatusForbidden, ""), nil
			},
			wantErr: feed.ErrNetwork,
		},
		{
			name:    "transport failure is a network error",
			sheetID: "sheet-1",
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			wantErr: feed.ErrNetwork,
		},
		{
			name:    "unreadable table is a parse error",
			sheetID: "sheet-1",
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return csvResponse(http.StatusOK, "Date,Event Name\n2024-03-05,\"broken\n"), nil
			},
			wantErr: feed.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := &mockClient{DoFunc: tt.doFunc}
			loader := feed.NewLoader(feed.WithHTTPClient(mc))

			got, err := loader.Load(context.Background(), tt.sheetID, tt.gid)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Errorf("Load() = %v, want nil on error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Load() returned %d events, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Load()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoader_Load_NoRequestWithoutSheetID(t *testing.T) {
	mc := &mockClient{DoFunc: func(_ *http.Request) (*http.Response, error) {
		return csvResponse(http.StatusOK, "Date,Event Name\n"), nil
	}}
	loader := feed.NewLoader(feed.WithHTTPClient(mc))

	_, err := loader.Load(context.Background(), "", "0")
	if !errors.Is(err, feed.ErrConfiguration) {
		t.Fatalf("Load() error = %v, want ErrConfiguration", err)
	}
	if mc.calls != 0 {
		t.Errorf("Load() performed %d requests, want 0", mc.calls)
	}
}

func TestLoader_Load_RequestURL(t *testing.T) {
	var gotURL string
	mc := &mockClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return csvResponse(http.StatusOK, "Date,Event Name\n"), nil
	}}
	loader := feed.NewLoader(feed.WithHTTPClient(mc))

	if _, err := loader.Load(context.Background(), "sheet-xyz", ""); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := "https://docs.google.com/spreadsheets/d/sheet-xyz/export?format=csv&gid=0"
	if gotURL != want {
		t.Errorf("Load() requested %q, want %q", gotURL, want)
	}
}
