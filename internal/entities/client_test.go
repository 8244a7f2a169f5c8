// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package entities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/morganforge/finchat-tui/internal/store"
)

func TestFetchBusinessEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/business-entities" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"assets":[{"id":1,"name":"Asset One"}],"funds":[{"id":"f-1","name":"Fund Alpha"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	got, err := c.FetchBusinessEntities(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got.Assets) != 1 || got.Assets[0].ID != "1" || got.Assets[0].Name != "Asset One" {
		t.Errorf("assets = %+v", got.Assets)
	}
	if len(got.Funds) != 1 || got.Funds[0].ID != "f-1" {
		t.Errorf("funds = %+v", got.Funds)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"assets":[],"funds":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchBusinessEntities(context.Background()); err != nil {
		t.Fatalf("fetch after retries: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchBusinessEntities(context.Background()); !errors.Is(err, ErrServerError) {
		t.Errorf("error = %v, want ErrServerError", err)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchBusinessEntities(context.Background()); !errors.Is(err, ErrBadStatus) {
		t.Errorf("error = %v, want ErrBadStatus", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTransformChartUnwrapsNestedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/charts/transform" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req ChartTransformRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.ChartType != "bar" || req.XAxis != "quarter" {
			t.Errorf("request = %+v", req)
		}
		// chart_payload is JSON encoded inside a JSON string.
		w.Write([]byte(`{"chart_payload":"{\"series\":[{\"name\":\"rev\"}]}"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	payload, err := c.TransformChart(context.Background(), ChartTransformRequest{
		ChartType: "bar",
		XAxis:     "quarter",
		YAxes:     []string{"revenue"},
		RawResult: json.RawMessage(`{"rows":[]}`),
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if string(payload) != `{"series":[{"name":"rev"}]}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestTransformChartRejectsBadNestedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart_payload":"{broken"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.TransformChart(context.Background(), ChartTransformRequest{ChartType: "bar"}); !errors.Is(err, ErrBadPayload) {
		t.Errorf("error = %v, want ErrBadPayload", err)
	}
}

func TestLoadPublishesToStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets":[{"id":"a1","name":"Asset One"}],"funds":[]}`))
	}))
	defer srv.Close()

	st := store.New()
	Load(context.Background(), NewClient(srv.URL), st)

	if st.EntitiesError() != "" {
		t.Fatalf("error = %q", st.EntitiesError())
	}
	if got := st.BusinessEntities("assets"); len(got) != 1 || got[0].Name != "Asset One" {
		t.Errorf("assets = %+v", got)
	}
}

func TestLoadSurfacesErrorToStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	st := store.New()
	Load(context.Background(), NewClient(srv.URL), st)

	if st.EntitiesError() == "" {
		t.Error("load failure should surface an error string")
	}
	if st.EntitiesLoading() {
		t.Error("loading flag should clear on failure")
	}
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "two suggestions", in: `[{"chart_type":"bar","x_axis":"q","y_axes":["rev"]},{"chart_type":"line"}]`, want: 2},
		{name: "empty payload", in: ""},
		{name: "malformed json", in: `[{"chart_type":`},
		{name: "wrong shape", in: `{"chart_type":"bar"}`},
		{name: "empty list", in: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSuggestions(json.RawMessage(tt.in))
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d (%v)", len(got), tt.want, got)
			}
		})
	}

	got := ParseSuggestions(json.RawMessage(`[{"chart_type":"bar","x_axis":"q","y_axes":["rev","cost"]}]`))
	if got[0].ChartType != "bar" || got[0].XAxis != "q" || len(got[0].YAxes) != 2 {
		t.Errorf("suggestion = %+v", got[0])
	}
}
