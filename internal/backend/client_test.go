package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mapdesk/geoquery/internal/core/model"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(slog.New(slog.DiscardHandler), srv.Client(), srv.URL, "tok-123")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestAttributeQuery_PayloadMirrorsCriteria(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"count":2,"features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[77.2,28.6]},"properties":{"population":32941000}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[72.8,19.1]},"properties":{"population":21297000}}
		]}}`))
	})

	criteria := model.AttributeCriteria{
		Logic: model.LogicAnd,
		Conditions: []model.Condition{{
			Field:    "population",
			Operator: model.OpGreaterThan,
			Value:    "1000000",
			DataType: model.TypeNumber,
		}},
	}
	res, err := c.AttributeQuery(context.Background(), "ds1", criteria)
	if err != nil {
		t.Fatalf("AttributeQuery: %v", err)
	}

	if gotPath != "/api/datasets/ds1/query/advanced-attribute" {
		t.Errorf("path=%q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth=%q", gotAuth)
	}

	want := `{"criteria":{"logic":"AND","conditions":[{"field":"population","operator":"greater_than","value":"1000000","dataType":"number"}]}}`
	var a, b any
	if err := json.Unmarshal(gotBody, &a); err != nil {
		t.Fatalf("request body: %v", err)
	}
	_ = json.Unmarshal([]byte(want), &b)
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	if string(ab) != string(bb) {
		t.Errorf("body=%s want %s", gotBody, want)
	}

	if res.Count != 2 || len(res.Features) != 2 {
		t.Fatalf("count=%d features=%d want 2/2", res.Count, len(res.Features))
	}
}

func TestSpatialQuery_SendsNullVariants(t *testing.T) {
	var gotBody []byte
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"success":true,"data":{"count":0,"features":[]}}`))
	})

	_, err := c.SpatialQuery(context.Background(), "ds1", model.SpatialCriteria{
		Bounds: &model.BBox{MinX: 76, MinY: 28, MaxX: 78, MaxY: 29},
	})
	if err != nil {
		t.Fatalf("SpatialQuery: %v", err)
	}
	var payload struct {
		SpatialCriteria map[string]json.RawMessage `json:"spatialCriteria"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("body: %v", err)
	}
	for _, k := range []string{"bounds", "buffer", "polygon"} {
		if _, ok := payload.SpatialCriteria[k]; !ok {
			t.Errorf("spatialCriteria missing %q (nulls must be explicit)", k)
		}
	}
	if string(payload.SpatialCriteria["buffer"]) != "null" {
		t.Errorf("buffer=%s want null", payload.SpatialCriteria["buffer"])
	}
}

func TestDo_Non2xxBecomesAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid regex in condition 0"}`))
	})
	_, err := c.AttributeQuery(context.Background(), "ds1", model.AttributeCriteria{Logic: model.LogicAnd})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err=%v want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status=%d", apiErr.Status)
	}
	if apiErr.Message != "invalid regex in condition 0" {
		t.Errorf("message=%q", apiErr.Message)
	}
}

func TestDo_SuccessFalseBecomesAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"dataset not found"}`))
	})
	_, err := c.ListDatasets(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err=%v want *APIError", err)
	}
	if apiErr.Message != "dataset not found" {
		t.Errorf("message=%q", apiErr.Message)
	}
}

func TestDatasetFields(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/datasets/ds9/fields" {
			t.Errorf("path=%q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"fields":[{"name":"population","type":"number"},{"name":"name","type":"string"}]}}`))
	})
	fields, err := c.DatasetFields(context.Background(), "ds9")
	if err != nil {
		t.Fatalf("DatasetFields: %v", err)
	}
	if len(fields) != 2 || fields[0].Type != model.TypeNumber || fields[1].Name != "name" {
		t.Fatalf("fields=%+v", fields)
	}
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	if _, err := New(slog.New(slog.DiscardHandler), http.DefaultClient, "backend:3000", ""); err == nil {
		t.Fatal("want error for non-absolute base url")
	}
}

func TestRouteLabel(t *testing.T) {
	got := routeLabel(http.MethodPost, "/api/datasets/abc123/query/spatial")
	want := "POST /api/datasets/{id}/query/spatial"
	if got != want {
		t.Fatalf("routeLabel=%q want %q", got, want)
	}
}
