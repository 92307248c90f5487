package backend

import (
	"context"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"github.com/mapdesk/geoquery/internal/core/model"
)

// QueryResult is the normalized payload of every query endpoint.
type QueryResult struct {
	Count    int                `json:"count"`
	Features []*geojson.Feature `json:"features"`
}

// AttributeQuery runs the advanced attribute filter for one dataset.
func (c *Client) AttributeQuery(ctx context.Context, datasetID string, criteria model.AttributeCriteria) (*QueryResult, error) {
	body := struct {
		Criteria model.AttributeCriteria `json:"criteria"`
	}{criteria}
	var out QueryResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/query/advanced-attribute", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SpatialQuery runs a spatial filter. Unpopulated criteria variants travel
// as nulls; the backend owns rejecting incomplete input.
func (c *Client) SpatialQuery(ctx context.Context, datasetID string, criteria model.SpatialCriteria) (*QueryResult, error) {
	body := struct {
		SpatialCriteria model.SpatialCriteria `json:"spatialCriteria"`
	}{criteria}
	var out QueryResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/query/spatial", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CombinedQuery sends both sub-criteria unconditionally.
func (c *Client) CombinedQuery(ctx context.Context, datasetID string, criteria model.CombinedCriteria) (*QueryResult, error) {
	body := struct {
		QueryCriteria model.CombinedCriteria `json:"queryCriteria"`
	}{criteria}
	var out QueryResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/query/combined", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DatasetFields lists the declared fields of a dataset; field types drive
// operator selection in the criteria builder.
func (c *Client) DatasetFields(ctx context.Context, datasetID string) ([]model.Field, error) {
	var out struct {
		Fields []model.Field `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/datasets/"+datasetID+"/fields", nil, &out); err != nil {
		return nil, err
	}
	return out.Fields, nil
}

// ListDatasets returns the server's dataset list.
func (c *Client) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	var out struct {
		Datasets []model.Dataset `json:"datasets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/datasets", nil, &out); err != nil {
		return nil, err
	}
	return out.Datasets, nil
}

// UpdateDataset applies a partial update (name, style) server-side.
func (c *Client) UpdateDataset(ctx context.Context, datasetID string, patch map[string]any) error {
	return c.do(ctx, http.MethodPut, "/api/datasets/"+datasetID, patch, nil)
}

// DeleteDataset removes a dataset server-side.
func (c *Client) DeleteDataset(ctx context.Context, datasetID string) error {
	return c.do(ctx, http.MethodDelete, "/api/datasets/"+datasetID, nil, nil)
}
