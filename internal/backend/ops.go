package backend

import (
	"context"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"github.com/mapdesk/geoquery/internal/core/model"
)

// OperationResult is the payload of every geometry operation endpoint.
type OperationResult struct {
	Count      int                `json:"count"`
	Features   []*geojson.Feature `json:"features"`
	Parameters map[string]any     `json:"parameters,omitempty"`
}

// Buffer creates buffers of distance/unit around the given features.
func (c *Client) Buffer(ctx context.Context, datasetID string, features []*geojson.Feature, distance float64, unit string) (*OperationResult, error) {
	body := struct {
		Features []*geojson.Feature `json:"features,omitempty"`
		Distance float64            `json:"distance"`
		Unit     string             `json:"unit"`
	}{features, distance, unit}
	var out OperationResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/analysis/buffer", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Union merges overlapping features of one dataset.
func (c *Client) Union(ctx context.Context, datasetID string, features []*geojson.Feature) (*OperationResult, error) {
	body := struct {
		Features []*geojson.Feature `json:"features,omitempty"`
	}{features}
	var out OperationResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/analysis/union", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Intersect computes intersections between two datasets.
func (c *Client) Intersect(ctx context.Context, datasetID, otherID string, features []*geojson.Feature) (*OperationResult, error) {
	body := struct {
		Dataset2 string             `json:"dataset2"`
		Features []*geojson.Feature `json:"features,omitempty"`
	}{otherID, features}
	var out OperationResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/analysis/intersect", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clip cuts features to the boundary dataset's extent.
func (c *Client) Clip(ctx context.Context, datasetID, boundaryID string, features []*geojson.Feature) (*OperationResult, error) {
	body := struct {
		BoundaryDataset string             `json:"boundaryDataset"`
		Features        []*geojson.Feature `json:"features,omitempty"`
	}{boundaryID, features}
	var out OperationResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/analysis/clip", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dissolve merges features sharing a value of the given attribute.
func (c *Client) Dissolve(ctx context.Context, datasetID, attribute string, features []*geojson.Feature) (*OperationResult, error) {
	body := struct {
		Attribute string             `json:"attribute"`
		Features  []*geojson.Feature `json:"features,omitempty"`
	}{attribute, features}
	var out OperationResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/analysis/dissolve", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveClipping persists a clip result server-side under a name.
func (c *Client) SaveClipping(ctx context.Context, datasetID, name, description string, features []*geojson.Feature) (*model.Clipping, error) {
	body := struct {
		Name        string             `json:"name"`
		Description string             `json:"description,omitempty"`
		DatasetID   string             `json:"datasetId"`
		Features    []*geojson.Feature `json:"features"`
	}{name, description, datasetID, features}
	var out struct {
		Clipping model.Clipping `json:"clipping"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/clippings", body, &out); err != nil {
		return nil, err
	}
	return &out.Clipping, nil
}

// ListClippings returns the saved clippings.
func (c *Client) ListClippings(ctx context.Context) ([]model.Clipping, error) {
	var out struct {
		Clippings []model.Clipping `json:"clippings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/clippings", nil, &out); err != nil {
		return nil, err
	}
	return out.Clippings, nil
}

// ClippingFeatures fetches the feature payload of one saved clipping.
func (c *Client) ClippingFeatures(ctx context.Context, clippingID string) (*QueryResult, error) {
	var out QueryResult
	if err := c.do(ctx, http.MethodGet, "/api/clippings/"+clippingID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClipping removes a saved clipping.
func (c *Client) DeleteClipping(ctx context.Context, clippingID string) error {
	return c.do(ctx, http.MethodDelete, "/api/clippings/"+clippingID, nil, nil)
}
