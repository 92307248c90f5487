package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// TerrainResult carries the analysis-specific payload of a terrain endpoint.
// The gateway treats it as opaque beyond the statistics block.
type TerrainResult struct {
	Operation  string          `json:"operation"`
	Raster     json.RawMessage `json:"raster,omitempty"`
	Features   json.RawMessage `json:"features,omitempty"`
	Statistics map[string]any  `json:"statistics,omitempty"`
}

// PourPoint seeds a watershed computation; the gateway only collects it.
type PourPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func (c *Client) Slope(ctx context.Context, datasetID string) (*TerrainResult, error) {
	return c.terrainOp(ctx, datasetID, "slope", struct{}{})
}

func (c *Client) Aspect(ctx context.Context, datasetID string) (*TerrainResult, error) {
	return c.terrainOp(ctx, datasetID, "aspect", struct{}{})
}

// Hillshade renders shaded relief for the given sun position, degrees.
func (c *Client) Hillshade(ctx context.Context, datasetID string, azimuth, altitude float64) (*TerrainResult, error) {
	body := struct {
		Azimuth  float64 `json:"azimuth"`
		Altitude float64 `json:"altitude"`
	}{azimuth, altitude}
	return c.terrainOp(ctx, datasetID, "hillshade", body)
}

// Contours generates contour lines at the given elevation interval.
func (c *Client) Contours(ctx context.Context, datasetID string, interval float64) (*TerrainResult, error) {
	body := struct {
		Interval float64 `json:"interval"`
	}{interval}
	return c.terrainOp(ctx, datasetID, "contours", body)
}

// Watershed delineates the drainage basin upstream of the pour point.
func (c *Client) Watershed(ctx context.Context, datasetID string, pour PourPoint) (*TerrainResult, error) {
	body := struct {
		PourPoint PourPoint `json:"pourPoint"`
	}{pour}
	return c.terrainOp(ctx, datasetID, "watershed", body)
}

func (c *Client) terrainOp(ctx context.Context, datasetID, op string, body any) (*TerrainResult, error) {
	var out TerrainResult
	if err := c.do(ctx, http.MethodPost, "/api/datasets/"+datasetID+"/terrain/"+op, body, &out); err != nil {
		return nil, err
	}
	if out.Operation == "" {
		out.Operation = op
	}
	return &out, nil
}
