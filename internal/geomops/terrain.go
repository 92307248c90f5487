package geomops

import (
	"context"
	"errors"
	"fmt"

	"github.com/mapdesk/geoquery/internal/backend"
)

// TerrainOp names one raster terrain operation.
type TerrainOp string

const (
	TerrainSlope     TerrainOp = "slope"
	TerrainAspect    TerrainOp = "aspect"
	TerrainHillshade TerrainOp = "hillshade"
	TerrainContours  TerrainOp = "contours"
	TerrainWatershed TerrainOp = "watershed"
)

func ParseTerrainOp(s string) (TerrainOp, error) {
	switch TerrainOp(s) {
	case TerrainSlope, TerrainAspect, TerrainHillshade, TerrainContours, TerrainWatershed:
		return TerrainOp(s), nil
	}
	return "", fmt.Errorf("unknown terrain operation %q", s)
}

// TerrainParams carries the per-operation terrain inputs.
type TerrainParams struct {
	Azimuth   float64            `json:"azimuth,omitempty"`
	Altitude  float64            `json:"altitude,omitempty"`
	Interval  float64            `json:"interval,omitempty"`
	PourPoint *backend.PourPoint `json:"pourPoint,omitempty"`
}

func (p TerrainParams) Validate(op TerrainOp) error {
	switch op {
	case TerrainHillshade:
		if p.Azimuth < 0 || p.Azimuth > 360 {
			return errors.New("hillshade azimuth must be between 0 and 360 degrees")
		}
		if p.Altitude < 0 || p.Altitude > 90 {
			return errors.New("hillshade altitude must be between 0 and 90 degrees")
		}
	case TerrainContours:
		if p.Interval <= 0 {
			return errors.New("contour interval must be greater than zero")
		}
	case TerrainWatershed:
		if p.PourPoint == nil {
			return errors.New("watershed requires a pour point")
		}
	case TerrainSlope, TerrainAspect:
	default:
		return fmt.Errorf("unknown terrain operation %q", op)
	}
	return nil
}

// Terrain is the slice of the backend client terrain runs depend on.
type Terrain interface {
	Slope(ctx context.Context, datasetID string) (*backend.TerrainResult, error)
	Aspect(ctx context.Context, datasetID string) (*backend.TerrainResult, error)
	Hillshade(ctx context.Context, datasetID string, azimuth, altitude float64) (*backend.TerrainResult, error)
	Contours(ctx context.Context, datasetID string, interval float64) (*backend.TerrainResult, error)
	Watershed(ctx context.Context, datasetID string, pour backend.PourPoint) (*backend.TerrainResult, error)
}

// RunTerrain validates and executes one terrain operation. Terrain output
// is raster-oriented and is returned to the caller instead of being kept as
// an overlay layer.
func RunTerrain(ctx context.Context, t Terrain, datasetID string, op TerrainOp, params TerrainParams) (*backend.TerrainResult, error) {
	if err := params.Validate(op); err != nil {
		return nil, err
	}
	var (
		out *backend.TerrainResult
		err error
	)
	switch op {
	case TerrainSlope:
		out, err = t.Slope(ctx, datasetID)
	case TerrainAspect:
		out, err = t.Aspect(ctx, datasetID)
	case TerrainHillshade:
		out, err = t.Hillshade(ctx, datasetID, params.Azimuth, params.Altitude)
	case TerrainContours:
		out, err = t.Contours(ctx, datasetID, params.Interval)
	case TerrainWatershed:
		out, err = t.Watershed(ctx, datasetID, *params.PourPoint)
	}
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", op, datasetID, err)
	}
	return out, nil
}
