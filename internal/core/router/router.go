// Package router exposes the workspace over HTTP.
package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mapdesk/geoquery/internal/backend"
	"github.com/mapdesk/geoquery/internal/core/model"
	"github.com/mapdesk/geoquery/internal/export"
	"github.com/mapdesk/geoquery/internal/geomops"
	"github.com/mapdesk/geoquery/internal/health"
	"github.com/mapdesk/geoquery/internal/interaction"
	"github.com/mapdesk/geoquery/internal/metrics"
	imw "github.com/mapdesk/geoquery/internal/middleware"
	"github.com/mapdesk/geoquery/internal/query"
	"github.com/mapdesk/geoquery/internal/workspace"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondErr(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: err.Error()})
}

// statusFor maps workspace errors to HTTP statuses, forwarding the
// backend's own status when one is attached.
func statusFor(err error) int {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.Is(err, query.ErrNoDataset),
		errors.Is(err, query.ErrNoConditions):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func decode(r *http.Request, into any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(into)
}

// New builds the gateway router.
func New(log *slog.Logger, ws *workspace.Workspace, prov *metrics.Provider) chi.Router {
	r := chi.NewRouter()
	r.Use(imw.Recover(log))
	r.Use(imw.RequestID())
	r.Use(imw.Logging(log))
	r.Use(imw.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ws))
	r.Get(prov.Path(), prov.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/criteria", func(r chi.Router) {
			r.Get("/", getCriteria(ws))
			r.Delete("/", clearCriteria(ws))
			r.Put("/mode", putMode(ws))
			r.Put("/logic", putLogic(ws))
			r.Put("/bounds", putBounds(ws))
			r.Put("/buffer", putBuffer(ws))
			r.Put("/polygon", putPolygon(ws))
			r.Post("/conditions", addCondition(ws))
			r.Put("/conditions/{index}", updateCondition(ws))
			r.Delete("/conditions/{index}", removeCondition(ws))
		})

		r.Post("/query", runQuery(ws))
		r.Get("/query/result", getResult(ws))
		r.Get("/query/export", exportResult(log, ws))
		r.Delete("/query", clearResult(ws))

		r.Put("/highlight", putHighlight(ws))
		r.Get("/overlay", getOverlay(ws))

		r.Get("/operators", getOperators())

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", listDatasets(ws))
			r.Post("/refresh", refreshDatasets(ws))
			r.Put("/active", putActiveDataset(ws))
			r.Get("/{id}/fields", getFields(ws))
			r.Put("/{id}/visibility", putVisibility(ws))
			r.Put("/{id}", updateDataset(ws))
			r.Delete("/{id}", deleteDataset(ws))
		})

		r.Route("/operations", func(r chi.Router) {
			r.Post("/{op}", runOperation(ws))
			r.Get("/results", listOperationResults(ws))
			r.Put("/results/{id}/visibility", putResultVisibility(ws))
			r.Post("/results/{id}/save", saveResult(ws))
			r.Delete("/results/{id}", deleteResult(ws))
		})

		r.Post("/terrain/{op}", runTerrain(ws))

		r.Route("/clippings", func(r chi.Router) {
			r.Get("/", listClippings(ws))
			r.Post("/{id}/load", loadClipping(ws))
			r.Post("/{id}/unload", unloadClipping(ws))
			r.Delete("/{id}", deleteClipping(ws))
		})

		r.Route("/map", func(r chi.Router) {
			r.Get("/mode", getMapMode(ws))
			r.Put("/mode", putMapMode(ws))
			r.Post("/click", mapClick(ws))
			r.Get("/measurement", getMeasurement(ws))
			r.Delete("/measurement", resetMeasurement(ws))
			r.Get("/baselayers", listBaseLayers(ws))
			r.Put("/baselayers/active", putBaseLayer(ws))
		})
	})

	return r
}

func getCriteria(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func clearCriteria(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ws.Builder.Clear()
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func putMode(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Mode string `json:"mode"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		mode, err := model.ParseQueryMode(body.Mode)
		if err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		ws.Builder.SetMode(mode)
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func putLogic(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Logic string `json:"logic"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		logic, err := model.ParseLogic(body.Logic)
		if err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		ws.Builder.SetLogic(logic)
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func putBounds(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Bounds *model.BBox `json:"bounds"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if err := ws.Builder.SetBounds(body.Bounds); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func putBuffer(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Buffer *model.BufferCriteria `json:"buffer"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if err := ws.Builder.SetBuffer(body.Buffer); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func putPolygon(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Polygon *model.PolygonGeoJSON `json:"polygon"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if err := ws.Builder.SetPolygon(body.Polygon); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func addCondition(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		idx := ws.Builder.AddCondition()
		respond(w, http.StatusCreated, map[string]int{"index": idx})
	}
}

type conditionPatch struct {
	Field    *model.Field    `json:"field,omitempty"`
	Operator *model.Operator `json:"operator,omitempty"`
	Value    *string         `json:"value,omitempty"`
}

func updateCondition(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		var patch conditionPatch
		if err := decode(r, &patch); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if patch.Field != nil {
			if err := ws.Builder.SetConditionField(idx, *patch.Field); err != nil {
				respondErr(w, http.StatusBadRequest, err)
				return
			}
		}
		if patch.Operator != nil {
			if err := ws.Builder.SetConditionOperator(idx, *patch.Operator); err != nil {
				respondErr(w, http.StatusBadRequest, err)
				return
			}
		}
		if patch.Value != nil {
			if err := ws.Builder.SetConditionValue(idx, *patch.Value); err != nil {
				respondErr(w, http.StatusBadRequest, err)
				return
			}
		}
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func removeCondition(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if err := ws.Builder.RemoveCondition(idx); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		respond(w, http.StatusOK, ws.Builder.Snapshot())
	}
}

func runQuery(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := ws.RunQuery(r.Context())
		if err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, out)
	}
}

func getResult(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		out := ws.Result()
		if out == nil {
			respondErr(w, http.StatusNotFound, workspace.ErrNoResult)
			return
		}
		respond(w, http.StatusOK, out)
	}
}

func exportResult(log *slog.Logger, ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		out := ws.Result()
		if out == nil {
			respondErr(w, http.StatusNotFound, workspace.ErrNoResult)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="query-result.`+string(format)+`"`)
		if err := export.Write(w, log, format, out.Features); err != nil {
			log.ErrorContext(r.Context(), "export failed", slog.Any("error", err))
		}
	}
}

func clearResult(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ws.ClearQuery()
		respond(w, http.StatusOK, nil)
	}
}

func putHighlight(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		ws.SetHighlightEnabled(body.Enabled)
		respond(w, http.StatusOK, map[string]bool{"enabled": body.Enabled})
	}
}

func getOverlay(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, ws.Overlay())
	}
}

func getOperators() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := model.DataType(r.URL.Query().Get("type"))
		respond(w, http.StatusOK, model.OperatorsFor(t))
	}
}

func listDatasets(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, ws.Layers.Datasets())
	}
}

func refreshDatasets(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ws.Layers.Refresh(r.Context()); err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, ws.Layers.Datasets())
	}
}

func putActiveDataset(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID string `json:"id"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if err := ws.SetActiveDataset(body.ID); err != nil {
			respondErr(w, http.StatusNotFound, err)
			return
		}
		respond(w, http.StatusOK, map[string]string{"active": body.ID})
	}
}

func getFields(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := ws.DatasetFields(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, fields)
	}
}

func putVisibility(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Visible bool `json:"visible"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		id := chi.URLParam(r, "id")
		if !ws.Layers.SetVisible(id, body.Visible) {
			respondErr(w, http.StatusNotFound, errors.New("unknown dataset "+id))
			return
		}
		respond(w, http.StatusOK, nil)
	}
}

func updateDataset(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]any
		if err := decode(r, &patch); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if err := ws.Layers.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, ws.Layers.Datasets())
	}
}

func deleteDataset(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ws.Layers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, ws.Layers.Datasets())
	}
}

func runOperation(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, err := geomops.ParseOp(chi.URLParam(r, "op"))
		if err != nil {
			respondErr(w, http.StatusNotFound, err)
			return
		}
		var params geomops.Params
		if err := decode(r, &params); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		res, err := ws.RunOperation(r.Context(), op, params)
		if err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, res)
	}
}

func listOperationResults(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, ws.Operations.Results())
	}
}

func putResultVisibility(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Visible bool `json:"visible"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		id := chi.URLParam(r, "id")
		if !ws.Operations.SetVisible(id, body.Visible) {
			respondErr(w, http.StatusNotFound, errors.New("unknown operation result "+id))
			return
		}
		respond(w, http.StatusOK, nil)
	}
}

func saveResult(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if body.Name == "" {
			respondErr(w, http.StatusBadRequest, errors.New("clipping name is required"))
			return
		}
		clip, err := ws.Operations.SaveAsClipping(r.Context(), chi.URLParam(r, "id"), body.Name, body.Description)
		if err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusCreated, clip)
	}
}

func deleteResult(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !ws.Operations.Remove(id) {
			respondErr(w, http.StatusNotFound, errors.New("unknown operation result "+id))
			return
		}
		respond(w, http.StatusOK, nil)
	}
}

func runTerrain(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, err := geomops.ParseTerrainOp(chi.URLParam(r, "op"))
		if err != nil {
			respondErr(w, http.StatusNotFound, err)
			return
		}
		var params geomops.TerrainParams
		if err := decode(r, &params); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		res, err := ws.RunTerrain(r.Context(), op, params)
		if err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, res)
	}
}

func listClippings(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := ws.Clippings.List(r.Context())
		if err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, entries)
	}
}

func loadClipping(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := ws.Clippings.Load(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, entry)
	}
}

func unloadClipping(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ws.Clippings.Unload(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, nil)
	}
}

func deleteClipping(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ws.Clippings.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			respondErr(w, statusFor(err), err)
			return
		}
		respond(w, http.StatusOK, nil)
	}
}

func getMapMode(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]interaction.Mode{"mode": ws.Interaction.Mode()})
	}
}

func putMapMode(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Mode string `json:"mode"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		mode, err := interaction.ParseMode(body.Mode)
		if err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if err := ws.Interaction.SetMode(mode); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		respond(w, http.StatusOK, map[string]interaction.Mode{"mode": mode})
	}
}

func mapClick(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var click interaction.Click
		if err := decode(r, &click); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		respond(w, http.StatusOK, ws.Interaction.Click(click))
	}
}

func getMeasurement(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, ws.Interaction.Measurement())
	}
}

func resetMeasurement(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ws.Interaction.ResetMeasurement()
		respond(w, http.StatusOK, nil)
	}
}

func listBaseLayers(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, ws.BaseLayers.List())
	}
}

func putBaseLayer(ws *workspace.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID string `json:"id"`
		}
		if err := decode(r, &body); err != nil {
			respondErr(w, http.StatusBadRequest, err)
			return
		}
		if !ws.BaseLayers.SetActive(body.ID) {
			respondErr(w, http.StatusNotFound, errors.New("unknown base layer "+body.ID))
			return
		}
		respond(w, http.StatusOK, ws.BaseLayers.List())
	}
}
