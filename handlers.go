package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kwv/floorscan/mesh"
)

// maxScanBodyBytes limits POST /scans payloads.
const maxScanBodyBytes = 64 << 20

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(a *App) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		a.Log.Debug("health request", "remote", r.RemoteAddr)
		status := struct {
			Status    string             `json:"status"`
			Timestamp time.Time          `json:"timestamp"`
			Scans     mesh.TrackerStatus `json:"scans"`
			MQTT      bool               `json:"mqtt"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Scans:     a.Tracker.Status(),
			MQTT:      a.MQTTClient != nil && a.MQTTClient.IsConnected(),
		}
		writeJSON(w, http.StatusOK, status)
	})

	// Saved plan summaries, newest first
	mux.HandleFunc("GET /plans", func(w http.ResponseWriter, r *http.Request) {
		plans, err := a.Store.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		summaries := make([]mesh.ScanSummary, len(plans))
		for i, p := range plans {
			summaries[i] = mesh.Summarize(p, a.Config.Units)
		}
		writeJSON(w, http.StatusOK, summaries)
	})

	mux.HandleFunc("GET /plans/{id}", func(w http.ResponseWriter, r *http.Request) {
		plan, err := a.findPlan(r, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeEncoded(w, plan, mesh.FormatJSON, a.Config.RenderOptions(), false)
	})

	mux.HandleFunc("GET /plans/{id}/export/{format}", func(w http.ResponseWriter, r *http.Request) {
		format, err := mesh.ParseFormat(r.PathValue("format"))
		if err != nil {
			writeError(w, err)
			return
		}
		plan, err := a.findPlan(r, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeEncoded(w, plan, format, a.Config.RenderOptions(), true)
	})

	// Reconstruct a mesh batch. Optional query parameters: dimensions=WxLxH, title.
	mux.HandleFunc("POST /scans", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScanBodyBytes))
		if err != nil {
			http.Error(w, fmt.Sprintf("reading body: %v", err), http.StatusRequestEntityTooLarge)
			return
		}
		batch, err := mesh.DecodeMeshBatch(body)
		if err != nil {
			http.Error(w, fmt.Sprintf("decoding mesh batch: %v", err), http.StatusBadRequest)
			return
		}
		if dims := r.URL.Query().Get("dimensions"); dims != "" {
			d, err := mesh.ParseDimensions(dims)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			batch.Dimensions = &d
		}
		if title := r.URL.Query().Get("title"); title != "" {
			batch.Title = title
		}

		result, _, err := a.ProcessBatch(r.Context(), batch)
		if err != nil && (result == nil || result.FloorPlan == nil) {
			writeError(w, err)
			return
		}
		if err != nil {
			// the plan exists; a sibling export or publish failed
			a.Log.Warn("scan accepted with errors", "scan", result.ID, "error", err)
		}
		w.Header().Set("Location", "/plans/"+result.FloorPlan.ID)
		writeJSON(w, http.StatusCreated, result)
	})

	// Add a room to a saved plan. Body: {"name": "..."}, optional.
	mux.HandleFunc("POST /plans/{id}/rooms", func(w http.ResponseWriter, r *http.Request) {
		plan, err := a.findPlan(r, r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
			return
		}

		edited := plan.AddRoom(req.Name)
		if err := a.Store.Save(r.Context(), edited); err != nil {
			writeError(w, err)
			return
		}
		if a.Publisher != nil {
			if err := a.Publisher.PublishPlan(edited); err != nil {
				a.Log.Warn("publishing edited plan failed", "plan", edited.ID, "error", err)
			}
		}
		writeEncoded(w, edited, mesh.FormatJSON, a.Config.RenderOptions(), false)
	})

	mux.HandleFunc("DELETE /plans/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := a.Store.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		if a.Publisher != nil {
			if err := a.Publisher.PublishPlanRemoved(id); err != nil {
				a.Log.Warn("clearing retained plan failed", "plan", id, "error", err)
			}
		}
		a.Log.Info("plan deleted", "plan", id)
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

// findPlan looks in the store first, then among recent unsaved scans.
func (a *App) findPlan(r *http.Request, id string) (*mesh.FloorPlan, error) {
	plan, err := a.Store.Get(r.Context(), id)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, mesh.ErrPlanNotFound) {
		return nil, err
	}
	if tracked, ok := a.Tracker.FindPlan(id); ok {
		return tracked, nil
	}
	return nil, err
}

func writeEncoded(w http.ResponseWriter, plan *mesh.FloorPlan, format mesh.Format, opts mesh.RenderOptions, attachment bool) {
	data, err := mesh.Encode(plan, format, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", mesh.ExportBaseName(plan)+format.Extension()))
	}
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already sent; nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps mesh errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, mesh.ErrPlanNotFound), errors.Is(err, mesh.ErrUnknownFormat):
		status = http.StatusNotFound
	case errors.Is(err, mesh.ErrMissingInput):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
