package viewer

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yavin-ai/yavin/internal/render"
	"github.com/yavin-ai/yavin/internal/sim"
)

const (
	defaultFrameW = 600
	defaultFrameH = 400
	minFrameDim   = 50
	maxFrameDim   = 2000
)

// RegisterRoutes mounts the demo hosting API and the websocket stream.
func RegisterRoutes(r chi.Router, reg *Registry) {
	r.Route("/api/demos", func(r chi.Router) {
		r.Get("/", handleList(reg))
		r.Post("/", handleCreate(reg))
		r.Get("/runs", handleRuns(reg))
		r.Get("/stats", handleStats(reg))
		r.Get("/{id}", handleGet(reg))
		r.Delete("/{id}", handleDelete(reg))
		r.Post("/{id}/reset", handleReset(reg))
		r.Post("/{id}/step", handleStep(reg))
		r.Post("/{id}/start", handleStart(reg))
		r.Post("/{id}/stop", handleStop(reg))
		r.Put("/{id}/params", handleParams(reg))
		r.Post("/{id}/points", handlePoints(reg))
		r.Post("/{id}/select", handleSelect(reg))
		r.Post("/{id}/layers", handleLayers(reg))
		r.Get("/{id}/frame.png", handleFrame(reg))
	})
	r.Get("/ws/demos/{id}", handleWebSocket(reg))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrRunning):
		status = http.StatusConflict
	case errors.Is(err, ErrTooManyDemos):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrNotSupported),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, sim.ErrTooFewLayers),
		errors.Is(err, sim.ErrUnknownDataset),
		errors.Is(err, sim.ErrUnknownActivation),
		errors.Is(err, sim.ErrUnknownLayerType):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// instanceFor resolves the {id} URL parameter, writing a 404 on failure.
func instanceFor(w http.ResponseWriter, r *http.Request, reg *Registry) (*Instance, bool) {
	inst, err := reg.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return inst, true
}

func handleList(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := []Summary{}
		for _, inst := range reg.List() {
			out = append(out, inst.Summary())
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type createRequest struct {
	Kind sim.Kind `json:"kind"`
	Seed int64    `json:"seed"`
}

func handleCreate(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		inst, err := reg.Create(req.Kind, req.Seed)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, inst.Summary())
	}
}

func handleGet(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, inst.Summary())
	}
}

func handleDelete(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reg.Remove(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleReset(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		inst.Reset()
		writeJSON(w, http.StatusOK, inst.Summary())
	}
}

func handleStep(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		done, err := inst.Step()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"done":  done,
			"state": inst.Demo().Snapshot(),
		})
	}
}

func handleStart(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		started, err := inst.Start()
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if started {
			status = http.StatusAccepted
		}
		writeJSON(w, status, map[string]bool{"started": started})
	}
}

func handleStop(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		inst.Stop()
		writeJSON(w, http.StatusOK, map[string]string{"status": "stopping"})
	}
}

func handleParams(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		var p Params
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if err := inst.Apply(p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inst.Summary())
	}
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func handlePoints(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		d, ok := inst.Demo().(*sim.DecisionBoundary)
		if !ok {
			writeError(w, ErrNotSupported)
			return
		}
		var req pointRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		p := d.AddPoint(req.X, req.Y)
		inst.publishState()
		writeJSON(w, http.StatusCreated, p)
	}
}

type selectRequest struct {
	Index int `json:"index"`
}

func handleSelect(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		a, ok := inst.Demo().(*sim.AttentionWeights)
		if !ok {
			writeError(w, ErrNotSupported)
			return
		}
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		selected := a.HandleSelect(req.Index)
		inst.publishState()
		writeJSON(w, http.StatusOK, map[string]int{"selected": selected})
	}
}

type layerRequest struct {
	Type sim.LayerType `json:"type"`
}

func handleLayers(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		n, ok := inst.Demo().(*sim.NetworkTrainer)
		if !ok {
			writeError(w, ErrNotSupported)
			return
		}
		var req layerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		layer, err := n.AddLayer(req.Type)
		if err != nil {
			writeError(w, err)
			return
		}
		inst.publishState()
		writeJSON(w, http.StatusCreated, layer)
	}
}

func handleFrame(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := instanceFor(w, r, reg)
		if !ok {
			return
		}
		q := r.URL.Query()
		width := frameDim(q.Get("w"), defaultFrameW)
		height := frameDim(q.Get("h"), defaultFrameH)
		themeName := q.Get("theme")
		if themeName == "" {
			themeName = reg.Settings().Theme
		}

		surface := inst.Render(width, height, render.ThemeByName(themeName))
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := surface.EncodePNG(w); err != nil {
			log.Printf("viewer: encoding frame for %s: %v", inst.ID, err)
		}
	}
}

// frameDim parses a frame dimension, falling back to def and clamping into
// [minFrameDim, maxFrameDim].
func frameDim(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < minFrameDim {
		return minFrameDim
	}
	if n > maxFrameDim {
		return maxFrameDim
	}
	return n
}

func handleRuns(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := reg.Store()
		if store == nil {
			writeJSON(w, http.StatusOK, []Run{})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := store.Recent(r.Context(), sim.Kind(r.URL.Query().Get("kind")), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if runs == nil {
			runs = []Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func handleStats(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := reg.Store()
		if store == nil {
			writeJSON(w, http.StatusOK, []KindStats{})
			return
		}
		stats, err := store.Stats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if stats == nil {
			stats = []KindStats{}
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
