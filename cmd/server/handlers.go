package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/Ko-stant/maze-division-engine/internal/config"
	"github.com/Ko-stant/maze-division-engine/internal/protocol"
	"github.com/Ko-stant/maze-division-engine/internal/ws"
)

const (
	intentReadTimeout = 10 * time.Second
	patchWriteTimeout = 3 * time.Second
)

// Handlers serves maze generation over HTTP and websockets
type Handlers struct {
	service *MazeService
	hub     *ws.Hub
	runs    *RunManager
	logger  Logger
}

func NewHandlers(service *MazeService, hub *ws.Hub, runs *RunManager, logger Logger) *Handlers {
	return &Handlers{service: service, hub: hub, runs: runs, logger: logger}
}

// NewRouter wires the endpoints; generation endpoints are rate limited
func NewRouter(h *Handlers, rl config.RateLimitConfig) http.Handler {
	limit := RateLimitMiddleware(rl.Limit, rl.Window)

	mux := http.NewServeMux()
	mux.Handle("GET /maze", limit(http.HandlerFunc(h.HandleMaze)))
	mux.Handle("GET /stream", limit(http.HandlerFunc(h.HandleStream)))
	mux.HandleFunc("GET /watch", h.HandleWatch)
	mux.HandleFunc("DELETE /runs/{id}", h.HandleCancelRun)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	return mux
}

// HandleMaze generates a maze from query parameters and returns its snapshot
// GET /maze?width=&height=&budget=&seed=&policy=
func (h *Handlers) HandleMaze(w http.ResponseWriter, r *http.Request) {
	req, merr := generateRequestFromQuery(r)
	if merr != nil {
		writeError(w, merr)
		return
	}
	params, merr := h.service.Resolve(req)
	if merr != nil {
		writeError(w, merr)
		return
	}

	snapshot, err := h.service.Run(r.Context(), params, nil)
	if err != nil {
		writeError(w, mazeErrorFrom(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshot)
}

func generateRequestFromQuery(r *http.Request) (protocol.RequestGenerate, *MazeError) {
	q := r.URL.Query()
	var req protocol.RequestGenerate
	var err error

	if req.Width, err = strconv.Atoi(q.Get("width")); err != nil {
		return req, &MazeError{Code: CodeInvalidRequest, Message: "width must be an integer"}
	}
	if req.Height, err = strconv.Atoi(q.Get("height")); err != nil {
		return req, &MazeError{Code: CodeInvalidRequest, Message: "height must be an integer"}
	}
	if v := q.Get("budget"); v != "" {
		budget, err := strconv.Atoi(v)
		if err != nil {
			return req, &MazeError{Code: CodeInvalidRequest, Message: "budget must be an integer"}
		}
		req.Budget = &budget
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, &MazeError{Code: CodeInvalidRequest, Message: "seed must be an unsigned integer"}
		}
		req.Seed = &seed
	}
	req.Policy = q.Get("policy")
	return req, nil
}

// HandleStream runs one generation per connection. The client sends a
// generate intent; the server streams patches until generation_complete.
// Closing the connection or sending a cancel intent cancels the run. The
// cancel payload is ignored here; other runs are stopped through /watch or
// DELETE /runs/{id}.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Printf("stream accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := func(env protocol.PatchEnvelope) {
		data, err := json.Marshal(env)
		if err != nil {
			h.logger.Printf("stream marshal %s failed: %v", env.Type, err)
			return
		}
		// detached from ctx so the final patch still goes out after a cancel intent
		wctx, wcancel := context.WithTimeout(context.Background(), patchWriteTimeout)
		defer wcancel()
		if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
			cancel()
		}
	}
	sendError := func(merr *MazeError) {
		send(protocol.PatchEnvelope{Type: protocol.PatchError, Payload: protocol.ErrorNotice{Code: merr.Code, Message: merr.Message}})
	}

	rctx, rcancel := context.WithTimeout(ctx, intentReadTimeout)
	_, data, err := conn.Read(rctx)
	rcancel()
	if err != nil {
		h.logger.Printf("stream: no generate intent: %v", err)
		return
	}

	var env protocol.IntentEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != protocol.IntentGenerate {
		sendError(&MazeError{Code: CodeInvalidRequest, Message: "expected a generate intent"})
		return
	}
	var req protocol.RequestGenerate
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		sendError(&MazeError{Code: CodeInvalidRequest, Message: "invalid generate payload"})
		return
	}
	params, merr := h.service.Resolve(req)
	if merr != nil {
		sendError(merr)
		return
	}

	go func() {
		defer cancel()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var env protocol.IntentEnvelope
			if json.Unmarshal(data, &env) == nil && env.Type == protocol.IntentCancel {
				return
			}
		}
	}()

	if _, err := h.service.Run(ctx, params, send); err != nil {
		// the error patch has already been sent by the service
		h.logger.Printf("stream run failed: %v", err)
	}
}

// HandleWatch registers a spectator that receives every run's patches. A
// spectator may stop any run it sees by sending a cancel intent with its run id.
func (h *Handlers) HandleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Printf("watch accept failed: %v", err)
		return
	}
	h.hub.Add(conn)
	defer h.hub.Remove(conn)

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		var env protocol.IntentEnvelope
		if json.Unmarshal(data, &env) != nil || env.Type != protocol.IntentCancel {
			continue
		}
		var req protocol.RequestCancel
		if json.Unmarshal(env.Payload, &req) != nil || req.RunID == "" {
			continue
		}
		if !h.runs.Cancel(req.RunID) {
			h.logger.Printf("watch: cancel for unknown run %s", req.RunID)
		}
	}
}

// HandleCancelRun stops an in-flight run
// DELETE /runs/{id}
func (h *Handlers) HandleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.runs.Cancel(id) {
		writeError(w, &MazeError{Code: CodeRunNotFound, Message: fmt.Sprintf("no run %q in flight", id)})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"activeRuns": h.runs.Count(),
		"watchers":   h.hub.Count(),
	})
}
