package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Ko-stant/maze-division-engine/internal/config"
	"github.com/Ko-stant/maze-division-engine/internal/protocol"
	"github.com/Ko-stant/maze-division-engine/internal/ws"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *MockLogger) Printf(format string, v ...any) {
	m.mu.Lock()
	m.messages = append(m.messages, format)
	m.mu.Unlock()
}

type MockBroadcaster struct {
	mu      sync.Mutex
	patches []protocol.PatchEnvelope
}

func (m *MockBroadcaster) BroadcastJSON(ctx context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if env, ok := v.(protocol.PatchEnvelope); ok {
		m.patches = append(m.patches, env)
	}
	return nil
}

func (m *MockBroadcaster) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.patches))
	for _, p := range m.patches {
		out = append(out, p.Type)
	}
	return out
}

func testLimits() config.MazeConfig {
	return config.MazeConfig{
		MaxWidth:      51,
		MaxHeight:     51,
		MaxBudget:     1000,
		DefaultBudget: 100,
		MaxStepDelay:  50 * time.Millisecond,
	}
}

func newTestHandlers(b Broadcaster) (*Handlers, *RunManager) {
	runs := NewRunManager()
	logger := &MockLogger{}
	service := NewMazeService(testLimits(), b, runs, NewPerformanceMetrics(), logger)
	return NewHandlers(service, ws.NewHub(), runs, logger), runs
}

func newTestRouter(b Broadcaster, rl config.RateLimitConfig) http.Handler {
	h, _ := newTestHandlers(b)
	return NewRouter(h, rl)
}

var generousLimit = config.RateLimitConfig{Limit: 1000, Window: time.Minute}

func getSnapshot(t *testing.T, router http.Handler, query string) protocol.Snapshot {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maze?"+query, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /maze?%s: expected 200, got %d: %s", query, rec.Code, rec.Body.String())
	}
	var snap protocol.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func TestHandleMaze_ReturnsConnectedMaze(t *testing.T) {
	router := newTestRouter(&MockBroadcaster{}, generousLimit)
	snap := getSnapshot(t, router, "width=21&height=15&budget=50&seed=3")

	if snap.Width != 21 || snap.Height != 15 {
		t.Fatalf("expected 21x15, got %dx%d", snap.Width, snap.Height)
	}
	if snap.RegionsCount != 1 {
		t.Fatalf("expected one connected region, got %d", snap.RegionsCount)
	}
	if snap.Splits == 0 || snap.Splits > 50 || snap.BudgetLeft != 50-snap.Splits {
		t.Fatalf("unexpected split accounting: %+v", snap)
	}
	if snap.RunID == "" || snap.ProtocolVersion != protocol.ProtocolVersion {
		t.Fatalf("missing run id or protocol version: %+v", snap)
	}
	cells := protocol.UnpackCells(snap.Cells, snap.Width*snap.Height)
	for x := range snap.Width {
		if !cells[x] || !cells[(snap.Height-1)*snap.Width+x] {
			t.Fatalf("expected border column %d blocked", x)
		}
	}
}

func TestHandleMaze_ZeroBudgetIsOpenRoom(t *testing.T) {
	router := newTestRouter(&MockBroadcaster{}, generousLimit)
	snap := getSnapshot(t, router, "width=5&height=5&budget=0")
	if snap.Splits != 0 {
		t.Fatalf("expected no splits, got %d", snap.Splits)
	}
	cells := protocol.UnpackCells(snap.Cells, 25)
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			if cells[y*5+x] {
				t.Fatalf("expected (%d,%d) open", x, y)
			}
		}
	}
}

func TestHandleMaze_SameSeedSameCells(t *testing.T) {
	router := newTestRouter(&MockBroadcaster{}, generousLimit)
	a := getSnapshot(t, router, "width=31&height=21&seed=99")
	b := getSnapshot(t, router, "width=31&height=21&seed=99")
	if string(a.Cells) != string(b.Cells) {
		t.Fatalf("expected identical cells for the same seed")
	}
	if a.RunID == b.RunID {
		t.Fatalf("expected distinct run ids")
	}
}

func TestHandleMaze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"too narrow", "width=2&height=9", CodeInvalidSize},
		{"too large", "width=53&height=9", CodeInvalidSize},
		{"missing width", "height=9", CodeInvalidRequest},
		{"non numeric budget", "width=9&height=9&budget=lots", CodeInvalidRequest},
		{"negative budget", "width=9&height=9&budget=-1", CodeValidation},
		{"budget above max", "width=9&height=9&budget=1001", CodeInvalidBudget},
		{"unknown policy", "width=9&height=9&policy=sometimes", CodeValidation},
		{"bad seed", "width=9&height=9&seed=-4", CodeInvalidRequest},
	}
	router := newTestRouter(&MockBroadcaster{}, generousLimit)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maze?"+tt.query, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var merr MazeError
			if err := json.NewDecoder(rec.Body).Decode(&merr); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if merr.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s (%s)", tt.wantCode, merr.Code, merr.Message)
			}
		})
	}
}

func TestHandleMaze_BroadcastsPatchesInOrder(t *testing.T) {
	b := &MockBroadcaster{}
	router := newTestRouter(b, generousLimit)
	snap := getSnapshot(t, router, "width=15&height=15&budget=10&seed=8")

	types := b.Types()
	if len(types) != snap.Splits+2 {
		t.Fatalf("expected %d patches, got %d: %v", snap.Splits+2, len(types), types)
	}
	if types[0] != protocol.PatchRunStarted || types[len(types)-1] != protocol.PatchGenerationComplete {
		t.Fatalf("unexpected patch order %v", types)
	}
	for _, typ := range types[1 : len(types)-1] {
		if typ != protocol.PatchWallDrawn {
			t.Fatalf("expected only wall patches between start and completion, got %v", types)
		}
	}
	for i := 1; i < len(b.patches); i++ {
		if b.patches[i].Sequence <= b.patches[i-1].Sequence {
			t.Fatalf("sequence not increasing at %d", i)
		}
		if b.patches[i].RunID != snap.RunID {
			t.Fatalf("patch %d has run id %s, want %s", i, b.patches[i].RunID, snap.RunID)
		}
	}
}

func TestHandleMaze_RateLimited(t *testing.T) {
	router := newTestRouter(&MockBroadcaster{}, config.RateLimitConfig{Limit: 1, Window: time.Minute})
	getSnapshot(t, router, "width=5&height=5")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maze?width=5&height=5", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("expected rate limit header, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(&MockBroadcaster{}, generousLimit)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["activeRuns"] != float64(0) {
		t.Fatalf("unexpected health body %v", body)
	}
}

func dialStream(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	return conn
}

func writeIntent(t *testing.T, conn *websocket.Conn, intentType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	data, _ := json.Marshal(protocol.IntentEnvelope{Type: intentType, Payload: raw})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write intent: %v", err)
	}
}

type rawPatch struct {
	Sequence uint64          `json:"seq"`
	RunID    string          `json:"runId"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}

func readPatch(t *testing.T, conn *websocket.Conn) rawPatch {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read patch: %v", err)
	}
	var p rawPatch
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	return p
}

func TestHandleStream_StreamsWallsThenSnapshot(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(&MockBroadcaster{}, generousLimit))
	defer srv.Close()
	conn := dialStream(t, srv, "/stream")
	defer conn.CloseNow()

	budget := 25
	seed := uint64(4)
	writeIntent(t, conn, protocol.IntentGenerate, protocol.RequestGenerate{Width: 21, Height: 21, Budget: &budget, Seed: &seed})

	if p := readPatch(t, conn); p.Type != protocol.PatchRunStarted {
		t.Fatalf("expected run_started first, got %s", p.Type)
	}
	walls := 0
	for {
		p := readPatch(t, conn)
		if p.Type == protocol.PatchWallDrawn {
			walls++
			continue
		}
		if p.Type != protocol.PatchGenerationComplete {
			t.Fatalf("unexpected patch %s", p.Type)
		}
		var done protocol.GenerationComplete
		if err := json.Unmarshal(p.Payload, &done); err != nil {
			t.Fatalf("decode completion: %v", err)
		}
		if done.Snapshot.Splits != walls {
			t.Fatalf("snapshot reports %d splits, streamed %d walls", done.Snapshot.Splits, walls)
		}
		if done.Snapshot.Cancelled || done.Snapshot.RegionsCount != 1 {
			t.Fatalf("unexpected snapshot %+v", done.Snapshot)
		}
		return
	}
}

func TestHandleStream_CancelIntentStopsRun(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(&MockBroadcaster{}, generousLimit))
	defer srv.Close()
	conn := dialStream(t, srv, "/stream")
	defer conn.CloseNow()

	// slow enough that the cancel arrives long before the budget runs out
	writeIntent(t, conn, protocol.IntentGenerate, protocol.RequestGenerate{Width: 51, Height: 51, StepDelayMS: 50})
	if p := readPatch(t, conn); p.Type != protocol.PatchRunStarted {
		t.Fatalf("expected run_started first, got %s", p.Type)
	}
	writeIntent(t, conn, protocol.IntentCancel, protocol.RequestCancel{})

	for {
		p := readPatch(t, conn)
		if p.Type != protocol.PatchGenerationComplete {
			continue
		}
		var done protocol.GenerationComplete
		if err := json.Unmarshal(p.Payload, &done); err != nil {
			t.Fatalf("decode completion: %v", err)
		}
		if !done.Snapshot.Cancelled {
			t.Fatalf("expected a cancelled snapshot")
		}
		if done.Snapshot.RegionsCount != 1 {
			t.Fatalf("expected the partial maze to stay connected, got %d regions", done.Snapshot.RegionsCount)
		}
		return
	}
}

func TestHandleStream_RejectsMissingGenerateIntent(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(&MockBroadcaster{}, generousLimit))
	defer srv.Close()
	conn := dialStream(t, srv, "/stream")
	defer conn.CloseNow()

	writeIntent(t, conn, protocol.IntentCancel, protocol.RequestCancel{})
	p := readPatch(t, conn)
	if p.Type != protocol.PatchError {
		t.Fatalf("expected error patch, got %s", p.Type)
	}
	var notice protocol.ErrorNotice
	if err := json.Unmarshal(p.Payload, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if notice.Code != CodeInvalidRequest {
		t.Fatalf("expected %s, got %s", CodeInvalidRequest, notice.Code)
	}
}

func TestHandleStream_ReportsInvalidSize(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(&MockBroadcaster{}, generousLimit))
	defer srv.Close()
	conn := dialStream(t, srv, "/stream")
	defer conn.CloseNow()

	writeIntent(t, conn, protocol.IntentGenerate, protocol.RequestGenerate{Width: 2, Height: 9})
	p := readPatch(t, conn)
	var notice protocol.ErrorNotice
	if err := json.Unmarshal(p.Payload, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if p.Type != protocol.PatchError || notice.Code != CodeInvalidSize {
		t.Fatalf("expected InvalidSize error patch, got %s %+v", p.Type, notice)
	}
}

func TestHandleWatch_ReceivesOtherClientsRuns(t *testing.T) {
	h, _ := newTestHandlers(nil)
	h.service.broadcaster = h.hub
	srv := httptest.NewServer(NewRouter(h, generousLimit))
	defer srv.Close()

	watcher := dialStream(t, srv, "/watch")
	defer watcher.CloseNow()
	deadline := time.Now().Add(5 * time.Second)
	for h.hub.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get(srv.URL + "/maze?width=7&height=7&budget=1&seed=1")
	if err != nil {
		t.Fatalf("GET /maze: %v", err)
	}
	resp.Body.Close()

	want := []string{protocol.PatchRunStarted, protocol.PatchWallDrawn, protocol.PatchGenerationComplete}
	for _, typ := range want {
		if p := readPatch(t, watcher); p.Type != typ {
			t.Fatalf("expected %s, got %s", typ, p.Type)
		}
	}
}

func waitForRuns(t *testing.T, runs *RunManager, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for runs.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d runs in flight, have %d", n, runs.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readUntilComplete(t *testing.T, conn *websocket.Conn) protocol.Snapshot {
	t.Helper()
	for {
		p := readPatch(t, conn)
		if p.Type != protocol.PatchGenerationComplete {
			continue
		}
		var done protocol.GenerationComplete
		if err := json.Unmarshal(p.Payload, &done); err != nil {
			t.Fatalf("decode completion: %v", err)
		}
		return done.Snapshot
	}
}

func startSlowStream(t *testing.T, srv *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	conn := dialStream(t, srv, "/stream")
	writeIntent(t, conn, protocol.IntentGenerate, protocol.RequestGenerate{Width: 51, Height: 51, StepDelayMS: 50})
	p := readPatch(t, conn)
	if p.Type != protocol.PatchRunStarted || p.RunID == "" {
		t.Fatalf("expected run_started with a run id, got %s %q", p.Type, p.RunID)
	}
	return conn, p.RunID
}

func TestHandleStream_ClientDisconnectCancelsRun(t *testing.T) {
	h, runs := newTestHandlers(&MockBroadcaster{})
	srv := httptest.NewServer(NewRouter(h, generousLimit))
	defer srv.Close()

	conn, _ := startSlowStream(t, srv)
	waitForRuns(t, runs, 1)
	conn.CloseNow()
	waitForRuns(t, runs, 0)
}

func TestHandleCancelRun(t *testing.T) {
	h, runs := newTestHandlers(&MockBroadcaster{})
	router := NewRouter(h, generousLimit)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, runID := startSlowStream(t, srv)
	defer conn.CloseNow()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/runs/"+runID, nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if snap := readUntilComplete(t, conn); !snap.Cancelled || snap.RunID != runID {
		t.Fatalf("expected cancelled snapshot for %s, got %+v", runID, snap)
	}
	waitForRuns(t, runs, 0)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/runs/"+runID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a finished run, got %d", rec.Code)
	}
	var merr MazeError
	if err := json.NewDecoder(rec.Body).Decode(&merr); err != nil || merr.Code != CodeRunNotFound {
		t.Fatalf("expected %s, got %+v %v", CodeRunNotFound, merr, err)
	}
}

func TestHandleWatch_SpectatorCancelsRun(t *testing.T) {
	h, _ := newTestHandlers(nil)
	h.service.broadcaster = h.hub
	srv := httptest.NewServer(NewRouter(h, generousLimit))
	defer srv.Close()

	watcher := dialStream(t, srv, "/watch")
	defer watcher.CloseNow()
	deadline := time.Now().Add(5 * time.Second)
	for h.hub.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn, runID := startSlowStream(t, srv)
	defer conn.CloseNow()
	if p := readPatch(t, watcher); p.Type != protocol.PatchRunStarted || p.RunID != runID {
		t.Fatalf("expected watcher to see run_started for %s, got %s %s", runID, p.Type, p.RunID)
	}
	writeIntent(t, watcher, protocol.IntentCancel, protocol.RequestCancel{RunID: runID})

	if snap := readUntilComplete(t, conn); !snap.Cancelled {
		t.Fatalf("expected the spectator's cancel to stop the run")
	}
}
