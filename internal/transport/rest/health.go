package rest

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/payable/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// Pinger is any dependency that can report its reachability: the entity
// store, the redis bridge.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StalenessReporter lets the snapshot syncer show up as a component.
type StalenessReporter interface {
	Stale() bool
}

type HealthHandler struct {
	*transport.BaseHandler
	components map[string]Pinger
	syncer     StalenessReporter
	timeout    time.Duration
}

func NewHealthHandler(components map[string]Pinger, syncer StalenessReporter) *HealthHandler {
	return &HealthHandler{
		BaseHandler: transport.NewBaseHandler(nil),
		components:  components,
		syncer:      syncer,
		timeout:     2 * time.Second,
	}
}

// Ping handles GET /ping and only says the process is up.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health handles GET /health by pinging every component concurrently. A
// stale snapshot is reported but does not fail readiness.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		entries = make(map[string]CheckEntry, len(h.components)+1)
	)
	for name, p := range h.components {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			entry := check(ctx, p)
			mu.Lock()
			entries[name] = entry
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	overall := HealthHealthy
	names := make([]string, 0, len(entries))
	for name, e := range entries {
		names = append(names, name)
		if e.Status == HealthUnhealthy {
			overall = HealthUnhealthy
		}
	}
	sort.Strings(names)
	if overall == HealthUnhealthy {
		h.Logger.Warn("Health: unhealthy components", "components", names)
	}

	if h.syncer != nil {
		entry := CheckEntry{Status: HealthHealthy, CheckedAt: time.Now()}
		if h.syncer.Stale() {
			entry.Message = "snapshot is stale"
			entry.Details = map[string]any{"stale": true}
		}
		entries["snapshot"] = entry
	}

	status := http.StatusOK
	if overall == HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.WriteJSON(w, status, HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now(),
		Components: entries,
	})
}

func check(ctx context.Context, p Pinger) CheckEntry {
	start := time.Now()
	err := p.PingContext(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}
