// Package monitor exposes a resolution run's live progress over HTTP: a
// Prometheus /metrics endpoint and a /ws endpoint that streams frontier
// depth and stack counts to any connected websocket client. This is
// purely host-side observability — the core Enumerator never imports
// this package, it only exposes the Stats and FrontierDepth the host
// polls to feed it.
package monitor

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	stacksEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stackresolver",
		Name:      "stacks_emitted_total",
		Help:      "Total stacks emitted by the enumerator.",
	})
	statesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stackresolver",
		Name:      "states_pruned_total",
		Help:      "Total traversal states pruned for a type conflict.",
	})
	frontierDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stackresolver",
		Name:      "frontier_depth",
		Help:      "Current number of live traversal states.",
	})
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshot is one point-in-time view of a run's progress, sent to both
// Prometheus (as gauge/counter deltas) and any connected websocket.
type Snapshot struct {
	StacksEmitted int `json:"stacks_emitted"`
	StatesPruned  int `json:"states_pruned"`
	FrontierDepth int `json:"frontier_depth"`
}

// Monitor fans a sequence of Snapshots out to Prometheus and to every
// currently-connected websocket client.
type Monitor struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	last    Snapshot
	// writeMu serializes broadcasts: a websocket conn allows only one
	// concurrent writer.
	writeMu sync.Mutex
}

// New returns an empty Monitor.
func New() *Monitor {
	return &Monitor{clients: make(map[*websocket.Conn]struct{})}
}

// Publish records snap against the Prometheus gauges/counters (as
// monotonic deltas against the previous snapshot) and broadcasts it to
// every connected websocket client. Safe for concurrent use.
func (m *Monitor) Publish(snap Snapshot) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	delta := snap.StacksEmitted - m.last.StacksEmitted
	pruned := snap.StatesPruned - m.last.StatesPruned
	m.last = snap
	clients := make([]*websocket.Conn, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	if delta > 0 {
		stacksEmitted.Add(float64(delta))
	}
	if pruned > 0 {
		statesPruned.Add(float64(pruned))
	}
	frontierDepth.Set(float64(snap.FrontierDepth))

	for _, c := range clients {
		if err := c.WriteJSON(snap); err != nil {
			m.dropClient(c)
		}
	}
}

func (m *Monitor) addClient(c *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c] = struct{}{}
}

func (m *Monitor) dropClient(c *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, c)
	c.Close()
}

// Routes mounts /metrics and /ws onto r.
func (m *Monitor) Routes(r chi.Router) {
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", m.handleWS)
}

func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	m.addClient(conn)

	// Drain reads so the client's close frame is observed promptly; this
	// endpoint is publish-only, the client never sends meaningful data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				m.dropClient(conn)
				return
			}
		}
	}()
}

// NewServer builds an *http.Server with Monitor's routes mounted at the
// root of a fresh chi.Mux.
func NewServer(addr string, m *Monitor) *http.Server {
	r := chi.NewRouter()
	m.Routes(r)
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
