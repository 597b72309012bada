package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/turn-indicator/internal/status"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	minInterval      = 100 * time.Millisecond
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

// wsEnvelope wraps every message sent on /ws.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The status page is served from the same origin; other dashboards on the
// vehicle network are allowed to subscribe too.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS streams status snapshots until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	interval := parseInterval(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go s.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := s.sendState(conn); err != nil {
		s.log.Debugw("ws initial write failed", "err", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debugw("ws ping failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := s.sendState(conn); err != nil {
				s.log.Debugw("ws write failed", "err", err)
				return
			}
		}
	}
}

// parseInterval reads ?interval=500ms or ?interval_ms=500, bounded to
// [100ms, 10s]. Anything else gets the default.
func parseInterval(r *http.Request) time.Duration {
	q := r.URL.Query()

	if v := q.Get("interval"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= minInterval && d <= maxInterval {
			return d
		}
	}

	if v := q.Get("interval_ms"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= int(minInterval/time.Millisecond) && ms <= maxIntervalMilli {
			return time.Duration(ms) * time.Millisecond
		}
	}

	return defaultInterval
}

// startReader drains incoming frames so control messages are handled and a
// closed connection is noticed.
func (s *Server) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) sendState(conn *websocket.Conn) error {
	inner := status.Build(s.tracker.Snapshot())
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "state", Data: inner})
}
