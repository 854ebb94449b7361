package activity

import (
	"encoding/json"
	"net"
	"sync"
)

// Reporter sends events to the collector socket as JSON datagrams.
// Sends are best-effort: when no monitor is listening, or the payload
// cannot be delivered, the event is dropped silently. A nil Reporter is
// valid and reports nothing, so callers never need to guard.
type Reporter struct {
	path string

	mu   sync.Mutex
	conn *net.UnixConn
}

func NewReporter(socketPath string) *Reporter {
	return &Reporter{path: socketPath}
}

// Report delivers one event. Never blocks on a slow or absent collector.
func (r *Reporter) Report(e Event) {
	if r == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	conn := r.connect()
	if conn == nil {
		return
	}
	if _, err := conn.Write(data); err != nil {
		// The collector may have restarted under a fresh socket; redial
		// on the next report.
		r.reset()
	}
}

func (r *Reporter) connect() *net.UnixConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return r.conn
	}
	addr, err := net.ResolveUnixAddr("unixgram", r.path)
	if err != nil {
		return nil
	}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return nil
	}
	r.conn = conn
	return conn
}

func (r *Reporter) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

// Close releases the socket. Subsequent Reports redial.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.reset()
}
