package serve

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"picam/notify"
)

const (
	// Time allowed to write message to the client
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second
)

// Status is pushed to websocket clients on every change.
type Status struct {
	State string    `json:"state"`
	Time  time.Time `json:"time"`
	// LastSent is the base name of the last clip emailed.
	LastSent string `json:"last_sent,omitempty"`
}

// StatusUpdater streams the monitor state to websocket clients. It listens
// to both the monitor and the notifier.
type StatusUpdater struct {
	upgrader websocket.Upgrader

	l      sync.Mutex
	status Status
	cs     map[chan Status]bool
}

func NewStatusUpdater() *StatusUpdater {
	return &StatusUpdater{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cs: make(map[chan Status]bool),
	}
}

func baseName(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

func (m *StatusUpdater) publish(update func(s *Status)) {
	m.l.Lock()
	defer m.l.Unlock()
	update(&m.status)
	m.status.Time = time.Now()
	for c := range m.cs {
		// Slow clients only need the latest state.
		select {
		case <-c:
		default:
		}
		c <- m.status
	}
}

// StatusChanged implements monitor.StatusListener.
func (m *StatusUpdater) StatusChanged(state string) {
	m.publish(func(s *Status) { s.State = state })
}

// Notify implements notify.NotifyListener.
func (m *StatusUpdater) Notify(n *notify.Notification) error {
	m.publish(func(s *Status) { s.LastSent = baseName(n.AttachmentPath) })
	return nil
}

func (m *StatusUpdater) Current() Status {
	m.l.Lock()
	defer m.l.Unlock()
	return m.status
}

func (m *StatusUpdater) subscribe() chan Status {
	c := make(chan Status, 1)
	m.l.Lock()
	defer m.l.Unlock()
	m.cs[c] = true
	c <- m.status
	return c
}

func (m *StatusUpdater) unsubscribe(c chan Status) {
	m.l.Lock()
	defer m.l.Unlock()
	delete(m.cs, c)
}

func (m *StatusUpdater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for status stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *StatusUpdater) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("connected to status socket")
	defer func() {
		ws.Close()
		clog.Info("disconnected from status socket")
	}()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	statusc := m.subscribe()
	defer m.unsubscribe(statusc)

	// Even though we don't care about incoming messages, we need to read from
	// the socket in order to process control messages.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case s := <-statusc:
			b, err := json.Marshal(s)
			if err != nil {
				clog.Errorf("Failed to encode status: %v", err)
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
