package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/go2_telemetry/internal/channel"
	"github.com/relabs-tech/go2_telemetry/internal/config"
	"github.com/relabs-tech/go2_telemetry/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsHub fans processed reports out to connected browsers. A connection
// that fails a write is dropped.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *wsHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.Close()
}

func (h *wsHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("web: websocket write: %v", err)
			delete(h.conns, c)
			c.Close()
		}
	}
}

// RunWeb follows the processed-report topic and serves a live telemetry
// view: latest report as JSON under /api/telemetry, a streamed feed under
// /ws, static files from ./web as the root.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu         sync.RWMutex
		lastReport *telemetry.Report
	)
	hub := newWSHub()

	// 1) Connect to the broker and follow the report topic
	if err := channel.Initialize(channel.Options{
		Broker:         cfg.MQTTBroker,
		ClientIDPrefix: cfg.MQTTClientIDPrefix + "-web",
		ConnectTimeout: time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond,
	}); err != nil {
		return err
	}

	if cfg.TopicReport == "" {
		return fmt.Errorf("web: TOPIC_REPORT is not configured")
	}

	sub, err := channel.NewSubscriber[telemetry.Report](cfg.TopicReport)
	if err != nil {
		return err
	}
	if err := sub.Init(); err != nil {
		return err
	}
	log.Printf("web: subscribed to %s", cfg.TopicReport)

	// 2) Drain the subscription, keep the latest report, feed the websockets
	go func() {
		for {
			r, ok, err := sub.Read()
			if err != nil {
				log.Printf("web: report read: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if !ok {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			mu.Lock()
			lastReport = r
			mu.Unlock()
			if payload, err := json.Marshal(r); err != nil {
				log.Printf("web: report marshal: %v", err)
			} else {
				hub.broadcast(payload)
			}
		}
	}()

	// 3) JSON API endpoint: latest report
	http.HandleFunc("/api/telemetry", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if lastReport == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastReport); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket stream of reports
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade: %v", err)
			return
		}
		hub.add(conn)
		// Reads are only serviced to detect the peer going away.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.remove(conn)
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
