package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxClientFrame = 512
	sendBuffer     = 64
)

// Gateway forwards channel events from the relay to browser websocket clients.
// Each connection gets its own subscription, bound to every declared event.
type Gateway struct {
	relay    Relay
	upgrader websocket.Upgrader
}

func NewGateway(relay Relay, checkOrigin func(r *http.Request) bool) *Gateway {
	return &Gateway{
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP expects ?channel=<name>, defaulting to main.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("channel")
	if name == "" {
		name = Main.String()
	}
	ch, err := ParseChannel(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := g.relay.Subscribe(r.Context(), ch)
	if err != nil {
		logger.Error("gateway subscribe failed", zap.String("channel", ch.String()), zap.Error(err))
		http.Error(w, "realtime unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	out := make(chan Message, sendBuffer)
	for _, ev := range Events() {
		ev := ev
		_ = sub.Bind(ev, func(data json.RawMessage) {
			select {
			case out <- Message{Channel: ch, Event: ev, Data: data}:
			default:
				logger.Warn("gateway client lagging, drop event", zap.String("event", ev.String()))
			}
		})
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写回错误响应
		return
	}
	defer conn.Close()

	gatewayConnections.Inc()
	defer gatewayConnections.Dec()

	closed := make(chan struct{})
	go readPump(conn, closed)
	writePump(conn, out, sub.Done(), closed)
}

// readPump discards client frames and keeps the read deadline fresh on pong.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, out <-chan Message, subDone, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-subDone:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay closed"),
				time.Now().Add(writeWait))
			return
		case <-closed:
			return
		}
	}
}
