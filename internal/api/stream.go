package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/feed"
	"github.com/erazemk/bidsphere/internal/market"
	"github.com/erazemk/bidsphere/internal/model"
)

const (
	streamBuffer = 16
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamHandler pushes auction changes to websocket clients.
type StreamHandler struct {
	Market *market.Service
}

// streamMessage is one frame sent to a stream client.
type streamMessage struct {
	Type     string         `json:"type"`
	ClientID string         `json:"clientId,omitempty"`
	Path     string         `json:"path,omitempty"`
	Auction  *model.Auction `json:"auction,omitempty"`
	Status   auction.Status `json:"status,omitempty"`
}

// Stream handles GET /api/auctions/stream. With ?id= the client watches one
// auction, otherwise the whole collection. The subscription lives as long
// as the connection.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	path := feed.CollectionPath
	if id := r.URL.Query().Get("id"); id != "" {
		if _, err := h.Market.GetAuction(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		path = feed.Path(id)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	send := make(chan streamMessage, streamBuffer)

	sub := h.Market.Subscribe(path, func(c feed.Change) {
		e := h.Market.Annotate(&c.Auction)
		msg := streamMessage{Type: "change", Path: c.Path, Auction: &e.Auction, Status: e.Status}
		select {
		case send <- msg:
		default:
			slog.Warn("stream client too slow, change skipped", "client", clientID, "path", c.Path)
		}
	})
	defer sub.Cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Info("stream client connected", "client", clientID, "path", path, "user", identity(r.Context()))
	defer slog.Info("stream client disconnected", "client", clientID)

	if err := writeFrame(conn, streamMessage{Type: "connected", ClientID: clientID, Path: path}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-send:
			if err := writeFrame(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-sub.Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, msg streamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
