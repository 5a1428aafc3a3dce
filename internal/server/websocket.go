package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsConn serializes writes to a websocket connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return nil
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// streamHandler upgrades to a websocket. Each text message is an
// ExtractRequest; every page result is sent as soon as it is ready, tagged
// with its page index, followed by a "done" message. Failed pages produce an
// "error" message and do not stop the other pages.
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()
	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr, "request_id", RequestID(r.Context()))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	wc := &wsConn{conn: conn}

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if wc.ping() != nil {
					return
				}
			}
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		if err := s.streamRequest(ctx, wc, RequestID(r.Context()), data); err != nil {
			slog.Debug("WebSocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) streamRequest(ctx context.Context, wc *wsConn, reqID string, data []byte) error {
	var req ExtractRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wc.send(StreamMessage{Type: "error", RequestID: reqID, Error: "decoding request: " + err.Error()})
	}
	ext, err := s.extractorFor(req.RotatedBBox)
	if err != nil {
		return wc.send(StreamMessage{Type: "error", RequestID: reqID, Error: err.Error()})
	}

	opts := s.opts
	opts.ContinueOnError = true
	var sendErr error
	var once sync.Once
	_, runErr := batch.Run(ctx, len(req.Maps), opts, func(_ context.Context, i int) (struct{}, error) {
		res, err := ext.ExtractPage(i, req.Maps[i].probabilityMap())
		page := i
		msg := StreamMessage{Type: "page", RequestID: reqID, Page: &page}
		if err != nil {
			msg.Type, msg.Error = "error", err.Error()
			pagesProcessedTotal.WithLabelValues("extract", "error").Inc()
		} else {
			pb := pageBoxes(i, res)
			msg.Result = &pb
			observePage(res)
		}
		if werr := wc.send(msg); werr != nil {
			once.Do(func() { sendErr = werr })
		}
		return struct{}{}, err
	})
	if sendErr != nil {
		return sendErr
	}
	done := StreamMessage{Type: "done", RequestID: reqID, Total: len(req.Maps)}
	if runErr != nil {
		done.Failed = len(failedPages(runErr))
	}
	return wc.send(done)
}

func failedPages(err error) []int {
	var be *ocrerr.BatchError
	if errors.As(err, &be) {
		return be.FailedPages()
	}
	return nil
}
