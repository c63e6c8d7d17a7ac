package voice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
	voiceservice "github.com/nwatkins/health-adviser/internal/service/voice"
)

const (
	readDeadline = 60 * time.Second
	pingInterval = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsConn serializes writes; the reader, the state feed and the result
// goroutines all send frames.
type wsConn struct {
	conn   *websocket.Conn
	writes chan outgoingMessage
}

// handleWebSocket runs an interactive voice session. Inbound frames start or
// stop listening and speaking; outbound frames carry state changes,
// transcripts and the conversation turns those transcripts trigger.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("voice websocket connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &wsConn{conn: conn, writes: make(chan outgoingMessage, 16)}
	go c.writeLoop(ctx)

	states, unsubscribe := h.engine.Subscribe()
	defer unsubscribe()
	go func() {
		for state := range states {
			c.send("state", map[string]voicemodel.State{"state": state})
		}
	}()

	c.send("connected", map[string]any{
		"capabilities": h.engine.Capabilities(),
		"state":        h.engine.State(),
	})

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read failed", "error", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readDeadline))
		h.handleFrame(ctx, c, &msg)
	}
}

func (h *Handler) handleFrame(ctx context.Context, c *wsConn, msg *inboundMessage) {
	switch msg.Type {
	case "listen.start":
		h.startListening(ctx, c)
	case "listen.stop":
		h.engine.StopListening()
	case "speak":
		h.startSpeaking(ctx, c, msg.Data)
	case "speak.stop":
		h.engine.StopSpeaking()
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

// startListening forwards the finished transcript into the conversation, so
// a spoken question gets the same classified reply as a typed one.
func (h *Handler) startListening(ctx context.Context, c *wsConn) {
	results, err := h.engine.StartListening(ctx)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	go func() {
		var res voiceservice.ListenResult
		select {
		case res = <-results:
		case <-ctx.Done():
			return
		}

		if errors.Is(res.Err, voiceservice.ErrListeningCanceled) {
			return
		}
		if res.Err != nil {
			c.sendError(res.Err.Error())
			return
		}

		c.send("transcript", res.Transcript)
		if res.Transcript.Text == "" {
			return
		}
		h.submitTranscript(ctx, c, res.Transcript.Text)
	}()
}

func (h *Handler) submitTranscript(ctx context.Context, c *wsConn, text string) {
	done, err := h.convSvc.Submit(ctx, text)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	select {
	case res := <-done:
		if res.Err != nil {
			c.sendError(res.Err.Error())
		}
		c.send("message", res.User)
		c.send("message", res.Reply)
	case <-ctx.Done():
	}
}

func (h *Handler) startSpeaking(ctx context.Context, c *wsConn, raw json.RawMessage) {
	var req voicemodel.SpeakRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.sendError("invalid speak payload")
		return
	}
	if req.Text == "" {
		return
	}

	done, err := h.engine.Speak(ctx, req)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	go func() {
		select {
		case err := <-done:
			switch {
			case errors.Is(err, voiceservice.ErrUtteranceInterrupted):
				c.send("speak.done", map[string]string{"status": "interrupted"})
			case err != nil:
				c.sendError(err.Error())
			default:
				c.send("speak.done", map[string]string{"status": "completed"})
			}
		case <-ctx.Done():
		}
	}()
}

// writeLoop is the only goroutine writing to the connection; it also owns
// the keepalive pings.
func (c *wsConn) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.writes:
			if err := c.conn.WriteJSON(msg); err != nil {
				slog.Error("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) send(msgType string, data interface{}) {
	msg := outgoingMessage{Type: msgType, Data: data, Timestamp: time.Now().Unix()}
	select {
	case c.writes <- msg:
	default:
		slog.Warn("websocket write buffer full, dropping frame", "type", msgType)
	}
}

func (c *wsConn) sendError(message string) {
	c.send("error", map[string]string{"message": message})
}
