package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vigil-data/proctor/internal/httputil"
	"github.com/vigil-data/proctor/internal/monitoring"
	"github.com/vigil-data/proctor/internal/pipeline"
	"github.com/vigil-data/proctor/internal/vision"
)

// Message types on the frame stream.
const (
	MessageTypeFrame    = "frame"
	MessageTypeAnalysis = "analysis"
	MessageTypeError    = "error"
)

// FrameMessage is one inbound frame. Pixels are the raw interleaved RGB
// buffer prepared by the capture client, base64-encoded on the wire by
// the JSON layer. The timestamp is the capture time in seconds.
type FrameMessage struct {
	Type      string  `json:"type"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Pixels    []byte  `json:"pixels"`
	Timestamp float64 `json:"timestamp"`
}

// StreamMessage is one outbound message: a per-frame analysis or an
// error the client can act on.
type StreamMessage struct {
	Type      string           `json:"type"`
	SessionID string           `json:"session_id"`
	Payload   *pipeline.Result `json:"payload,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// FrameStreamHandler upgrades to a WebSocket and processes frames for one
// session until the client disconnects or the session ends. The session
// must already exist; unknown ids are rejected before the upgrade.
func (s *Server) FrameStreamHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.pipe.Summary(sessionID); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("ws upgrade failed for session %s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	monitoring.Logf("ws stream opened for session %s", sessionID)

	for {
		var msg FrameMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				monitoring.Logf("ws stream for session %s closed: %v", sessionID, err)
			}
			return
		}
		if msg.Type != MessageTypeFrame {
			s.writeStreamError(conn, sessionID, "unsupported message type")
			continue
		}

		frame, err := vision.NewFrame(msg.Width, msg.Height, msg.Pixels)
		if err != nil {
			s.writeStreamError(conn, sessionID, err.Error())
			continue
		}

		res, err := s.pipe.Process(r.Context(), sessionID, frame, msg.Timestamp)
		if err != nil {
			switch {
			case errors.Is(err, pipeline.ErrMalformedFrame):
				s.writeStreamError(conn, sessionID, err.Error())
				continue
			case errors.Is(err, pipeline.ErrUnknownSession), errors.Is(err, pipeline.ErrSessionEnded):
				// Session torn down underneath the stream.
				s.writeStreamError(conn, sessionID, err.Error())
				return
			default:
				s.writeStreamError(conn, sessionID, err.Error())
				continue
			}
		}

		out := StreamMessage{Type: MessageTypeAnalysis, SessionID: sessionID, Payload: res}
		if err := conn.WriteJSON(out); err != nil {
			monitoring.Logf("ws write failed for session %s: %v", sessionID, err)
			return
		}
	}
}

func (s *Server) writeStreamError(conn *websocket.Conn, sessionID, msg string) {
	_ = conn.WriteJSON(StreamMessage{Type: MessageTypeError, SessionID: sessionID, Error: msg})
}
