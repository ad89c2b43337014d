package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-data/proctor/internal/config"
	"github.com/vigil-data/proctor/internal/headpose"
	"github.com/vigil-data/proctor/internal/objectfilter"
	"github.com/vigil-data/proctor/internal/pipeline"
	"github.com/vigil-data/proctor/internal/testutil"
	"github.com/vigil-data/proctor/internal/vision"
)

type stubLandmarks struct{}

func (stubLandmarks) Landmarks(ctx context.Context, _ *vision.Frame) (*headpose.Landmarks, error) {
	return nil, nil
}

type stubObjects struct {
	dets []objectfilter.Detection
}

func (s stubObjects) Detect(ctx context.Context, _ *vision.Frame) ([]objectfilter.Detection, error) {
	return s.dets, nil
}

func newTestServer(dets []objectfilter.Detection) *Server {
	pipe := pipeline.New(config.EmptyTuningConfig(), stubLandmarks{}, stubObjects{dets: dets}, nil)
	return NewServer(pipe)
}

func TestHealthHandler(t *testing.T) {
	srv := httptest.NewServer(newTestServer(nil).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestSessionLifecycle(t *testing.T) {
	srv := httptest.NewServer(newTestServer(nil).Router())
	defer srv.Close()

	// Create with an explicit id.
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json",
		bytes.NewBufferString(`{"session_id":"exam-1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate id is a conflict.
	resp, err = http.Post(srv.URL+"/api/sessions", "application/json",
		bytes.NewBufferString(`{"session_id":"exam-1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Empty body generates an id.
	resp, err = http.Post(srv.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created["session_id"])

	// Summary of a live session.
	resp, err = http.Get(srv.URL + "/api/sessions/exam-1")
	require.NoError(t, err)
	var summary pipeline.SessionSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	resp.Body.Close()
	assert.Equal(t, "exam-1", summary.SessionID)

	// Teardown, then the session is gone.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/exam-1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/sessions/exam-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSummaryUnknownSession(t *testing.T) {
	srv := httptest.NewServer(newTestServer(nil).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/sessions/ghost")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}

func TestFrameStream(t *testing.T) {
	dets := []objectfilter.Detection{{ClassName: "cell phone", Confidence: 0.9}}
	srv := httptest.NewServer(newTestServer(dets).Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json",
		bytes.NewBufferString(`{"session_id":"ws-exam"}`))
	require.NoError(t, err)
	resp.Body.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/ws/ws-exam"), nil)
	require.NoError(t, err)
	defer conn.Close()

	frame := FrameMessage{
		Type:      MessageTypeFrame,
		Width:     16,
		Height:    12,
		Pixels:    testutil.SolidFrame(16, 12, 90),
		Timestamp: 1.0,
	}
	require.NoError(t, conn.WriteJSON(frame))

	var out StreamMessage
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, MessageTypeAnalysis, out.Type)
	require.NotNil(t, out.Payload)
	assert.Equal(t, "ws-exam", out.Payload.SessionID)
	assert.Equal(t, []string{"phone"}, out.Payload.Objects.Labels())
	assert.Equal(t, 30+10, out.Payload.Risk.RiskScore)

	// A malformed frame yields an error message but keeps the stream
	// alive.
	bad := FrameMessage{Type: MessageTypeFrame, Width: 0, Height: 0, Timestamp: 2.0}
	require.NoError(t, conn.WriteJSON(bad))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, MessageTypeError, out.Type)

	good := frame
	good.Timestamp = 3.0
	require.NoError(t, conn.WriteJSON(good))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, MessageTypeAnalysis, out.Type)
}

func TestFrameStreamUnknownSessionRejected(t *testing.T) {
	srv := httptest.NewServer(newTestServer(nil).Router())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, "/ws/ghost"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
