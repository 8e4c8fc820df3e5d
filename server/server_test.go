package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/mathkombat/model"
)

func startServer(t *testing.T, maxSessions int) (*GameServer, *httptest.Server) {
	gsrv := NewGameServer(testDeps(t, 3))
	gsrv.MaxSessions = maxSessions
	ctx, cancel := context.WithCancel(context.Background())
	go gsrv.Loop(ctx)

	router := way.NewRouter()
	router.HandleFunc("GET", "/play", gsrv.HandleHttpCall())
	router.HandleFunc("GET", "/history", gsrv.HandleHistory())
	router.HandleFunc("GET", "/healthz", gsrv.HandleHealth())
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return gsrv, srv
}

func dial(t *testing.T, srv *httptest.Server, codec Codec) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/play?codec=" + codec.Name()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, codec Codec, cm model.ClientMessage) {
	w, err := conn.NextWriter(codec.MessageType())
	require.NoError(t, err)
	require.NoError(t, codec.Encode(w, cm))
	require.NoError(t, w.Close())
}

// readUntil reads server messages until one satisfies found.
func readUntil(t *testing.T, conn *websocket.Conn, codec Codec, found func(model.ServerMessage) bool) model.ServerMessage {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for i := 0; i < 50; i++ {
		_, r, err := conn.NextReader()
		require.NoError(t, err)
		msg := model.ServerMessage{}
		require.NoError(t, codec.Decode(r, &msg))
		if found(msg) {
			return msg
		}
	}
	t.Fatal("expected message never came")
	return model.ServerMessage{}
}

func TestPlayOverEveryCodec(t *testing.T) {
	for _, name := range []string{"json", "gob", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			codec, err := CodecByName(name)
			require.NoError(t, err)
			_, srv := startServer(t, DefaultMaxSessions)
			conn := dial(t, srv, codec)

			p := model.Profile{Name: "Neo", Age: 20, Difficulty: model.Veteran}
			write(t, conn, codec, model.ClientMessage{Profile: &p})
			msg := readUntil(t, conn, codec, func(m model.ServerMessage) bool { return len(m.Intro) > 0 })
			assert.True(t, msg.Intro[0].Fallback)

			write(t, conn, codec, model.ClientMessage{Start: true})
			msg = readUntil(t, conn, codec, func(m model.ServerMessage) bool { return len(m.Snapshots) > 0 })
			snap := msg.Snapshots[0]
			assert.Equal(t, "ACTIVE", snap.State)
			assert.Equal(t, 6, snap.Cols)
			assert.Equal(t, 3, snap.Rows)
			assert.Equal(t, 3, snap.Lives)
			assert.Len(t, snap.Ghosts, 4)
			assert.NotEmpty(t, snap.Collectibles)

			write(t, conn, codec, model.ClientMessage{Moves: []model.Direction{model.RIGHT}})
			msg = readUntil(t, conn, codec, func(m model.ServerMessage) bool {
				return len(m.Snapshots) > 0 && len(m.Snapshots[0].Prompt) > 0
			})
			prompt := msg.Snapshots[0].Prompt[0]
			assert.Len(t, prompt.Options, 4)
			assert.Equal(t, 10, prompt.Countdown)
		})
	}
}

func TestUndecodableMessage(t *testing.T) {
	_, srv := startServer(t, DefaultMaxSessions)
	codec, _ := CodecByName("json")
	conn := dial(t, srv, codec)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readUntil(t, conn, codec, func(m model.ServerMessage) bool { return len(m.Errors) > 0 })
	assert.NotEmpty(t, msg.Errors[0])
}

func TestUnknownCodec(t *testing.T) {
	_, srv := startServer(t, DefaultMaxSessions)
	resp, err := http.Get(srv.URL + "/play?codec=xml")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerFull(t *testing.T) {
	_, srv := startServer(t, 0)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/play"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func sessions(t *testing.T, srv *httptest.Server) int {
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["sessions"]
}

func TestSessionsAreReleased(t *testing.T) {
	_, srv := startServer(t, DefaultMaxSessions)
	codec, _ := CodecByName("")
	conn := dial(t, srv, codec)
	assert.Eventually(t, func() bool { return sessions(t, srv) == 1 }, 2*time.Second, 20*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return sessions(t, srv) == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestHistoryEndpoint(t *testing.T) {
	gsrv, srv := startServer(t, DefaultMaxSessions)
	gsrv.Deps.Reporter.History.Add(model.GameRecord{Id: "m1", Profile: model.Profile{Name: "Tank"}})

	resp, err := http.Get(srv.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var records []model.GameRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "Tank", records[0].Profile.Name)
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]string{"": "json", "json": "json", "gob": "gob", "msgpack": "msgpack"} {
		c, err := CodecByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, c.Name())
	}
	_, err := CodecByName("protobuf")
	assert.Error(t, err)
}

func TestLateSessionIsStopped(t *testing.T) {
	gsrv := NewGameServer(testDeps(t, 3))
	gsrv.RequestTimeout = 20 * time.Millisecond
	gs := NewGameSession(context.Background(), gsrv.Deps)
	go gs.Loop()
	defer gs.Stop()

	// a registry too busy to answer in time
	go func() {
		req := <-gsrv.GameRequests
		time.Sleep(100 * time.Millisecond)
		req.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_READY, GameSession: gs}
	}()

	rec := httptest.NewRecorder()
	gsrv.HandleHttpCall()(rec, httptest.NewRequest(http.MethodGet, "/play", nil))
	assert.Equal(t, HTTP_TIMEOUT, rec.Code)
	select {
	case <-gs.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("late session still running")
	}
}
