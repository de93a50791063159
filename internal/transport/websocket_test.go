package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/erilali/framechat/internal/frame"
)

// echoServer upgrades every request and copies the stream back.
func echoServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(conn, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketConn_FramesRoundTrip(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := DialWebSocket(ctx, echoServer(t))
	req.NoError(err)
	defer conn.Close()

	// When two frames are written as two websocket messages
	req.NoError(frame.Write(conn, frame.Must("alice", "hi")))
	req.NoError(frame.Write(conn, frame.Must("alice", "Привет")))

	// Then the decoder sees a continuous stream
	first, err := frame.Decode(conn)
	req.NoError(err)
	req.Equal("hi", first.Body())
	second, err := frame.Decode(conn)
	req.NoError(err)
	req.Equal("Привет", second.Body())
}

func TestWebSocketConn_ReadAcrossMessages(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := DialWebSocket(ctx, echoServer(t))
	req.NoError(err)
	defer conn.Close()

	raw, err := frame.Encode(frame.Must("bob", "split frame"))
	req.NoError(err)
	// A frame split into three messages still decodes
	_, err = conn.Write(raw[:1])
	req.NoError(err)
	_, err = conn.Write(raw[1:5])
	req.NoError(err)
	_, err = conn.Write(raw[5:])
	req.NoError(err)

	u, err := frame.Decode(conn)
	req.NoError(err)
	req.Equal("bob", u.Sender())
	req.Equal("split frame", u.Body())
}

func TestWebSocketConn_TextMessageRejected(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		defer conn.Close()
		_, err = frame.Decode(conn)
		if err == ErrTextMessage {
			_ = frame.Write(conn, frame.Rejection)
		}
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	req.NoError(err)
	defer ws.Close()
	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte("hello")))

	_, data, err := ws.ReadMessage()
	req.NoError(err)
	raw, err := frame.Encode(frame.Rejection)
	req.NoError(err)
	req.Equal(raw, data)
}

func TestWebSocketConn_CloseIsEOF(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	conn, err := DialWebSocket(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	req.NoError(err)
	defer conn.Close()

	_, err = frame.Decode(conn)
	req.ErrorIs(err, io.EOF)
}
