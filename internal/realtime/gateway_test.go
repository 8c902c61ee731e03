package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayForwardsEvents(t *testing.T) {
	relay := NewMemoryRelay()
	defer relay.Close()

	srv := httptest.NewServer(NewGateway(relay, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?channel=main"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, relay.Publish(context.Background(), Main, AddedComment, map[string]string{"postId": "p1"}))

	_ = conn.SetReadDeadline(time.Now().Add(waitFor))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, Main, msg.Channel)
	assert.Equal(t, AddedComment, msg.Event)
	assert.JSONEq(t, `{"postId":"p1"}`, string(msg.Data))
}

func TestGatewayRejectsUnknownChannel(t *testing.T) {
	relay := NewMemoryRelay()
	defer relay.Close()

	srv := httptest.NewServer(NewGateway(relay, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?channel=private"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGatewayClosesWithRelay(t *testing.T) {
	relay := NewMemoryRelay()

	srv := httptest.NewServer(NewGateway(relay, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, relay.Close())

	_ = conn.SetReadDeadline(time.Now().Add(waitFor))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
