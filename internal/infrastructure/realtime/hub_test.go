package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleservice/backend/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startHub(t *testing.T, originAllowed func(string) bool) (*Hub, string) {
	t.Helper()
	hub := NewHub(originAllowed)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws/orders", hub.Handler())
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders"
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub, url := startHub(t, nil)
	first := dial(t, url, nil)
	second := dial(t, url, nil)

	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(domain.OrderEvent{
		Type:  "orderUpdate",
		Order: domain.Order{Number: "CMD-1A2B3C4D", Status: domain.OrderPaid},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got domain.OrderEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "orderUpdate", got.Type)
		assert.Equal(t, "CMD-1A2B3C4D", got.Order.Number)
		assert.Equal(t, domain.OrderPaid, got.Order.Status)
	}
}

func TestHub_RemovesDisconnectedClients(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, url, nil)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CheckOrigin(t *testing.T) {
	_, url := startHub(t, func(origin string) bool { return origin == "https://shop.example" })

	allowed := http.Header{"Origin": []string{"https://shop.example"}}
	dial(t, url, allowed)

	denied := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, denied)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_PublishDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBufferSize+10; i++ {
			hub.Publish(domain.OrderEvent{Type: "orderUpdate"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no running hub")
	}
	assert.Len(t, hub.events, eventBufferSize)
}
