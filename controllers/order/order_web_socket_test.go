package orderControllers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajebo/storefront-api/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	r := gin.New()
	r.GET("/ws", h.Handler())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBroadcastDeliversEvent(t *testing.T) {
	h := NewHub(nil)
	conn := dialHub(t, h)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Broadcast(EventOrderUpdated, &models.Order{ID: 7, Reference: "ord-7", Status: models.OrderStatusCancelled})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event OrderEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventOrderUpdated, event.Event)
	require.NotNil(t, event.Order)
	assert.Equal(t, "ord-7", event.Order.Reference)
}

func TestBroadcastDoesNotWaitOnStalledClient(t *testing.T) {
	h := NewHub(nil)
	dialHub(t, h) // never reads
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Far more than the socket buffers can hold.
	order := &models.Order{Reference: "big", ShipLine1: strings.Repeat("x", 64<<10)}

	start := time.Now()
	for range 500 {
		h.Broadcast(EventOrderPaid, order)
	}
	assert.Less(t, time.Since(start), writeWait)
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientRemovedOnDisconnect(t *testing.T) {
	h := NewHub(nil)
	conn := dialHub(t, h)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	h.Broadcast(EventOrderPaid, &models.Order{Reference: "after-close"})
}
