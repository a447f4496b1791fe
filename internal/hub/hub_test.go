package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitechat/sitechat/internal/config"
)

func newTestHub() *Hub {
	h := NewHub(config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	})
	go h.Run()
	return h
}

func newTestClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := NewClient(id, h, nil, h.config)
	h.Register(c)
	return c
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.Send:
		return data
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("client %s unexpectedly received %s", c.ID, data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToChannel(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	a := newTestClient(t, h, "a")
	b := newTestClient(t, h, "b")
	c := newTestClient(t, h, "c")

	h.JoinChannels(a, []string{"r1"})
	h.JoinChannels(b, []string{"r1"})
	h.JoinChannels(c, []string{"r2"})

	req.NoError(h.BroadcastToChannel("r1", map[string]string{"hello": "world"}, ""))

	req.JSONEq(`{"hello":"world"}`, string(recv(t, a)))
	req.JSONEq(`{"hello":"world"}`, string(recv(t, b)))
	assertSilent(t, c)
}

func TestBroadcastExcludesClient(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	a := newTestClient(t, h, "a")
	b := newTestClient(t, h, "b")

	h.JoinChannels(a, []string{"r1"})
	h.JoinChannels(b, []string{"r1"})

	req.NoError(h.BroadcastToChannel("r1", map[string]string{"k": "v"}, "a"))

	recv(t, b)
	assertSilent(t, a)
}

func TestBroadcastExcludesChannelMembers(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	tab1 := newTestClient(t, h, "tab1")
	tab2 := newTestClient(t, h, "tab2")
	admin := newTestClient(t, h, "admin")

	// Two tabs of the same visitor, both in the room and private
	// channels; the admin only in the room channel.
	h.JoinChannels(tab1, []string{"r1", "r1:v1"})
	h.JoinChannels(tab2, []string{"r1", "r1:v1"})
	h.JoinChannels(admin, []string{"r1"})

	req.NoError(h.BroadcastToChannelExcept("r1", "r1:v1", map[string]string{"k": "v"}, "tab1"))

	recv(t, admin)
	assertSilent(t, tab1)
	assertSilent(t, tab2)
}

func TestUnregisterRemovesFromAllChannels(t *testing.T) {
	req := require.New(t)
	h := newTestHub()

	a := newTestClient(t, h, "a")
	b := newTestClient(t, h, "b")

	h.JoinChannels(a, []string{"r1", "r1:v1"})
	h.JoinChannels(b, []string{"r1"})

	h.Unregister(a)
	require.Eventually(t, func() bool {
		return h.ChannelClientCount("r1") == 1 && h.ChannelClientCount("r1:v1") == 0
	}, time.Second, 10*time.Millisecond)

	req.NoError(h.BroadcastToChannel("r1", map[string]string{"k": "v"}, ""))
	recv(t, b)
}
