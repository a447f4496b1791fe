package hub

import (
	"encoding/json"
	"sync"

	"github.com/sitechat/sitechat/internal/config"
	"github.com/sitechat/sitechat/pkg/log"
)

// Hub owns channel membership for all live connections. A channel is a
// named broadcast scope: the room-wide channel and one private channel
// per visitor session (see channels.go).
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	channels   map[string]map[string]*Client // channel -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *ChannelMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// ChannelMessage is a payload addressed to one channel. ExcludeChannel
// removes every member of that channel from the recipient set;
// ExcludeClient removes a single connection.
type ChannelMessage struct {
	Channel        string
	ExcludeChannel string
	ExcludeClient  string
	Payload        []byte
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *ChannelMessage, 256),
		config:     cfg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for name, members := range h.channels {
					delete(members, client.ID)
					if len(members) == 0 {
						delete(h.channels, name)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *ChannelMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.channels[msg.Channel]
	if !ok {
		return
	}

	var excluded map[string]*Client
	if msg.ExcludeChannel != "" {
		excluded = h.channels[msg.ExcludeChannel]
	}

	for clientID, client := range members {
		if clientID == msg.ExcludeClient {
			continue
		}
		if _, skip := excluded[clientID]; skip {
			continue
		}
		select {
		case client.Send <- msg.Payload:
		default:
			// Slow consumer; drop the connection rather than block fan-out.
			go h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinChannels adds a client to every named channel.
func (h *Hub) JoinChannels(client *Client, names []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range names {
		if _, ok := h.channels[name]; !ok {
			h.channels[name] = make(map[string]*Client)
		}
		h.channels[name][client.ID] = client
	}
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Strs("channels", names).Msg("client joined channels")
}

// BroadcastToChannel queues a message for every member of a channel,
// minus an optional single excluded connection.
func (h *Hub) BroadcastToChannel(channel string, message interface{}, excludeClient string) error {
	return h.BroadcastToChannelExcept(channel, "", message, excludeClient)
}

// BroadcastToChannelExcept queues a message for every member of channel
// that is not also a member of excludeChannel.
func (h *Hub) BroadcastToChannelExcept(channel, excludeChannel string, message interface{}, excludeClient string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &ChannelMessage{
		Channel:        channel,
		ExcludeChannel: excludeChannel,
		ExcludeClient:  excludeClient,
		Payload:        data,
	}
	return nil
}

// ChannelClientCount returns the number of live connections in a channel.
func (h *Hub) ChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.channels[channel]; ok {
		return len(members)
	}
	return 0
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
