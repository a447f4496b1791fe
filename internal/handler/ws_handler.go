package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sitechat/sitechat/internal/config"
	"github.com/sitechat/sitechat/internal/domain"
	"github.com/sitechat/sitechat/internal/hub"
	"github.com/sitechat/sitechat/internal/service"
	"github.com/sitechat/sitechat/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The widget is embedded on arbitrary customer sites.
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage, h.handleDisconnect)
}

// handleMessage dispatches one inbound frame. It runs on the read pump,
// so a connection's events are handled strictly in order; malformed
// frames are dropped without an error event.
func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		return
	}

	ctx := context.Background()
	l := log.L()

	switch base.Type {
	case domain.MsgTypeJoinSession:
		var msg domain.JoinSessionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		if err := h.service.HandleJoinSession(ctx, client, msg.Room, msg.SessionID); err != nil {
			l.Warn().Str(log.FieldClientID, client.ID).Err(err).Msg("join_session failed")
		}

	case domain.MsgTypeSendMessage:
		var msg domain.SendMessageMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		if err := h.service.HandleSendMessage(ctx, client, &msg); err != nil {
			l.Warn().Str(log.FieldClientID, client.ID).Err(err).Msg("send_message failed")
		}

	case domain.MsgTypeUserTyping:
		var msg domain.TypingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		if err := h.service.HandleTyping(ctx, client, msg.Room, msg.Name); err != nil {
			l.Warn().Str(log.FieldClientID, client.ID).Err(err).Msg("user_typing failed")
		}

	case domain.MsgTypeAdminConnect:
		var msg domain.AdminConnectMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		if err := h.service.HandleAdminConnect(ctx, client, msg.Room, msg.AdminID); err != nil {
			l.Warn().Str(log.FieldClientID, client.ID).Err(err).Msg("admin_connect failed")
		}
	}
}

func (h *WSHandler) handleDisconnect(client *hub.Client) {
	if err := h.service.HandleDisconnect(context.Background(), client); err != nil {
		l := log.L()
		l.Warn().Str(log.FieldClientID, client.ID).Err(err).Msg("disconnect handling failed")
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/chat/ws", h.HandleWebSocket)
}
