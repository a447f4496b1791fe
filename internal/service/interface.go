package service

import (
	"context"

	"github.com/sitechat/sitechat/internal/domain"
	"github.com/sitechat/sitechat/internal/hub"
)

type ChatService interface {
	HandleJoinSession(ctx context.Context, client *hub.Client, room, sessionID string) error
	HandleAdminConnect(ctx context.Context, client *hub.Client, room, adminID string) error
	HandleSendMessage(ctx context.Context, client *hub.Client, msg *domain.SendMessageMessage) error
	HandleTyping(ctx context.Context, client *hub.Client, room, name string) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	Start(ctx context.Context) error
	Stop() error
}
