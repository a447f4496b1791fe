package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sitechat/sitechat/internal/domain"
	"github.com/sitechat/sitechat/internal/storage"
	"github.com/sitechat/sitechat/pkg/log"
	"github.com/sitechat/sitechat/pkg/middleware"
	"github.com/sitechat/sitechat/pkg/response"
)

// HTTPHandler serves the dashboard REST surface and the widget
// bootstrap endpoints.
type HTTPHandler struct {
	store          storage.Store
	authMiddleware *middleware.AuthMiddleware
}

func NewHTTPHandler(store storage.Store, authMiddleware *middleware.AuthMiddleware) *HTTPHandler {
	return &HTTPHandler{
		store:          store,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		rooms := api.Group("/rooms")
		{
			// Widget-facing routes
			rooms.GET("/:code/settings", h.GetWidgetSettings)
			rooms.POST("/:code/sessions", h.CreateSession)

			// Dashboard routes
			rooms.POST("", h.authMiddleware.RequireAuth(), h.CreateRoom)
			rooms.PUT("/:code/settings", h.authMiddleware.RequireAuth(), h.UpdateWidgetSettings)
			rooms.GET("/:code/sessions", h.authMiddleware.RequireAuth(), h.ListSessions)
			rooms.GET("/:code/sessions/:session/messages", h.authMiddleware.RequireAuth(), h.ListMessages)
		}
	}
}

type createRoomRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

func (h *HTTPHandler) CreateRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	adminID := middleware.GetAdminID(c)
	if adminID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.store.CreateRoom(ctx, adminID, req.Name)
	if err != nil {
		l.Error().Err(err).Msg("failed to create room")
		response.InternalError(c, "failed to create room")
		return
	}

	l.Info().
		Str(log.FieldAdminID, adminID).
		Str("admin_name", middleware.GetAdminName(c)).
		Str(log.FieldRoom, room.Code).
		Msg("room created")

	response.Created(c, room)
}

func (h *HTTPHandler) GetWidgetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID, ok := h.resolveRoom(c)
	if !ok {
		return
	}

	settings, err := h.store.GetWidgetSettings(ctx, roomID)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldRoomID, roomID).Msg("failed to get widget settings")
		response.InternalError(c, "failed to get widget settings")
		return
	}

	response.Success(c, settings)
}

type updateSettingsRequest struct {
	Color    string `json:"color" binding:"max=20"`
	Greeting string `json:"greeting" binding:"max=500"`
	Position string `json:"position" binding:"omitempty,oneof=left right"`
}

func (h *HTTPHandler) UpdateWidgetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID, ok := h.resolveRoom(c)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings := &domain.WidgetSettings{
		RoomID:   roomID,
		Color:    req.Color,
		Greeting: req.Greeting,
		Position: req.Position,
	}
	if err := h.store.SaveWidgetSettings(ctx, settings); err != nil {
		l.Error().Err(err).Int64(log.FieldRoomID, roomID).Msg("failed to save widget settings")
		response.InternalError(c, "failed to save widget settings")
		return
	}

	response.Success(c, settings)
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name" binding:"required,max=100"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// CreateSession registers a visitor identity for a room. The widget
// calls this once before opening its websocket.
func (h *HTTPHandler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID, ok := h.resolveRoom(c)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}
	if req.SessionID == domain.AdminSessionID {
		response.BadRequest(c, "reserved session id")
		return
	}

	session, err := h.store.CreateSession(ctx, roomID, req.SessionID, req.Name, req.Email)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldRoomID, roomID).Msg("failed to create session")
		response.InternalError(c, "failed to create session")
		return
	}

	response.Created(c, session)
}

func (h *HTTPHandler) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID, ok := h.resolveRoom(c)
	if !ok {
		return
	}

	sessions, err := h.store.ListSessions(ctx, roomID)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldRoomID, roomID).Msg("failed to list sessions")
		response.InternalError(c, "failed to list sessions")
		return
	}

	response.Success(c, sessions)
}

func (h *HTTPHandler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID, ok := h.resolveRoom(c)
	if !ok {
		return
	}

	messages, err := h.store.ListMessages(ctx, roomID, c.Param("session"), 200)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldRoomID, roomID).Msg("failed to list messages")
		response.InternalError(c, "failed to list messages")
		return
	}

	response.Success(c, messages)
}

func (h *HTTPHandler) resolveRoom(c *gin.Context) (int64, bool) {
	ctx := c.Request.Context()

	roomID, err := h.store.FindRoomID(ctx, c.Param("code"))
	if err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return 0, false
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, c.Param("code")).Msg("room lookup failed")
		response.InternalError(c, "room lookup failed")
		return 0, false
	}
	return roomID, true
}
