package audit

import (
	"context"

	"github.com/sitechat/sitechat/pkg/log"
)

// Audit actions for the coordinator.
const (
	ActionJoinSession  = "chat.join_session"
	ActionAdminConnect = "chat.admin_connect"
	ActionSendMessage  = "chat.send_message"
	ActionDisconnect   = "chat.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, subjectID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldSessionID, subjectID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action string, subjectID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldSessionID, subjectID).
		Str(FieldDetail, detail).
		Msg(msg)
}
