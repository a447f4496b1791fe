package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldAdminID = "admin_id"

	// Chat entities
	FieldRoom      = "room"
	FieldRoomID    = "room_id"
	FieldSessionID = "session_id"
	FieldClientID  = "client_id"
	FieldMessageID = "message_id"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
