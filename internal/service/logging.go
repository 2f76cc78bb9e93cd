package service

import (
	"voterdesk/internal/constants"
)

// Standard field names used across logging calls so log queries stay
// consistent between packages.
const (
	LogFieldMessageID      = "message_id"
	LogFieldConversationID = "conversation_id"
	LogFieldContactID      = "contact_id"
	LogFieldOperatorID     = "operator_id"
	LogFieldNotificationID = "notification_id"

	LogFieldComponent = "component"
	LogFieldOperation = "operation"

	LogFieldStatus      = "status"
	LogFieldContentKind = "content_kind"
	LogFieldStatusCode  = "status_code"
	LogFieldEndpoint    = "endpoint"
	LogFieldRemoteIP    = "remote_ip"

	LogFieldRequestID = "request_id"
	LogFieldTraceID   = "trace_id"
	LogFieldMethod    = "method"
	LogFieldURL       = "url"
	LogFieldUserAgent = "user_agent"
	LogFieldSize      = "size"

	LogFieldChunk      = "chunk"
	LogFieldChunkSize  = "chunk_size"
	LogFieldRecipients = "recipients"
	LogFieldCount      = "count"
	LogFieldDuration   = "duration_ms"

	LogFieldMediaID   = "media_id"
	LogFieldMediaType = "media_type"
	LogFieldFileName  = "file_name"
	LogFieldFileSize  = "file_size"

	LogFieldErrorCode = "error_code"
	LogFieldReason    = "reason"
)

// SanitizePhoneNumber masks phone numbers for logging; only the last few
// digits survive.
func SanitizePhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}
	if len(phone) > constants.DefaultPhoneMaskLength {
		return "***" + phone[len(phone)-constants.DefaultPhoneMaskLength:]
	}
	return "***"
}

// SanitizeMessageID shortens provider message ids for logging.
func SanitizeMessageID(msgID string) string {
	if msgID == "" {
		return ""
	}
	if len(msgID) > constants.DefaultMessageIDPreview {
		return msgID[:constants.DefaultMessageIDPreview] + "..."
	}
	return msgID
}
