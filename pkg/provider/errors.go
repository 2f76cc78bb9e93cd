package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const maxRawErrorLength = 200

// providerError is the structured error body the provider returns on
// non-2xx responses.
type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
		Subcode int    `json:"error_subcode"`
	} `json:"error"`
}

// messageIDExtractors are tried in order; the provider surfaces the
// assigned id under different keys depending on the call type.
var messageIDExtractors = []func(map[string]interface{}) string{
	func(body map[string]interface{}) string {
		messages, ok := body["messages"].([]interface{})
		if !ok || len(messages) == 0 {
			return ""
		}
		first, ok := messages[0].(map[string]interface{})
		if !ok {
			return ""
		}
		id, _ := first["id"].(string)
		return id
	},
	func(body map[string]interface{}) string {
		id, _ := body["id"].(string)
		return id
	},
	func(body map[string]interface{}) string {
		id, _ := body["message_id"].(string)
		return id
	},
}

// ExtractMessageID pulls the provider-assigned message id out of a raw
// response body. Returns empty when no strategy matches.
func ExtractMessageID(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, extract := range messageIDExtractors {
		if id := extract(body); id != "" {
			return id
		}
	}
	return ""
}

// TranslateErrorBody turns a provider error response into an
// operator-facing cause string. Raw provider text is never surfaced
// except as a truncated last resort.
func TranslateErrorBody(statusCode int, raw []byte) string {
	var parsed providerError
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		switch {
		case parsed.Error.Code == 190 || statusCode == http.StatusUnauthorized:
			return "provider access token expired or invalid; renew the access token"
		case parsed.Error.Code == 429 || parsed.Error.Code == 130429 || statusCode == http.StatusTooManyRequests:
			return "provider rate limit reached; retry with backoff"
		case statusCode >= 400 && statusCode < 500:
			return fmt.Sprintf("provider rejected the request (permission or configuration issue): %s", parsed.Error.Message)
		case statusCode >= 500:
			return "provider temporarily unavailable; retry later"
		}
	}

	if statusCode == http.StatusUnauthorized {
		return "provider access token expired or invalid; renew the access token"
	}
	if statusCode == http.StatusTooManyRequests {
		return "provider rate limit reached; retry with backoff"
	}
	if statusCode >= 500 {
		return "provider temporarily unavailable; retry later"
	}

	summary := strings.TrimSpace(string(raw))
	if len(summary) > maxRawErrorLength {
		summary = summary[:maxRawErrorLength]
	}
	return fmt.Sprintf("provider returned status %d: %s", statusCode, summary)
}
