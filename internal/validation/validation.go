package validation

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"voterdesk/internal/constants"
	"voterdesk/internal/errors"
)

// NormalizePhone reduces a provider-reported or operator-entered phone
// number to the 10-digit national form used as the contact lookup key.
// Rules: strip every non-digit; a 12-digit number starting with the
// configured country code keeps its trailing 10 digits; a 10-digit number
// is taken as-is; anything else fails resolution.
func NormalizePhone(raw, countryCode string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()

	if cleaned == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "phone number has no digits")
	}

	national := constants.NationalNumberDigits
	switch {
	case len(cleaned) == national:
		return cleaned, nil
	case len(cleaned) == national+len(countryCode) && strings.HasPrefix(cleaned, countryCode):
		return cleaned[len(countryCode):], nil
	}

	return "", errors.New(errors.ErrCodeInvalidInput,
		fmt.Sprintf("cannot normalize phone number of %d digits", len(cleaned)))
}

// ValidatePhoneNumber checks length and digit-only content of an already
// normalized number.
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return errors.New(errors.ErrCodeInvalidInput, "phone number cannot be empty")
	}

	cleaned := strings.TrimPrefix(phone, "+")

	if len(cleaned) < constants.MinPhoneNumberLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("phone number must be at least %d digits", constants.MinPhoneNumberLength))
	}
	if len(cleaned) > constants.MaxPhoneNumberLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("phone number too long (max %d digits)", constants.MaxPhoneNumberLength))
	}

	for _, char := range cleaned {
		if !unicode.IsDigit(char) {
			return errors.New(errors.ErrCodeInvalidInput, "phone number must contain only digits")
		}
	}

	return nil
}

// ValidateMessageID validates message ID format and length
func ValidateMessageID(messageID string) error {
	if messageID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "message ID cannot be empty")
	}

	if len(messageID) > constants.MaxMessageIDLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("message ID too long (max %d characters)", constants.MaxMessageIDLength))
	}

	for _, char := range messageID {
		if char == '\x00' || char == '\n' || char == '\r' || char == '\t' {
			return errors.New(errors.ErrCodeInvalidInput, "message ID contains invalid characters")
		}
	}

	return nil
}

// ValidateMessageBody bounds free-form body size.
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "message body cannot be empty")
	}
	if len(body) > constants.MaxMessageBodyBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("message body too long (max %d bytes)", constants.MaxMessageBodyBytes))
	}
	return nil
}

// ValidateRecipients bounds the batch size before resolution runs.
func ValidateRecipients(recipients []string) error {
	if len(recipients) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one recipient is required")
	}
	if len(recipients) > constants.MaxRecipientsPerSend {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("too many recipients (max %d)", constants.MaxRecipientsPerSend))
	}
	return nil
}

// ValidateHTTPRequestSize validates incoming HTTP request size
func ValidateHTTPRequestSize(r *http.Request, maxSizeBytes int64) error {
	if r.ContentLength < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid content length")
	}

	if r.ContentLength > maxSizeBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("request too large: %d bytes (max %d bytes)", r.ContentLength, maxSizeBytes))
	}

	return nil
}
