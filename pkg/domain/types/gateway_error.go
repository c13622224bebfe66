package types

import "strings"

// GatewayErrorKind is the closed classification of model gateway failures.
// Classification happens once at the gateway boundary; every other layer
// consumes the kind, never re-inspects error text.
type GatewayErrorKind string

const (
	// GatewayErrorRateLimited means the provider rejected the call with a
	// rate-limit response (HTTP 429 or equivalent).
	GatewayErrorRateLimited GatewayErrorKind = "RATE_LIMITED"

	// GatewayErrorQuotaExhausted means the credential's quota is used up.
	GatewayErrorQuotaExhausted GatewayErrorKind = "QUOTA_EXHAUSTED"

	// GatewayErrorUnsupportedField means the provider rejected an optional
	// generation config field (the thinking budget or the JSON response
	// schema). The caller retries exactly once with that field stripped.
	GatewayErrorUnsupportedField GatewayErrorKind = "UNSUPPORTED_FIELD"

	// GatewayErrorOther is any failure outside the retryable classes.
	GatewayErrorOther GatewayErrorKind = "OTHER"
)

// String returns the string representation of the error kind
func (k GatewayErrorKind) String() string {
	return string(k)
}

// ClassifyGatewayError maps a raw provider error to a GatewayErrorKind.
// Provider SDKs do not expose a stable typed error surface for these
// conditions, so classification matches on status text the same way the
// providers document it.
func ClassifyGatewayError(err error) GatewayErrorKind {
	if err == nil {
		return GatewayErrorOther
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota"):
		return GatewayErrorQuotaExhausted
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return GatewayErrorRateLimited
	case strings.Contains(msg, "response_schema") || strings.Contains(msg, "responseschema") ||
		strings.Contains(msg, "thinking_budget") || strings.Contains(msg, "thinkingbudget") ||
		(strings.Contains(msg, "invalid_argument") && (strings.Contains(msg, "schema") || strings.Contains(msg, "thinking"))):
		return GatewayErrorUnsupportedField
	default:
		return GatewayErrorOther
	}
}
