// Package errors provides structured error handling for the kingdom lifecycle.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Cycle errors. Each one is terminal for the cycle that raised it.
	CodeStoreUnavailable   Code = "STORE_UNAVAILABLE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeEngineError        Code = "ENGINE_ERROR"
	CodeMalformedResponse  Code = "MALFORMED_RESPONSE"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeSizeBudgetExceeded Code = "SIZE_BUDGET_EXCEEDED"
	CodeBusy               Code = "BUSY"
	CodeTimeout            Code = "TIMEOUT"

	// Input validation errors
	CodeKingdomNameEmpty  Code = "KINGDOM_NAME_EMPTY"
	CodeActionEmpty       Code = "ACTION_EMPTY"
	CodeQuestionEmpty     Code = "QUESTION_EMPTY"
	CodeCheatNameEmpty    Code = "CHEAT_NAME_EMPTY"
	CodePatchNameEmpty    Code = "PATCH_NAME_EMPTY"
	CodeCharacterInvalid  Code = "CHARACTER_INVALID"
	CodeCityEmpty         Code = "CITY_EMPTY"
	CodeMediaQueryEmpty   Code = "MEDIA_QUERY_EMPTY"
	CodeLocationMissing   Code = "LOCATION_MISSING"
	CodeIntentInvalidMode Code = "INTENT_INVALID_MODE"

	// Configuration errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// Retryable reports whether a caller-level retry of the whole operation is a
// reasonable strategy for this code. The lifecycle core never retries; this
// classification exists for dispatch layers that choose to.
func (c Code) Retryable() bool {
	switch c {
	case CodeStoreUnavailable,
		CodeEngineError,
		CodeTimeout,
		CodeBusy:
		return true
	default:
		return false
	}
}
