package validation

// Category is a coarse error class used to pick a user-facing message.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryNetwork    Category = "network"
	CategoryValidation Category = "validation"
	CategoryStorage    Category = "storage"
	CategoryRateLimit  Category = "rate_limit"
)

var genericMessages = map[Category]string{
	CategoryAuth:       "Authentication failed. Please check your credentials and try again.",
	CategoryNetwork:    "Network error. Please check your connection and try again.",
	CategoryValidation: "Please check your input and try again.",
	CategoryStorage:    "We could not save or load your resume. Please try again.",
	CategoryRateLimit:  "Too many attempts. Please wait a moment and try again.",
}

const defaultMessage = "An unexpected error occurred. Please try again."

// GenericErrorMessage maps a category to a user-safe message. Backend detail
// is never included.
func GenericErrorMessage(category Category) string {
	if msg, ok := genericMessages[category]; ok {
		return msg
	}
	return defaultMessage
}
