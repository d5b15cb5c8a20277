package mixer

import "fmt"

// User facing text.
const (
	IdleLabel    = "Mix Ideas!"
	LoadingLabel = "Mixing..."

	CredentialPromptLabel = "Please enter your Google Gemini API Key:"

	CredentialRequiredAlert = "API Key is required to mix ideas."
	TooFewTopicsAlert       = "Please enter at least two topics to mix."
	EmptyResultNotice       = "No ideas generated. The model might have been filtered or returned an empty response."
	BusyNotice              = "Ideas are already being mixed."

	errorPrefix            = "An error occurred: "
	invalidKeySuffix       = ". Please check your API key."
	invalidKeyFollowUp     = "Please ensure your Gemini API key is correct and has the necessary permissions."
	modelNotFoundFormat    = ". Model '%s' might be incorrect or unavailable for your region/project. Check documentation."
	topicPlaceholderFormat = "Enter topic #%d"
)

// TopicPlaceholder is the hint shown in the n-th topic field, counting from 1.
func TopicPlaceholder(n int) string {
	return fmt.Sprintf(topicPlaceholderFormat, n)
}
