package mixer

import "context"

// View is the surface a front end exposes to the orchestrator. Calls are made from
// the goroutine running Run; implementations that own a UI loop must hand them over.
type View interface {
	// Topics returns the raw topic field values in display order
	Topics() []string
	SetLoading(loading bool)
	// ShowResult replaces the result area with rendered markup
	ShowResult(markup string)
	ShowError(message string)
	// ShowNotice displays neutral information in the result area
	ShowNotice(message string)
	// Alert is a blocking notice the user must acknowledge
	Alert(message string)
	// PromptForCredential asks for the API key. ok is false when the user declined.
	PromptForCredential(ctx context.Context) (value string, ok bool)
}
