package driven

// PromptStore provides access to the instruction preambles handed to oracles.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptTriagePreamble opens the compiled instruction: role, scope and restrictions.
	// This prompt has no format placeholders; the rules are appended after it.
	PromptTriagePreamble = "triage_preamble"

	// PromptEmailIntro opens the plain text email body.
	// The prompt template expects a %s placeholder for the document name.
	PromptEmailIntro = "email_intro"
)
