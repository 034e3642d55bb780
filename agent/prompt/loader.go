package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/intent.txt
var intentRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Intent string
}

// LoadPromptSet returns the embedded prompts, trimmed. The intent prompt contains
// no braces so it is safe to use as an FString template.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Intent: strings.TrimSpace(intentRaw),
	}
}
