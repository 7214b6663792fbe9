package prompts

import (
	_ "embed"
	"strings"
)

//go:embed template/system_prompt.txt
var systemPrompt string

// System returns the fixed system instruction injected at the start of every
// conversation that does not already carry one.
func System() string {
	return strings.TrimSpace(systemPrompt)
}
