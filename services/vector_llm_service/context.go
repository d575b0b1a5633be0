package vector_llm_service

import (
	"fmt"
	"strings"

	"github.com/jarbasai/jarbas/chat_type"
)

// FormatContext concatenates snippet texts with source-attribution headers
// under a character budget. Snippets are consumed in the order the vector
// store returned them; once a block would push the total past the budget the
// remaining snippets are dropped whole, never truncated mid-text.
func FormatContext(results []chat_type.SearchResult, charBudget int) string {
	formatted := make([]string, 0, len(results))
	totalChars := 0

	for i := range results {
		block := fmt.Sprintf("[Source: %s]\n%s", results[i].Source(), results[i].Content)
		if totalChars+len(block) > charBudget {
			break
		}
		formatted = append(formatted, block)
		totalChars += len(block)
	}

	return strings.Join(formatted, "\n\n")
}

// fillPrompt substitutes the named template slots before submission to the
// answer generator.
func fillPrompt(template, context, question string) string {
	prompt := strings.ReplaceAll(template, "{context}", context)
	return strings.ReplaceAll(prompt, "{question}", question)
}
