package rag

import (
	"fmt"
	"strings"
)

// contextHeader prefixes every non-empty formatted context block.
const contextHeader = "RELEVANT CONTEXT:"

// FormatContext renders retrieved rows into a single prompt block, respecting
// the maxChars budget. Blocks are consumed in rank order; the first block
// that would push the accumulated block total past the budget stops the loop.
// A block is never sliced to fit: an oversized top-ranked block is dropped
// whole, yielding an empty result. No results, or no qualifying block, means
// an empty string and no context injection.
func FormatContext(results Result, maxChars int) string {
	if len(results) == 0 {
		return ""
	}

	var blocks []string
	total := 0

	for _, r := range results {
		title := strings.TrimSpace(r.Entry.Title)
		text := strings.TrimSpace(r.Entry.Text)
		if title == "" && text == "" {
			continue
		}

		block := strings.TrimSpace(fmt.Sprintf("[%s]\n%s", title, text))
		if total+len(block) > maxChars {
			break
		}

		blocks = append(blocks, block)
		total += len(block)
	}

	if len(blocks) == 0 {
		return ""
	}

	return contextHeader + "\n\n" + strings.Join(blocks, "\n\n---\n\n")
}
