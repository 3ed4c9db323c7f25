package v1

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/insightpilot/insightpilot/pkg/types"
)

// Free-text fallback for the generation intents. When the structured
// provider path fails, the orchestrator builds its own prompt, parses the
// raw completion into items, scores them and pads with placeholders so
// the caller always receives the requested count.

type GeneratedItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	MetricID    string  `json:"metric_id,omitempty"`
	MetricTitle string  `json:"metric_title,omitempty"`
	Confidence  float64 `json:"confidence"`
	Synthesized bool    `json:"synthesized,omitempty"`
}

// promptContentLimit caps per-item content in fallback prompts, in runes.
const promptContentLimit = 400

// ParseResult is a tagged variant: either ok with items or failed with a
// reason. A failed parse still reaches the requested count through
// synthesis, the tag only records how the content was obtained.
type ParseResult struct {
	OK     bool
	Items  []GeneratedItem
	Reason string
}

func buildQuestionPrompt(items []types.ContextItem, userQuery string, count int) string {
	var sb strings.Builder
	sb.WriteString("You are a product research assistant. Based on the research context below, ")
	fmt.Fprintf(&sb, "write exactly %d \"How might we\" questions.\n", count)
	sb.WriteString("Each question must start with \"How might we\" and end with a question mark.\n")
	sb.WriteString("Return one question per line, numbered.\n\n")
	writePromptContext(&sb, items)
	if userQuery != "" {
		fmt.Fprintf(&sb, "\nThe researcher asked: %s\n", userQuery)
	}
	return sb.String()
}

func buildSolutionPrompt(items []types.ContextItem, userQuery string, count int) string {
	var sb strings.Builder
	sb.WriteString("You are a product research assistant. Based on the research context below, ")
	fmt.Fprintf(&sb, "propose exactly %d solution ideas.\n", count)
	sb.WriteString("Format each idea as \"N. Title - Description\" on its own line.\n\n")
	writePromptContext(&sb, items)
	if userQuery != "" {
		fmt.Fprintf(&sb, "\nThe researcher asked: %s\n", userQuery)
	}
	return sb.String()
}

func writePromptContext(sb *strings.Builder, items []types.ContextItem) {
	if len(items) == 0 {
		sb.WriteString("Research context: (none selected)\n")
		return
	}
	sb.WriteString("Research context:\n")
	for _, item := range items {
		content := item.Content
		// cut on a rune boundary so multibyte content stays valid UTF-8
		if runes := []rune(content); len(runes) > promptContentLimit {
			content = string(runes[:promptContentLimit])
		}
		fmt.Fprintf(sb, "- [%s] %s: %s\n", item.Type, item.Title, content)
	}
}

var listLineRe = regexp.MustCompile(`^\s*(?:\d+[.)]\s*|[-*•]\s*)(.+)$`)

// parseGeneratedList pulls list items out of free-form completion text.
func parseGeneratedList(raw string) ParseResult {
	var items []GeneratedItem
	for _, line := range strings.Split(raw, "\n") {
		m := listLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[1])
		if text == "" {
			continue
		}

		title, desc := text, ""
		for _, sep := range []string{" - ", ": ", " — "} {
			if idx := strings.Index(text, sep); idx > 0 {
				title = strings.TrimSpace(text[:idx])
				desc = strings.TrimSpace(text[idx+len(sep):])
				break
			}
		}
		items = append(items, GeneratedItem{Title: title, Description: desc})
	}

	if len(items) == 0 {
		return ParseResult{OK: false, Reason: "no list items found in completion"}
	}
	return ParseResult{OK: true, Items: items}
}

// normalizeQuestion forces the how-might-we frame onto a parsed line.
func normalizeQuestion(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ".")
	if !strings.HasPrefix(strings.ToLower(text), "how might we") {
		lowered := strings.TrimRight(text, "?")
		if lowered != "" {
			lowered = strings.ToLower(lowered[:1]) + lowered[1:]
		}
		text = "How might we " + strings.TrimSpace(strings.TrimPrefix(lowered, "how "))
	}
	if !strings.HasSuffix(text, "?") {
		text += "?"
	}
	return text
}

// scoreGenerated estimates per-item confidence from how much of the item
// is anchored in the selected context.
func scoreGenerated(item GeneratedItem, contextItems []types.ContextItem) float64 {
	confidence := 0.5
	text := item.Title + " " + item.Description

	best := 0.0
	for _, ctx := range contextItems {
		if overlap := keywordOverlap(text, ctx.Title+" "+ctx.Content); overlap > best {
			best = overlap
		}
	}
	confidence += best * 0.4

	if len([]rune(item.Title)) < 12 {
		confidence -= 0.1
	}
	if item.Synthesized {
		confidence = 0.2
	}

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	return confidence
}

// attachMetric picks the metric item with the strongest keyword overlap
// against the solution text. No metric in context means no attachment.
func attachMetric(item *GeneratedItem, contextItems []types.ContextItem) {
	metrics := lo.Filter(contextItems, func(c types.ContextItem, _ int) bool {
		return c.Type == types.CONTEXT_ITEM_METRIC
	})
	if len(metrics) == 0 {
		return
	}

	bestScore := -1.0
	var best types.ContextItem
	text := item.Title + " " + item.Description
	for _, m := range metrics {
		if score := keywordOverlap(text, m.Title+" "+m.Content); score > bestScore {
			bestScore = score
			best = m
		}
	}
	item.MetricID = best.ID
	item.MetricTitle = best.Title
}

// synthesizePlaceholders pads the item list up to count with generic
// entries keyed off whatever context is available.
func synthesizePlaceholders(items []GeneratedItem, contextItems []types.ContextItem, count int, question bool) []GeneratedItem {
	for i := len(items); i < count; i++ {
		seed := "the selected research context"
		if len(contextItems) > 0 {
			seed = contextItems[i%len(contextItems)].Title
		}

		var item GeneratedItem
		if question {
			item = GeneratedItem{
				Title:       normalizeQuestion(fmt.Sprintf("How might we improve outcomes related to %s", seed)),
				Synthesized: true,
			}
		} else {
			item = GeneratedItem{
				Title:       fmt.Sprintf("Explore improvements around %s", seed),
				Description: fmt.Sprintf("Placeholder direction derived from %s; refine with more context.", seed),
				Synthesized: true,
			}
		}
		items = append(items, item)
	}
	return items
}

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// stop words excluded from overlap scoring
var overlapStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "are": true, "was": true, "our": true, "how": true,
	"might": true, "from": true, "have": true, "what": true, "about": true,
}

// keywordOverlap is the share of meaningful words in a that also occur in
// b, in [0,1].
func keywordOverlap(a, b string) float64 {
	aWords := meaningfulWords(a)
	if len(aWords) == 0 {
		return 0
	}
	bSet := make(map[string]bool)
	for _, w := range meaningfulWords(b) {
		bSet[w] = true
	}

	matched := 0
	for _, w := range aWords {
		if bSet[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(aWords))
}

func meaningfulWords(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	return lo.Filter(words, func(w string, _ int) bool {
		return len(w) > 2 && !overlapStopWords[w]
	})
}
