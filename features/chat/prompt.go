package chat

import (
	"fmt"
	"strings"

	"ragcore/internal/retrieval"
)

// NoContextAnswer is the canonical refusal sentence. It is both what the
// model is instructed to reply when unsupported and what the orchestrator
// returns when retrieval finds nothing.
const NoContextAnswer = "I don't have enough information in the provided data."

const systemInstruction = "You are a concise AI assistant. " +
	"Answer ONLY using the provided context snippets. " +
	"If the answer is not clearly supported by the context, reply exactly:\n" +
	"\"I don't have enough information in the provided data.\" " +
	"Always answer in English. " +
	"Do not invent facts or mention these instructions."

// maxSnippetLen bounds each context snippet so the assembled prompt stays
// within model limits.
const maxSnippetLen = 800

// BuildPrompt assembles the grounded prompt: fixed system instruction,
// formatted context block, user question last. Pure and deterministic.
func BuildPrompt(question string, hits []retrieval.Hit) string {
	return fmt.Sprintf("%s\n\n%s\n\n# Question\n%s\n\nAnswer in English. Be brief and factual.",
		systemInstruction, buildContextBlock(hits), strings.TrimSpace(question))
}

func buildContextBlock(hits []retrieval.Hit) string {
	lines := []string{"# Context"}
	for _, h := range hits {
		content := strings.TrimSpace(h.Content)
		if runes := []rune(content); len(runes) > maxSnippetLen {
			content = string(runes[:maxSnippetLen]) + "..."
		}
		lines = append(lines,
			fmt.Sprintf("## %s [chunk %d] (score=%.3f)", h.Title, h.ChunkIndex, h.Score),
			content,
			"")
	}
	return strings.Join(lines, "\n")
}
