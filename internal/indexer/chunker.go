package indexer

import (
	"regexp"
	"strings"
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	sentenceRe = regexp.MustCompile(`([^.!?]*[.!?]+|[^.!?]+$)`)
)

// CleanText collapses runs of whitespace into single spaces. Guideline
// documents arrive with PDF-extraction artifacts (hard wraps, double
// spaces) that would otherwise skew the embeddings.
func CleanText(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// ChunkText splits cleaned text into sentence-aligned chunks of at most
// maxWords words. Sentences are never split; a sentence longer than the
// limit becomes its own chunk.
func ChunkText(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = 256
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}

	sentences := sentenceRe.FindAllString(cleaned, -1)

	var chunks []string
	var current []string
	currentWords := 0

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		words := len(strings.Fields(sentence))

		if currentWords > 0 && currentWords+words > maxWords {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			currentWords = 0
		}
		current = append(current, sentence)
		currentWords += words
	}
	if currentWords > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
