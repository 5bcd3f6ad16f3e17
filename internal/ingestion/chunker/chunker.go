// Package chunker implements greedy word-count packing with
// natural-boundary preference, following the domain/services pattern of a
// stateless analyzer operating directly on raw text, generalized here from
// keyword extraction to offset-tracked chunk splitting.
package chunker

import (
	"regexp"
	"strings"
)

// Chunk is one ordered, offset-tracked slice of a document.
type Chunk struct {
	Text            string
	ChunkIndex      int
	CharOffsetStart int
	CharOffsetEnd   int
	LineStart       int
	LineEnd         int
	OverlapChars    int
}

// Params configures the packing algorithm.
type Params struct {
	TargetWords  int
	MinWords     int
	MaxWords     int
	OverlapWords int
}

// DefaultParams mirrors the conventional chunking defaults used across
// document-ingestion pipelines.
func DefaultParams() Params {
	return Params{TargetWords: 500, MinWords: 300, MaxWords: 800, OverlapWords: 50}
}

var sentenceTerminator = regexp.MustCompile(`[.!?]\s`)

// word is one whitespace-delimited token with its byte offsets in the
// original text, used to translate word-count boundaries back to exact
// char offsets.
type word struct {
	start, end int
}

// Split packs text into chunks deterministically: advance to target_words;
// prefer a paragraph boundary within [min_words, max_words]; else the
// nearest sentence terminator in that window; else hard-cut at max_words.
// Each next chunk starts overlap_words behind the previous end.
func Split(text string, p Params) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	words := tokenizeWords(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []Chunk
	chunkIndex := 0
	startWord := 0

	for startWord < len(words) {
		endWord := pickEnd(text, words, startWord, p)
		if endWord <= startWord {
			endWord = startWord + 1
		}
		if endWord > len(words) {
			endWord = len(words)
		}

		charStart := words[startWord].start
		charEnd := words[endWord-1].end

		chunks = append(chunks, Chunk{
			Text:            text[charStart:charEnd],
			ChunkIndex:      chunkIndex,
			CharOffsetStart: charStart,
			CharOffsetEnd:   charEnd,
			LineStart:       lineNumber(text, charStart),
			LineEnd:         lineNumber(text, charEnd),
		})

		if endWord >= len(words) {
			break
		}

		nextStart := endWord - p.OverlapWords
		if nextStart <= startWord {
			nextStart = endWord
		}
		if nextStart < 0 {
			nextStart = 0
		}
		startWord = nextStart
		chunkIndex++
	}

	fixOverlaps(chunks)
	return chunks
}

// fixOverlaps computes each chunk's actual overlap in characters against
// its predecessor's end, after the full offset sequence is known.
func fixOverlaps(chunks []Chunk) {
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].CharOffsetEnd
		if chunks[i].CharOffsetStart < prevEnd {
			chunks[i].OverlapChars = prevEnd - chunks[i].CharOffsetStart
		}
	}
}

func pickEnd(text string, words []word, start int, p Params) int {
	targetIdx := start + p.TargetWords
	minIdx := start + p.MinWords
	maxIdx := start + p.MaxWords
	if targetIdx >= len(words) {
		return len(words)
	}
	if maxIdx > len(words) {
		maxIdx = len(words)
	}
	if minIdx > len(words) {
		minIdx = len(words)
	}

	// Prefer a paragraph boundary (\n\n) within [min, max].
	for i := minIdx; i < maxIdx; i++ {
		if i+1 >= len(words) {
			break
		}
		gap := text[words[i].end:words[i+1].start]
		if strings.Contains(gap, "\n\n") {
			return i + 1
		}
	}

	// Else the nearest sentence terminator within [min, max].
	searchStart := words[minIdx].start
	windowEnd := words[maxIdx-1].end
	if windowEnd <= searchStart {
		return maxIdx
	}
	window := text[searchStart:windowEnd]
	if loc := sentenceTerminator.FindStringIndex(window); loc != nil {
		absPos := searchStart + loc[1]
		for i := minIdx; i < maxIdx; i++ {
			if words[i].start >= absPos {
				return i
			}
		}
	}

	// Else hard-cut at max_words.
	return maxIdx
}

func tokenizeWords(text string) []word {
	var words []word
	inWord := false
	start := 0
	for i, r := range text {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if !isSpace && !inWord {
			start = i
			inWord = true
		} else if isSpace && inWord {
			words = append(words, word{start: start, end: i})
			inWord = false
		}
	}
	if inWord {
		words = append(words, word{start: start, end: len(text)})
	}
	return words
}

func lineNumber(text string, charOffset int) int {
	if charOffset > len(text) {
		charOffset = len(text)
	}
	return strings.Count(text[:charOffset], "\n") + 1
}
