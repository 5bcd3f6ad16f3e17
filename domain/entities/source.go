package entities

import (
	"fmt"
	"strings"
	"time"

	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/domain/valueobjects"
)

// ChunkMethod names the algorithm that produced a Source's chunk boundary.
type ChunkMethod string

const (
	ChunkMethodParagraph ChunkMethod = "paragraph"
	ChunkMethodFixedSize ChunkMethod = "fixed_size"
	ChunkMethodSentence  ChunkMethod = "sentence"
)

// SourceIDFor derives the deterministic id for the Nth chunk of a file.
func SourceIDFor(filename string, chunkIndex int) string {
	return fmt.Sprintf("%s_chunk%d", filename, chunkIndex)
}

// Source is one chunk of an ingested document. It is immutable once
// created: chunk boundaries, offsets, and text never change after the
// chunk is committed, since Instances quote verbatim substrings of it.
type Source struct {
	id              valueobjects.SourceID
	document        string // ontology name
	filePath        string
	paragraph       int
	fullText        string
	charOffsetStart int
	charOffsetEnd   int
	lineStart       int
	lineEnd         int
	chunkIndex      int
	chunkMethod     ChunkMethod
	overlapChars    int
	contentHash     string
	documentID      valueobjects.DocumentID
	createdAt       time.Time
}

// NewSourceParams bundles the chunker's output for a single chunk.
type NewSourceParams struct {
	Filename        string
	Document        string
	FilePath        string
	FullText        string
	CharOffsetStart int
	CharOffsetEnd   int
	LineStart       int
	LineEnd         int
	ChunkIndex      int
	ChunkMethod     ChunkMethod
	OverlapChars    int
	ContentHash     string
	DocumentID      valueobjects.DocumentID
}

// NewSource validates and constructs a Source from chunker output.
func NewSource(p NewSourceParams) (*Source, error) {
	if strings.TrimSpace(p.FullText) == "" {
		return nil, kgerrors.Validation("EMPTY_SOURCE_TEXT", "source full_text cannot be empty").Build()
	}
	if p.ChunkIndex < 0 {
		return nil, kgerrors.Validation("INVALID_CHUNK_INDEX", "chunk_index cannot be negative").Build()
	}
	if p.CharOffsetEnd < p.CharOffsetStart {
		return nil, kgerrors.Validation("INVALID_CHAR_OFFSETS", "char_offset_end must be >= char_offset_start").Build()
	}
	id, err := valueobjects.ParseSourceID(SourceIDFor(p.Filename, p.ChunkIndex))
	if err != nil {
		return nil, err
	}
	return &Source{
		id:              id,
		document:        p.Document,
		filePath:        p.FilePath,
		paragraph:       p.ChunkIndex,
		fullText:        p.FullText,
		charOffsetStart: p.CharOffsetStart,
		charOffsetEnd:   p.CharOffsetEnd,
		lineStart:       p.LineStart,
		lineEnd:         p.LineEnd,
		chunkIndex:      p.ChunkIndex,
		chunkMethod:     p.ChunkMethod,
		overlapChars:    p.OverlapChars,
		contentHash:     p.ContentHash,
		documentID:      p.DocumentID,
		createdAt:       time.Now(),
	}, nil
}

func (s *Source) ID() valueobjects.SourceID        { return s.id }
func (s *Source) Document() string                 { return s.document }
func (s *Source) FilePath() string                 { return s.filePath }
func (s *Source) Paragraph() int                   { return s.paragraph }
func (s *Source) FullText() string                 { return s.fullText }
func (s *Source) CharOffsetStart() int             { return s.charOffsetStart }
func (s *Source) CharOffsetEnd() int                { return s.charOffsetEnd }
func (s *Source) LineStart() int                   { return s.lineStart }
func (s *Source) LineEnd() int                     { return s.lineEnd }
func (s *Source) ChunkIndex() int                  { return s.chunkIndex }
func (s *Source) ChunkMethod() ChunkMethod         { return s.chunkMethod }
func (s *Source) OverlapChars() int                { return s.overlapChars }
func (s *Source) ContentHash() string              { return s.contentHash }
func (s *Source) DocumentID() valueobjects.DocumentID { return s.documentID }
func (s *Source) CreatedAt() time.Time             { return s.createdAt }

// ContainsQuote reports whether quote is a verbatim substring of the
// chunk's text, enforcing that evidence quotes are never fabricated.
func (s *Source) ContainsQuote(quote string) bool {
	return quote != "" && strings.Contains(s.fullText, quote)
}
