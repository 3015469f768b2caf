// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunker

import (
	"log/slog"
	"unicode/utf8"

	"github.com/poiesic/docquery/core"
)

const (
	// DefaultMaxSize is the default maximum chunk size in characters.
	DefaultMaxSize = 512
	// DefaultOverlap is the default number of trailing characters carried
	// into the next chunk.
	DefaultOverlap = 50
)

// Chunker splits cleaned document text into overlapping, sentence-aligned
// passages. Chunking is deterministic: the same input and parameters always
// produce the same sequence.
type Chunker struct {
	maxSize int
	overlap int
	logger  *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxSize sets the maximum chunk size in characters.
// Values below 1 fall back to the default.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size < 1 {
			size = DefaultMaxSize
		}
		c.maxSize = size
	}
}

// WithOverlap sets the overlap carried between consecutive chunks.
// Negative values are treated as zero.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap < 0 {
			overlap = 0
		}
		c.overlap = overlap
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// New creates a chunker with the default size and overlap.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxSize,
		overlap: DefaultOverlap,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split breaks text into overlapping chunk strings. Sentences are never
// split across a chunk boundary; instead the last overlap characters of a
// sealed chunk are carried forward verbatim. A single sentence longer than
// the maximum size is kept whole rather than truncated. Empty input yields
// an empty sequence.
func (c *Chunker) Split(text string) []string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buf string
	var bufLen int // rune length of buf, like the overlap carry

	for _, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)
		if buf == "" {
			buf, bufLen = sentence, sentenceLen
			continue
		}

		if bufLen+1+sentenceLen > c.maxSize {
			chunks = append(chunks, buf)
			buf = joinWithCarry(carryTail(buf, c.overlap), sentence)
			bufLen = utf8.RuneCountInString(buf)
			continue
		}

		buf = buf + " " + sentence
		bufLen += 1 + sentenceLen
	}

	if buf != "" {
		chunks = append(chunks, buf)
	}

	return chunks
}

// ChunkPages chunks page-segmented text into core.Chunk records with a
// document-wide running index. Page numbers are 1-based.
func (c *Chunker) ChunkPages(documentID string, pages []string) []*core.Chunk {
	var chunks []*core.Chunk
	index := 0

	for pageNo, page := range pages {
		for _, text := range c.Split(CleanText(page)) {
			chunks = append(chunks, core.NewChunk(documentID, text, index, pageNo+1))
			index++
		}
	}

	c.logger.Debug("chunked document", "documentID", documentID, "pages", len(pages), "chunks", len(chunks))
	return chunks
}

// ChunkText chunks unsegmented text. Page numbers are zero.
func (c *Chunker) ChunkText(documentID, text string) []*core.Chunk {
	var chunks []*core.Chunk
	for index, t := range c.Split(CleanText(text)) {
		chunks = append(chunks, core.NewChunk(documentID, t, index, 0))
	}
	return chunks
}

// carryTail returns the last overlap characters of a sealed chunk,
// rune-aligned so multi-byte characters are never split.
func carryTail(chunk string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	runes := []rune(chunk)
	if len(runes) <= overlap {
		return chunk
	}
	return string(runes[len(runes)-overlap:])
}

func joinWithCarry(carry, sentence string) string {
	if carry == "" {
		return sentence
	}
	return carry + " " + sentence
}
