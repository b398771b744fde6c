package websearch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Chunk is a bounded passage of extracted page text plus its source
// metadata. Chunks are immutable once written; a re-crawl produces an
// entirely new generation replacing the prior collection contents.
type Chunk struct {
	// Deterministic identity derived from (collection, url, position).
	// Re-upserting the same chunk overwrites rather than duplicates.
	ID string `json:"id"`

	Collection string `json:"collection"`

	// Source page URL.
	URL string `json:"url"`

	// Passage text.
	Content string `json:"content"`

	// HTML fragment of the block the passage starts in, for display.
	HTMLSnippet string `json:"htmlSnippet"`

	// Sequential index of the chunk within its source page.
	Position int `json:"position"`

	// Fixed-dimension vector, attached by the embedder.
	Embedding []float32 `json:"embedding,omitempty"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return Errorf(EINVALID, "chunk ID required")
	}
	if c.Collection == "" {
		return Errorf(EINVALID, "chunk collection required")
	}
	if c.URL == "" {
		return Errorf(EINVALID, "chunk source URL required")
	}
	if c.Content == "" {
		return Errorf(EINVALID, "chunk content required")
	}
	return nil
}

// ChunkID computes the deterministic chunk identity.
func ChunkID(collection, url string, position int) string {
	h := xxhash.New()
	_, _ = h.WriteString(collection)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(url)
	_, _ = fmt.Fprintf(h, "\x00%d", position)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Default chunking parameters.
const (
	DefaultMaxChunkChars = 500
	DefaultOverlapChars  = 50

	// Pages whose extracted text is shorter than this produce no chunks.
	DefaultMinPageChars = 50

	// Passages shorter than this after trimming are discarded.
	minChunkChars = 50
)

// ChunkOptions configures SplitPage.
type ChunkOptions struct {
	MaxChars     int
	OverlapChars int
	MinPageChars int
}

// DefaultChunkOptions returns the standard chunking parameters.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxChars:     DefaultMaxChunkChars,
		OverlapChars: DefaultOverlapChars,
		MinPageChars: DefaultMinPageChars,
	}
}

// SplitPage splits a page's text into overlapping passages of at most
// MaxChars, preferring breaks at paragraph or sentence boundaries.
// Adjacent passages overlap by OverlapChars so queries spanning a split
// point still match. Boilerplate-only pages below MinPageChars yield no
// chunks. The collection field is left empty; the coordinator assigns it
// together with the chunk ID.
func SplitPage(page *Page, opts ChunkOptions) []*Chunk {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChunkChars
	}
	if opts.OverlapChars < 0 || opts.OverlapChars >= opts.MaxChars {
		opts.OverlapChars = DefaultOverlapChars
	}

	text, offsets := joinBlocks(page.Blocks)
	if text == "" {
		text = page.Text
	}
	if len(text) < opts.MinPageChars {
		return nil
	}

	var chunks []*Chunk
	pos := 0
	for pos < len(text) {
		end := pos + opts.MaxChars
		last := end >= len(text)
		if last {
			end = len(text)
		} else {
			end = breakPoint(text, pos, end)
		}

		content := strings.TrimSpace(text[pos:end])
		if len(content) >= minChunkChars {
			chunks = append(chunks, &Chunk{
				URL:         page.URL,
				Content:     content,
				HTMLSnippet: snippetAt(page.Blocks, offsets, pos),
				Position:    len(chunks),
			})
		}

		if last {
			break
		}
		next := runeStart(text, end-opts.OverlapChars)
		if next <= pos {
			next = end
		}
		pos = next
	}

	return chunks
}

// breakPoint finds a split position in text[pos:limit], preferring a
// paragraph break, then a sentence end, then whitespace. Breaks in the
// first half of the window are ignored so chunks don't degenerate. The
// separators are ASCII, so those cuts land on rune boundaries; the hard
// fallback must not slice a multi-byte rune in half.
func breakPoint(text string, pos, limit int) int {
	window := text[pos:limit]
	half := len(window) / 2

	if i := strings.LastIndex(window, "\n\n"); i > half {
		return pos + i + 2
	}
	for _, sep := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if i := strings.LastIndex(window, sep); i > half {
			return pos + i + len(sep)
		}
	}
	if i := strings.LastIndexByte(window, ' '); i > half {
		return pos + i + 1
	}

	end := runeStart(text, limit)
	if end <= pos {
		// Window smaller than one rune; take the whole rune anyway.
		_, size := utf8.DecodeRuneInString(text[pos:])
		end = pos + size
	}
	return end
}

// runeStart backs i up to the start of the rune it points into, so a
// slice at the returned index never cuts a character in half.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// joinBlocks concatenates block texts with paragraph separators and
// records each block's start offset in the joined text.
func joinBlocks(blocks []Block) (string, []int) {
	if len(blocks) == 0 {
		return "", nil
	}
	var b strings.Builder
	offsets := make([]int, len(blocks))
	for i, blk := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		offsets[i] = b.Len()
		b.WriteString(blk.Text)
	}
	return b.String(), offsets
}

// snippetAt returns the HTML fragment of the block enclosing the given
// text offset. Falls back to the last block when the offset is past the
// recorded starts.
func snippetAt(blocks []Block, offsets []int, pos int) string {
	if len(blocks) == 0 {
		return ""
	}
	idx := 0
	for i, off := range offsets {
		if off > pos {
			break
		}
		idx = i
	}
	return blocks[idx].HTML
}
