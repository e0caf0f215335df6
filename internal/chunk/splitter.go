package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options configures the splitter. Zero values fall back to the
// package defaults.
type Options struct {
	MaxSize int // Maximum chunk length in runes (default: DefaultMaxSize)
	Overlap int // Overlap between consecutive chunks in runes (default: DefaultOverlap)
	MinSize int // Minimum chunk length before merging in runes (default: DefaultMinSize)
}

// Splitter produces deterministic, boundary-aware chunks from raw text.
type Splitter struct {
	opts Options
}

// NewSplitter creates a splitter with default options.
func NewSplitter() *Splitter {
	return NewSplitterWithOptions(Options{})
}

// NewSplitterWithOptions creates a splitter with custom options.
func NewSplitterWithOptions(opts Options) *Splitter {
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Overlap == 0 {
		opts.Overlap = DefaultOverlap
	}
	if opts.MinSize == 0 {
		opts.MinSize = DefaultMinSize
	}
	return &Splitter{opts: opts}
}

// Split divides text into ordered chunks. Offsets are rune offsets into
// text. Text short enough to fit in one chunk is returned verbatim,
// untrimmed; longer text is swept with a sliding window that prefers to
// break after a sentence terminator, then trimmed per chunk.
func (s *Splitter) Split(text, filePath string) []*Chunk {
	runes := []rune(text)
	n := len(runes)

	if n <= s.opts.MaxSize {
		return []*Chunk{{
			Text:      text,
			FilePath:  filePath,
			Index:     0,
			Total:     1,
			StartChar: 0,
			EndChar:   n,
		}}
	}

	var chunks []*Chunk
	start := 0
	index := 0

	// Progress is forced below, so the sweep needs at most n iterations.
	// The margin is a hard stop in case that ever breaks.
	maxIterations := n + 1000

	for iter := 0; start < n && iter < maxIterations; iter++ {
		end := start + s.opts.MaxSize
		if end > n {
			end = n
		}

		// Not the last window: prefer to end right after a sentence
		// terminator found in the window's tail.
		if end < n {
			searchStart := end - sentenceScanWindow
			if searchStart < start {
				searchStart = start
			}
			window := runes[searchStart:end]
			sentenceEnd := -1
			for i := len(window) - 1; i >= 0; i-- {
				if isSentenceTerminator(window[i]) && i+1 < len(window) && unicode.IsSpace(window[i+1]) {
					sentenceEnd = searchStart + i + 1
					break
				}
			}
			if sentenceEnd > start && sentenceEnd < end {
				end = sentenceEnd
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, &Chunk{
				Text:      piece,
				FilePath:  filePath,
				Index:     index,
				Total:     -1, // stamped after the merge pass
				StartChar: start,
				EndChar:   end,
			})
			index++
		}

		// Step back by the overlap, but never to a position at or
		// before the previous start: every iteration must advance.
		next := end
		if next > start {
			next = next - s.opts.Overlap
			if next < start+1 {
				next = start + 1
			}
		}
		if next <= start {
			next = start + 1
		}

		// The remainder past this point is pure overlap; stop here
		// rather than emit a chunk that is a suffix of the last one.
		if n-next <= s.opts.Overlap {
			break
		}
		start = next
	}

	chunks = s.mergeSmall(chunks)

	for _, c := range chunks {
		c.Total = len(chunks)
	}

	// Merging can push a chunk past the limit; clip it back. Offsets
	// keep describing the source span the text was taken from.
	for _, c := range chunks {
		if r := []rune(c.Text); len(r) > s.opts.MaxSize {
			c.Text = string(r[:s.opts.MaxSize])
		}
	}

	return chunks
}

// mergeSmall folds every chunk shorter than MinSize into its
// predecessor, joining texts with a single space and extending the
// predecessor's end offset. The first chunk is never folded. Surviving
// chunks keep their pre-merge ordinals, so Index values may have gaps.
func (s *Splitter) mergeSmall(chunks []*Chunk) []*Chunk {
	if len(chunks) <= 1 {
		return chunks
	}
	merged := make([]*Chunk, 0, len(chunks))
	for i, c := range chunks {
		if i > 0 && utf8.RuneCountInString(c.Text) < s.opts.MinSize {
			prev := merged[len(merged)-1]
			prev.Text = prev.Text + " " + c.Text
			prev.EndChar = c.EndChar
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
