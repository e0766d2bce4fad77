package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segmentation parameters.
const (
	// DefaultChunkSize is the target chunk size in bytes. Sized so a
	// chunk plus the correction prompt stays well inside the completion
	// API context window.
	DefaultChunkSize = 4000

	// minLineChunks is the minimum chunk count expected from line-based
	// accumulation before the raw-slice fallback is considered.
	minLineChunks = 3

	// sliceSeekLimit bounds how far the raw-slice fallback seeks
	// backward for whitespace before giving up and cutting hard.
	sliceSeekLimit = 200
)

// Chunk is a slice of a transcript body, prefixed with the document
// header so it can be corrected by a stateless completion call.
type Chunk struct {
	Index   int    // 1-based position in the document
	Total   int    // total number of chunks
	Header  string // document header, identical for every chunk
	Content string // raw body slice; chunks concatenate back to the body
}

// Text returns the chunk as sent for correction: header plus content.
func (c Chunk) Text() string {
	return c.Header + c.Content
}

// Segment splits a document body into chunks of roughly targetSize
// bytes, each carrying the document header.
//
// Lines are accumulated greedily: the running buffer is flushed when
// adding the next line would exceed targetSize, unless the buffer is
// still empty (so a single oversized line still makes progress). If
// that produces suspiciously few chunks for a body with hardly any
// line breaks, Segment falls back to raw slicing that seeks backward
// to whitespace so words are never cut.
//
// The concatenation of all chunk contents equals the body exactly.
func Segment(doc Document, targetSize int) []Chunk {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	if doc.Body == "" {
		return nil
	}

	contents := segmentByLines(doc.Body, targetSize)
	if len(contents) < minLineChunks && len(doc.Body) > 2*targetSize {
		contents = segmentBySlicing(doc.Body, targetSize)
	}

	chunks := make([]Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = Chunk{
			Index:   i + 1,
			Total:   len(contents),
			Header:  doc.Header,
			Content: content,
		}
	}
	return chunks
}

// segmentByLines accumulates whole lines into chunks of at most
// targetSize bytes, except when a single line alone exceeds it.
func segmentByLines(body string, targetSize int) []string {
	lines := splitAfterLines(body)

	var contents []string
	start, size := 0, 0

	flush := func(end int) {
		if end == start {
			return
		}
		off := lineOffset(lines, start)
		contents = append(contents, body[off:off+size])
		start, size = end, 0
	}

	for i, line := range lines {
		if size > 0 && size+len(line) > targetSize {
			flush(i)
		}
		size += len(line)
	}
	flush(len(lines))

	return contents
}

// segmentBySlicing cuts the body into targetSize slices, moving each
// boundary backward to the nearest whitespace so no word is split.
// Boundaries are additionally snapped to rune starts; a transcript is
// UTF-8 and a byte-offset cut may otherwise land inside a multi-byte
// character.
func segmentBySlicing(body string, targetSize int) []string {
	var contents []string
	for start := 0; start < len(body); {
		end := start + targetSize
		if end >= len(body) {
			contents = append(contents, body[start:])
			break
		}
		end = seekBoundary(body, start, end)
		contents = append(contents, body[start:end])
		start = end
	}
	return contents
}

// seekBoundary moves end backward to just after the nearest whitespace,
// stopping at a rune start. If no whitespace is found within
// sliceSeekLimit bytes, it returns the nearest rune start at or before
// end so forward progress is still guaranteed.
func seekBoundary(body string, start, end int) int {
	limit := max(start+1, end-sliceSeekLimit)
	for i := end; i > limit; i-- {
		r, _ := utf8.DecodeRuneInString(body[i-1:])
		if unicode.IsSpace(r) {
			return i
		}
	}
	for end > start+1 && !utf8.RuneStart(body[end]) {
		end--
	}
	return end
}

// CommonLeadPrefix detects a recurring opening phrase shared by several
// texts. The correction API sometimes re-emits the sermon's opening
// formula at the start of every chunk; reassembly strips it from all
// but the first.
//
// Only the first window bytes of each text are compared, and a prefix
// shorter than floor is ignored (short shared openings are usually
// legitimate language, not duplication).
func CommonLeadPrefix(texts []string, window, floor int) string {
	if len(texts) < 2 {
		return ""
	}

	head := func(s string) string {
		if len(s) > window {
			s = s[:window]
			for len(s) > 0 && !utf8.RuneStart(s[len(s)-1]) {
				s = s[:len(s)-1]
			}
		}
		return s
	}

	prefix := head(texts[0])
	for _, t := range texts[1:] {
		prefix = sharedPrefix(prefix, head(t))
		if len(prefix) < floor {
			return ""
		}
	}

	// Back off to a word boundary so stripping never leaves half a word.
	if i := strings.LastIndexByte(prefix, ' '); i >= 0 {
		prefix = prefix[:i+1]
	}
	if len(prefix) < floor {
		return ""
	}
	return prefix
}

// sharedPrefix returns the longest common prefix of a and b, cut at a
// rune start.
func sharedPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	for i > 0 && i < len(a) && !utf8.RuneStart(a[i]) {
		i--
	}
	return a[:i]
}
