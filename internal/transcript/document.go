// Package transcript models sermon transcripts as they move through the
// pipeline: the plain-text document with its metadata header, the
// time-coded segments produced by the speech API, and the segmentation
// of long documents into independently correctable chunks.
package transcript

import (
	"strings"
)

// Header detection parameters.
//
// Transcript files start with a metadata block (title, processing date)
// closed by a separator line made of '=' characters. The separator is
// written by the exporter but files edited by hand sometimes lose it,
// so detection falls back to a fixed budget.
const (
	// separatorMinRun is the minimum run of '=' for a line to count as
	// the header separator.
	separatorMinRun = 5

	// maxHeaderScanLines bounds how far into the document the separator
	// is searched for.
	maxHeaderScanLines = 10

	// minHeaderChars is the minimum plausible header size. A detected
	// header shorter than this is rejected and the fallback applies, so
	// correction prompts always carry the title/date context.
	minHeaderChars = 40
)

// Document is a transcript split into its metadata header and spoken body.
// Header+Body always reconstructs the source text byte for byte.
type Document struct {
	Header string
	Body   string
}

// Parse splits raw transcript text into header and body.
// See SplitHeader for the detection rules.
func Parse(text string) Document {
	header, body := SplitHeader(text)
	return Document{Header: header, Body: body}
}

// String reconstructs the original document.
func (d Document) String() string {
	return d.Header + d.Body
}

// SplitHeader separates the metadata header from the spoken body.
//
// It scans the first maxHeaderScanLines lines for a separator line
// (a run of '=' characters). When found, the header is everything up to
// and including that line. When no separator is found, or the detected
// header is implausibly short, the header falls back to the smallest
// prefix of whole lines that is at least minHeaderChars long, still
// capped at maxHeaderScanLines lines.
func SplitHeader(text string) (header, body string) {
	if text == "" {
		return "", ""
	}

	lines := splitAfterLines(text)

	end := separatorEnd(lines)
	if end < 0 || lineOffset(lines, end+1) < minHeaderChars {
		end = fallbackHeaderEnd(lines)
	}
	if end < 0 {
		return "", text
	}

	cut := lineOffset(lines, end+1)
	return text[:cut], text[cut:]
}

// separatorEnd returns the index of the separator line within the scan
// window, or -1 if none is found.
func separatorEnd(lines []string) int {
	limit := min(len(lines), maxHeaderScanLines)
	for i := 0; i < limit; i++ {
		if isSeparatorLine(lines[i]) {
			return i
		}
	}
	return -1
}

// fallbackHeaderEnd returns the index of the last header line when no
// separator could be used: the first line at which the accumulated
// header reaches minHeaderChars. Returns -1 for documents too short to
// carry any header at all.
func fallbackHeaderEnd(lines []string) int {
	limit := min(len(lines), maxHeaderScanLines)
	size := 0
	for i := 0; i < limit; i++ {
		size += len(lines[i])
		if size >= minHeaderChars {
			return i
		}
	}
	return -1
}

// isSeparatorLine reports whether a line is a header separator:
// at least separatorMinRun consecutive '=' characters, ignoring
// surrounding whitespace.
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\n"))
	if len(trimmed) < separatorMinRun {
		return false
	}
	run := 0
	for _, r := range trimmed {
		if r == '=' {
			run++
			if run >= separatorMinRun {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// splitAfterLines splits text into lines, each keeping its trailing
// newline. Concatenating the result reproduces text exactly.
func splitAfterLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// lineOffset returns the byte offset of the start of line n
// (equivalently, the total length of lines[0:n]).
func lineOffset(lines []string, n int) int {
	off := 0
	for i := 0; i < n && i < len(lines); i++ {
		off += len(lines[i])
	}
	return off
}

// HeaderLineCount returns the number of lines in the header, counting a
// trailing partial line. Used during reassembly to strip re-emitted
// headers that lost their separator.
func HeaderLineCount(header string) int {
	if header == "" {
		return 0
	}
	n := strings.Count(header, "\n")
	if !strings.HasSuffix(header, "\n") {
		n++
	}
	return n
}
