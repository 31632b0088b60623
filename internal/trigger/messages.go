package trigger

import (
	"regexp"
	"sort"
	"strings"
)

// Stable ordering of diagnostic output across incremental passes: files
// keep the order they were first seen in the previous pass, new files are
// appended in the order they became known, and messages with no file sort
// after everything file-scoped.

var (
	headerRe   = regexp.MustCompile(`^([^\s:][^:]*):(\d+)`)
	preambleRe = regexp.MustCompile(`^([^\s:]+): `)
)

// messageFile extracts the file a message line refers to, or "" when the
// line has no file (including the "mypy: ..." form).
func messageFile(msg string) string {
	if strings.HasPrefix(msg, "mypy: ") {
		return ""
	}
	if m := headerRe.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := preambleRe.FindStringSubmatch(msg); m != nil {
		file := m[1]
		if strings.ContainsAny(file, "./") {
			return file
		}
	}
	return ""
}

// messageLine extracts the line number of a header message, or -1.
func messageLine(msg string) int {
	m := headerRe.FindStringSubmatch(msg)
	if m == nil {
		return -1
	}
	n := 0
	for _, c := range m[2] {
		n = n*10 + int(c-'0')
	}
	return n
}

// block is a group of message lines that must stay contiguous: a header
// line with its indented or file-less continuation lines, possibly preceded
// by a file-scoped preamble line.
type block struct {
	file  string
	line  int
	seq   int
	lines []string
}

// groupMessages splits messages into blocks. A line with a file and a line
// number starts a new block unless it completes a preamble of the same
// file; anything without its own file attaches to the current block.
func groupMessages(messages []string) []*block {
	var blocks []*block
	var cur *block
	for _, msg := range messages {
		file := messageFile(msg)
		line := messageLine(msg)
		switch {
		case file == "" && !strings.HasPrefix(msg, "mypy: "):
			// Continuation of the current block.
			if cur != nil {
				cur.lines = append(cur.lines, msg)
				continue
			}
			cur = &block{file: "", line: -1, seq: len(blocks)}
			cur.lines = []string{msg}
			blocks = append(blocks, cur)
		case strings.HasPrefix(msg, "mypy: "):
			cur = &block{file: "", line: -1, seq: len(blocks), lines: []string{msg}}
			blocks = append(blocks, cur)
		case line >= 0 && cur != nil && cur.file == file && cur.line < 0:
			// Header completing a preamble such as `foo.py: In function "f":`.
			cur.line = line
			cur.lines = append(cur.lines, msg)
		default:
			cur = &block{file: file, line: line, seq: len(blocks), lines: []string{msg}}
			blocks = append(blocks, cur)
		}
	}
	return blocks
}

// SortMessagesPreservingFileOrder sorts messages so files appear in the
// order they did in prevMessages, with files new this pass appended in the
// order they became known. Within a file, blocks sort by their header
// line's number; ties keep the new pass's relative order. Messages with no
// file sort last.
func SortMessagesPreservingFileOrder(messages, prevMessages []string) []string {
	order := make(map[string]int)
	n := 0
	for _, msg := range prevMessages {
		if file := messageFile(msg); file != "" {
			if _, ok := order[file]; !ok {
				order[file] = n
				n++
			}
		}
	}

	blocks := groupMessages(messages)
	// Files unseen in the previous pass slot in after the known ones, in
	// order of first appearance this pass.
	for _, b := range blocks {
		if b.file == "" {
			continue
		}
		if _, ok := order[b.file]; !ok {
			order[b.file] = n
			n++
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		bi, bj := blocks[i], blocks[j]
		oi, oj := n, n
		if bi.file != "" {
			oi = order[bi.file]
		}
		if bj.file != "" {
			oj = order[bj.file]
		}
		if oi != oj {
			return oi < oj
		}
		if bi.line != bj.line {
			return bi.line < bj.line
		}
		return bi.seq < bj.seq
	})

	var result []string
	for _, b := range blocks {
		result = append(result, b.lines...)
	}
	return result
}
