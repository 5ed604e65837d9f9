package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

var atxHeading = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)

type section struct {
	text       string
	headerPath map[string]string
}

type fence struct {
	char byte
	size int
}

// openFence reports whether line starts or closes a fenced code block.
func openFence(line string) (fence, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return fence{}, false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return fence{}, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	return fence{char: c, size: n}, true
}

func headerKey(level int) string {
	return fmt.Sprintf("Header %d", level)
}

// parseHeading returns the level and title of an ATX heading line.
func parseHeading(line string) (int, string, bool) {
	m := atxHeading.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return 0, "", false
	}
	title := strings.TrimSpace(m[2])
	// closing sequence: "## Title ##"
	if stripped := strings.TrimRight(title, "#"); stripped != title {
		if stripped == "" || strings.HasSuffix(stripped, " ") || strings.HasSuffix(stripped, "\t") {
			title = strings.TrimSpace(stripped)
		}
	}
	return len(m[1]), title, true
}

// splitSections cuts text at headings whose level is in levels. Every byte
// of text ends up in exactly one section, headings included. Lines inside
// fenced code blocks are never treated as headings.
func splitSections(text string, levels map[int]bool) []section {
	var (
		sections []section
		current  strings.Builder
		path     = map[string]string{}
		inFence  *fence
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		hp := make(map[string]string, len(path))
		for k, v := range path {
			hp[k] = v
		}
		sections = append(sections, section{text: current.String(), headerPath: hp})
		current.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}

		if f, ok := openFence(line); ok {
			switch {
			case inFence == nil:
				inFence = &f
			case f.char == inFence.char && f.size >= inFence.size:
				inFence = nil
			}
			current.WriteString(line)
			continue
		}

		if inFence == nil {
			if level, title, ok := parseHeading(line); ok && levels[level] {
				flush()
				for l := level; l <= 6; l++ {
					delete(path, headerKey(l))
				}
				if title != "" {
					path[headerKey(level)] = title
				}
			}
		}

		current.WriteString(line)
	}
	flush()

	return sections
}
