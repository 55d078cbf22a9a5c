package summarizer

import (
	"regexp"
	"strings"
)

var (
	bulletMarker    = regexp.MustCompile(`^\s*[*\-]\s*`)
	colonHeading    = regexp.MustCompile(`^[A-Za-z0-9\s]+:$`)
	bareHeadingLike = regexp.MustCompile(`^[A-Za-z0-9\s]+$`)
)

type cleanLine struct {
	text   string
	bullet bool
}

// Clean post-processes raw model output into one point per line.
//
// Bullet markers are stripped. Lines that are only letters, digits and
// spaces followed by a colon are headings and dropped. A bare alphanumeric
// line without a marker is also treated as a heading, but only when the
// response carried bulleted lines; otherwise already-clean input would be
// erased. Blank lines are dropped. An empty result becomes FallbackSummary.
func Clean(raw string) string {
	var (
		lines      []cleanLine
		hasBullets bool
	)
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		stripped := bulletMarker.ReplaceAllString(line, "")
		bullet := stripped != line && strings.TrimSpace(line) != ""
		stripped = strings.TrimSpace(stripped)
		if stripped == "" {
			continue
		}
		if bullet {
			hasBullets = true
		}
		lines = append(lines, cleanLine{text: stripped, bullet: bullet})
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if colonHeading.MatchString(l.text) {
			continue
		}
		if hasBullets && !l.bullet && bareHeadingLike.MatchString(l.text) {
			continue
		}
		out = append(out, l.text)
	}
	if len(out) == 0 {
		return FallbackSummary
	}
	return strings.Join(out, "\n")
}
