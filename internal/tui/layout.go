package tui

import "strings"

type pageLayout struct {
	windowWidth   int
	windowHeight  int
	contentWidth  int
	cardsPerShelf int
	aboutHeight   int
}

func newPageLayout() pageLayout {
	l := pageLayout{}
	l.Update(80, 24)
	return l
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	inner := width - contentPadding
	if inner < minContentWidth {
		inner = minContentWidth
	}
	l.contentWidth = inner
	l.cardsPerShelf = inner / (cardWidth + cardGap)
	if l.cardsPerShelf < 1 {
		l.cardsPerShelf = 1
	}
	const chrome = 10
	l.aboutHeight = height - chrome
	if l.aboutHeight < 6 {
		l.aboutHeight = 6
	}
}

// visibleWindow returns the [start, end) slice of a shelf of n books that keeps
// the cursor on screen.
func (l pageLayout) visibleWindow(n, cursor int) (int, int) {
	per := l.cardsPerShelf
	if n <= per {
		return 0, n
	}
	start := cursor - per/2
	if start < 0 {
		start = 0
	}
	if start+per > n {
		start = n - per
	}
	return start, start + per
}

// wrapWidth is the text width left after padding, never below 20.
func (l pageLayout) wrapWidth(padding int) int {
	if padding < 0 {
		padding = 0
	}
	available := l.contentWidth - padding
	if available < 20 {
		available = 20
	}
	return available
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
