// Package render turns stored post bodies into safe HTML.
package render

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/itchan-dev/forum/shared/logger"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts a post body to HTML. Bodies are stored as typed.
type Renderer interface {
	Render(text string) string
}

var threadLinkRegex = regexp.MustCompile(`\[thread#(\d+)\]`)

const (
	quoteOpen  = "[quote="
	quoteClose = "[/quote]"
)

// Markdown expands [thread#N] links and [quote=who]...[/quote] blocks,
// renders markdown and sanitizes the result.
type Markdown struct {
	md         goldmark.Markdown
	policy     *bluemonday.Policy
	threadPath string
}

// New links threads as threadPath + id, e.g. "/thread/12".
func New(threadPath string) *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile("^thread-link$")).OnElements("a")
	p.RequireNoFollowOnLinks(false)
	p.AllowRelativeURLs(true)

	return &Markdown{md: md, policy: p, threadPath: threadPath}
}

func (m *Markdown) Render(text string) string {
	text = expandQuotes(text)
	text = threadLinkRegex.ReplaceAllString(text, "[thread #$1]("+m.threadPath+"$1)")

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		logger.Log.Warn("markdown conversion failed", "component", "render", "error", err)
		return m.policy.Sanitize(text)
	}
	return strings.TrimSpace(m.policy.Sanitize(buf.String()))
}

// expandQuotes rewrites quote tags into markdown blockquotes, innermost
// first, so nested quotes become nested blockquotes. Unclosed tags are left
// as typed.
func expandQuotes(text string) string {
	for {
		start := strings.LastIndex(text, quoteOpen)
		if start < 0 {
			return text
		}
		headEnd := strings.Index(text[start:], "]")
		if headEnd < 0 {
			return text
		}
		headEnd += start
		end := strings.Index(text[headEnd:], quoteClose)
		if end < 0 {
			return text
		}
		end += headEnd

		who := strings.TrimSpace(text[start+len(quoteOpen) : headEnd])
		body := text[headEnd+1 : end]
		text = text[:start] + "\n\n" + blockquote(who, body) + "\n\n" + text[end+len(quoteClose):]
	}
}

func blockquote(who, body string) string {
	var b strings.Builder
	if who != "" {
		b.WriteString("> **" + who + "** wrote:\n>\n")
	}
	lines := strings.Split(strings.TrimSpace(body), "\n")
	for i, line := range lines {
		b.WriteString("> " + line)
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
