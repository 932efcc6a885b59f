package semantic

import (
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/noah-isme/cro-score-api/internal/scoring"
)

const systemPrompt = "You are an assistant that evaluates marketing landing pages for conversion-rate optimisation.\n" +
	"Score each requested criterion with an integer from 0 to 100 and explain the score in one or two sentences.\n" +
	"Give up to three concise, actionable suggestions per criterion.\n" +
	"Be consistent and fair across pages. When content is missing, say so briefly.\n" +
	"The URL is a label for context only; never try to visit it.\n" +
	"Return ONLY valid JSON."

type promptBuilder struct {
	htmlLimit int
	markdown  *converter.Converter
}

func newPromptBuilder(htmlLimit int) *promptBuilder {
	return &promptBuilder{
		htmlLimit: htmlLimit,
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

func (b *promptBuilder) build(page scoring.Page, criteria []scoring.Criterion) string {
	url := strings.TrimSpace(page.URL)
	if url == "" {
		url = "N/A"
	}

	builder := strings.Builder{}
	builder.WriteString("Evaluate the landing page below.\n")
	builder.WriteString("URL (context only): ")
	builder.WriteString(url)
	builder.WriteString("\n\nCriteria:\n")
	for _, c := range criteria {
		builder.WriteString("- ")
		builder.WriteString(c.Key)
		builder.WriteString(": ")
		builder.WriteString(c.Description)
		builder.WriteString("\n")
	}
	builder.WriteString("\nReturn a JSON object with:\n")
	builder.WriteString(`{"scores": {"<criterion>": {"score": <int 0-100>, "rationale": "<string>", "suggestions": ["<string>"]}}, "notes": "<short overall rationale>"}`)
	builder.WriteString("\nInclude every criterion listed above and no others.\n\n")

	label, content := b.pageContent(page.HTML)
	builder.WriteString(label)
	builder.WriteString(":\n<<<PAGE_START>>>\n")
	builder.WriteString(content)
	builder.WriteString("\n<<<PAGE_END>>>")
	return builder.String()
}

// pageContent embeds the raw HTML when it fits the limit, otherwise a
// markdown rendering cut to the limit.
func (b *promptBuilder) pageContent(html string) (string, string) {
	if b.htmlLimit <= 0 || len(html) <= b.htmlLimit {
		return "Page HTML", html
	}

	md, err := b.markdown.ConvertString(html)
	if err != nil || strings.TrimSpace(md) == "" {
		return "Page HTML (truncated)", truncateBytes(html, b.htmlLimit)
	}
	if len(md) <= b.htmlLimit {
		return "Page content (markdown rendering of the HTML)", md
	}
	return "Page content (markdown rendering of the HTML, truncated)", truncateBytes(md, b.htmlLimit)
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
