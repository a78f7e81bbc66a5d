package api

import (
	"bytes"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	richTextPolicyOnce sync.Once
	richTextPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	richTextPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		richTextPolicy = policy
	})
	return richTextPolicy
}

// renderRichText turns generated text into safe inline HTML. Inline markdown such as emphasis,
// code spans and links is rendered; everything else is escaped or stripped.
func renderRichText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Autolink)
	r := html.NewRenderer(html.RendererOptions{Flags: html.SkipHTML})
	out := markdown.ToHTML([]byte(trimmed), p, r)
	out = bytes.TrimSpace(textSanitizer().SanitizeBytes(out))

	// A single paragraph is unwrapped so the text can sit inside list items and headings.
	if bytes.HasPrefix(out, []byte("<p>")) && bytes.HasSuffix(out, []byte("</p>")) &&
		bytes.Count(out, []byte("<p>")) == 1 {
		out = out[len("<p>") : len(out)-len("</p>")]
	}
	return string(out)
}

func init() {
	if pongo2.FilterExists("richtext") {
		return
	}
	_ = pongo2.RegisterFilter("richtext", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsSafeValue(renderRichText(in.String())), nil
	})
}
