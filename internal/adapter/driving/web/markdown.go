package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy

	// scopeHelpHTML is rendered once at startup.
	scopeHelpHTML string
)

const scopeHelpMarkdown = `
| Scope | Needed for |
|---|---|
| ` + "`repo`" + ` | Full control of private repositories (required for secrets and variables) |
| ` + "`public_repo`" + ` | Public repositories only |
| ` + "`admin:org`" + ` | Organization-level secrets (optional) |

Fine-grained tokens need **Environments: read and write**, **Secrets: read and write**
and **Variables: read and write** on the target repository.

Secret values are encrypted in the server with an anonymous sealed box against the
environment public key before they are sent. Nothing you enter is stored.
`

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()

	scopeHelpHTML = RenderMarkdown(scopeHelpMarkdown)
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}
