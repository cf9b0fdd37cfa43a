package templates

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reItalic = regexp.MustCompile(`\*(.*?)\*`)
)

// FormatContent converts the writer's markdown-lite markup to HTML: `**x**` becomes
// <strong>, `*x*` becomes <em>, and newlines become <br>. Bold runs first so a double
// asterisk is never consumed as two italics. The content is author-entered, not visitor
// input, and is emitted as written so pages published by earlier versions render
// byte-identically.
func FormatContent(content string) string {
	content = reBold.ReplaceAllString(content, "<strong>$1</strong>")
	content = reItalic.ReplaceAllString(content, "<em>$1</em>")
	return strings.ReplaceAll(content, "\n", "<br>")
}

// Body returns a templ.Component rendering the formatted post body.
func Body(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, FormatContent(content))
		return err
	})
}
