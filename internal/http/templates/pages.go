package templates

import (
	"context"
	"html"
	"io"

	"github.com/a-h/templ"
)

// BlogPostPageData contains the dynamic values for a rendered blog post page.
type BlogPostPageData struct {
	Title string
	Date  string
	Body  templ.Component
}

// BlogPostPage renders a published blog post as a standalone HTML page. Title and date
// are escaped; the body comes from the markdown-lite formatter.
func BlogPostPage(data BlogPostPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := html.EscapeString(data.Title)
		date := html.EscapeString(data.Date)

		if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n<title>"+title+"</title>\n<link rel=\"stylesheet\" href=\"/styles.css\">\n</head>\n<body>\n<div class=\"blog-post\">\n<a class=\"back-link\" href=\"/blog.html\">&larr; back</a>\n<h1>"+title+"</h1>\n<p class=\"post-date\">"+date+"</p>\n<div class=\"post-content\">"); err != nil {
			return err
		}

		if data.Body != nil {
			if err := data.Body.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</div>\n</div>\n</body>\n</html>\n")
		return err
	})
}
