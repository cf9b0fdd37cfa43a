package content

import (
	"context"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Validation failures surfaced by Publish. Handlers map these to 400 responses.
var (
	ErrMissingFields = eris.New("title, content, and type are required")
	ErrInvalidType   = eris.New(`type must be either "blog" or "journal"`)
)

// PublishRequest is the draft-shaped payload handed to the Publisher.
type PublishRequest struct {
	Title   string
	Content string
	Type    Type
}

// PublishResult reports the outcome of a publish operation.
type PublishResult struct {
	ID       uint
	Filename string
}

// Publisher orchestrates the single step from draft-shaped payload to published row,
// including derived-field computation for blog filenames.
type Publisher struct {
	repo      Repository
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

// NewPublisher wires the publisher with its storage gateway.
func NewPublisher(repo Repository, logger *logrus.Logger, hub *sentry.Hub) (*Publisher, error) {
	if repo == nil {
		return nil, eris.New("content repository is required")
	}

	return &Publisher{repo: repo, logger: logger, sentryHub: hub}, nil
}

// Publish validates the payload and inserts the published row under the caller's
// credential. Blog posts get a deterministic filename derived from the title; journals
// carry none.
func (p *Publisher) Publish(ctx context.Context, token string, req PublishRequest) (*PublishResult, error) {
	if req.Title == "" || req.Content == "" || req.Type == "" {
		return nil, ErrMissingFields
	}

	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}

	if req.Type == TypeJournal {
		id, err := p.repo.PublishJournal(ctx, token, req.Title, req.Content)
		if err != nil {
			p.recordError(logrus.Fields{"type": req.Type}, err, "publishing journal")
			return nil, eris.Wrap(err, "publishing journal")
		}
		return &PublishResult{ID: id}, nil
	}

	filename := DeriveFilename(req.Title)
	id, err := p.repo.PublishBlogPost(ctx, token, req.Title, req.Content, filename)
	if err != nil {
		p.recordError(logrus.Fields{"type": req.Type, "filename": filename}, err, "publishing blog post")
		return nil, eris.Wrap(err, "publishing blog post")
	}

	return &PublishResult{ID: id, Filename: filename}, nil
}

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

const maxSlugLength = 50

// DeriveFilename turns a post title into its stable URL-safe filename: lowercase, strip
// everything outside [a-z0-9\s], collapse whitespace runs to single hyphens, truncate to
// 50 characters, append ".html". The derivation is pure; identical titles collide and no
// disambiguation suffix is applied.
func DeriveFilename(title string) string {
	slug := strings.ToLower(title)
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = whitespaceRuns.ReplaceAllString(slug, "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug + ".html"
}

func (p *Publisher) recordError(fields logrus.Fields, err error, message string) {
	if p.logger != nil {
		entry := p.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if p.sentryHub != nil {
		p.sentryHub.CaptureException(err)
	}
}
