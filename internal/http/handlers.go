package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/papa-aryan/ascii-web/internal/auth"
	"github.com/papa-aryan/ascii-web/internal/content"
	"github.com/papa-aryan/ascii-web/internal/db"
	"github.com/papa-aryan/ascii-web/internal/http/templates"
)

type idInput struct {
	ID string `path:"id"`
}

type draftListInput struct {
	Type string `query:"type"`
}

type draftSaveInput struct {
	Body struct {
		ID      uint   `json:"id,omitempty"`
		Title   string `json:"title,omitempty"`
		Content string `json:"content,omitempty"`
		Type    string `json:"type,omitempty"`
	}
}

type publishInput struct {
	Body struct {
		Title   string `json:"title,omitempty"`
		Content string `json:"content,omitempty"`
		Type    string `json:"type,omitempty"`
	}
}

type authInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Action   string `json:"action,omitempty"`
		Email    string `json:"email,omitempty"`
		Password string `json:"password,omitempty"`
	}
}

type serveBlogPostInput struct {
	Filename string `query:"filename"`
}

type loginBody struct {
	Success bool `json:"success"`
	User    struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Session struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	} `json:"session"`
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

func (s *Server) registerAuthRoute() {
	huma.Post(s.api, "/auth", s.authHandler, jsonOperation(
		"Sign the admin in or out",
		stdhttp.StatusBadRequest,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerBlogPostRoutes() {
	huma.Get(s.api, "/blog-posts", s.listBlogPostsHandler, jsonOperation(
		"List published blog posts",
		stdhttp.StatusInternalServerError,
	))
	huma.Get(s.api, "/blog-posts/{id}", s.getBlogPostHandler, jsonOperation(
		"Fetch a blog post",
		stdhttp.StatusBadRequest,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Delete(s.api, "/blog-posts/{id}", s.deleteBlogPostHandler, jsonOperation(
		"Delete a published blog post",
		stdhttp.StatusBadRequest,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	), s.adminOnly)
}

func (s *Server) registerJournalRoutes() {
	huma.Get(s.api, "/journals", s.listJournalsHandler, jsonOperation(
		"List published journals",
		stdhttp.StatusInternalServerError,
	))
	huma.Get(s.api, "/journals/{id}", s.getJournalHandler, jsonOperation(
		"Fetch a journal entry",
		stdhttp.StatusBadRequest,
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Delete(s.api, "/journals/{id}", s.deleteJournalHandler, jsonOperation(
		"Delete a published journal",
		stdhttp.StatusBadRequest,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	), s.adminOnly)
}

func (s *Server) registerDraftRoutes() {
	huma.Get(s.api, "/drafts", s.listDraftsHandler, jsonOperation(
		"List drafts",
		stdhttp.StatusBadRequest,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	), s.adminOnly)
	huma.Post(s.api, "/drafts", s.saveDraftHandler, jsonOperation(
		"Create or update a draft",
		stdhttp.StatusCreated,
		stdhttp.StatusBadRequest,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	), s.adminOnly)
	huma.Delete(s.api, "/drafts/{id}", s.deleteDraftHandler, jsonOperation(
		"Delete a draft",
		stdhttp.StatusBadRequest,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	), s.adminOnly)
}

func (s *Server) registerPublishRoute() {
	huma.Post(s.api, "/publish", s.publishHandler, jsonOperation(
		"Publish a blog post or journal",
		stdhttp.StatusBadRequest,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	), s.adminOnly)
}

func (s *Server) registerServeBlogPostRoute() {
	huma.Get(s.api, "/serve-blog-post", s.serveBlogPostHandler, func(op *huma.Operation) {
		op.Summary = "Render a published blog post as HTML"
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}
		op.Responses["200"] = &huma.Response{
			Description: stdhttp.StatusText(stdhttp.StatusOK),
			Content: map[string]*huma.MediaType{
				htmlContentType: {Schema: &huma.Schema{Type: "string"}},
			},
		}
		for _, status := range []int{stdhttp.StatusBadRequest, stdhttp.StatusNotFound, stdhttp.StatusInternalServerError} {
			op.Responses[strconv.Itoa(status)] = &huma.Response{Description: stdhttp.StatusText(status)}
		}
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) authHandler(ctx context.Context, input *authInput) (*apiResponse, error) {
	switch input.Body.Action {
	case "login":
		if input.Body.Email == "" || input.Body.Password == "" {
			return errorResponse(stdhttp.StatusBadRequest, "Email and password are required"), nil
		}

		result, err := s.gate.SignIn(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			switch {
			case eris.Is(err, auth.ErrNotAdmin):
				return newJSONResponse(stdhttp.StatusUnauthorized, failureBody{Error: "Unauthorized: Admin access only"})
			case eris.Is(err, auth.ErrInvalidCredentials):
				return newJSONResponse(stdhttp.StatusUnauthorized, failureBody{Error: "Invalid login credentials"})
			default:
				s.recordError(ctx, err, "sign-in failed", logrus.Fields{"email": input.Body.Email})
				return errorResponse(stdhttp.StatusInternalServerError, "Authentication service error"), nil
			}
		}

		payload := loginBody{Success: true}
		payload.User.ID = result.User.ID
		payload.User.Email = result.User.Email
		payload.Session.AccessToken = result.Session.AccessToken
		payload.Session.ExpiresAt = result.Session.ExpiresAt
		return newJSONResponse(stdhttp.StatusOK, payload)

	case "logout":
		if token, ok := bearerToken(input.Authorization); ok {
			s.gate.SignOut(ctx, token)
		}
		return newJSONResponse(stdhttp.StatusOK, successBody{Success: true})

	default:
		return errorResponse(stdhttp.StatusBadRequest, `Invalid action. Use "login" or "logout"`), nil
	}
}

func (s *Server) listBlogPostsHandler(ctx context.Context, _ *struct{}) (*apiResponse, error) {
	return s.listPublished(ctx, content.TypeBlog, "Failed to get published blog posts")
}

func (s *Server) listJournalsHandler(ctx context.Context, _ *struct{}) (*apiResponse, error) {
	return s.listPublished(ctx, content.TypeJournal, "Failed to get published journals")
}

func (s *Server) listPublished(ctx context.Context, itemType content.Type, failureMessage string) (*apiResponse, error) {
	items, err := s.repository.GetAllPublished(ctx, itemType)
	if err != nil {
		s.recordError(ctx, err, "listing published content", logrus.Fields{"type": itemType})
		return errorResponse(stdhttp.StatusInternalServerError, failureMessage), nil
	}

	if items == nil {
		items = []content.Item{}
	}
	return newJSONResponse(stdhttp.StatusOK, items)
}

func (s *Server) getBlogPostHandler(ctx context.Context, input *idInput) (*apiResponse, error) {
	return s.getPublished(ctx, input.ID, content.TypeBlog, "Blog post")
}

func (s *Server) getJournalHandler(ctx context.Context, input *idInput) (*apiResponse, error) {
	return s.getPublished(ctx, input.ID, content.TypeJournal, "Journal")
}

func (s *Server) getPublished(ctx context.Context, rawID string, itemType content.Type, label string) (*apiResponse, error) {
	id, ok := parseID(rawID)
	if !ok {
		return errorResponse(stdhttp.StatusBadRequest, label+" ID is invalid"), nil
	}

	item, err := s.repository.GetByID(ctx, id, itemType)
	if err != nil {
		s.recordError(ctx, err, "fetching content by id", logrus.Fields{"id": id, "type": itemType})
		return errorResponse(stdhttp.StatusInternalServerError, "Failed to get "+strings.ToLower(label)), nil
	}
	if item == nil {
		return errorResponse(stdhttp.StatusNotFound, label+" not found"), nil
	}

	return newJSONResponse(stdhttp.StatusOK, item)
}

func (s *Server) deleteBlogPostHandler(ctx context.Context, input *idInput) (*apiResponse, error) {
	return s.deletePublished(ctx, input.ID, content.TypeBlog, "Blog post")
}

func (s *Server) deleteJournalHandler(ctx context.Context, input *idInput) (*apiResponse, error) {
	return s.deletePublished(ctx, input.ID, content.TypeJournal, "Journal")
}

func (s *Server) deletePublished(ctx context.Context, rawID string, itemType content.Type, label string) (*apiResponse, error) {
	id, ok := parseID(rawID)
	if !ok {
		return errorResponse(stdhttp.StatusBadRequest, label+" ID is invalid"), nil
	}

	token := AccessTokenFromContext(ctx)
	if err := s.repository.DeletePublished(ctx, token, id, itemType); err != nil {
		s.recordError(ctx, err, "deleting published content", logrus.Fields{"id": id, "type": itemType})
		return errorResponse(stdhttp.StatusInternalServerError, "Failed to delete "+strings.ToLower(label)), nil
	}

	return newJSONResponse(stdhttp.StatusOK, successBody{Success: true})
}

func (s *Server) listDraftsHandler(ctx context.Context, input *draftListInput) (*apiResponse, error) {
	itemType := content.Type(input.Type)
	if itemType != "" && !itemType.Valid() {
		return errorResponse(stdhttp.StatusBadRequest, `Type must be either "blog" or "journal"`), nil
	}

	drafts, err := s.repository.GetDrafts(ctx, AccessTokenFromContext(ctx), itemType)
	if err != nil {
		s.recordError(ctx, err, "listing drafts", logrus.Fields{"type": itemType})
		return errorResponse(stdhttp.StatusInternalServerError, "Failed to get drafts"), nil
	}

	if drafts == nil {
		drafts = []content.Item{}
	}
	return newJSONResponse(stdhttp.StatusOK, drafts)
}

func (s *Server) saveDraftHandler(ctx context.Context, input *draftSaveInput) (*apiResponse, error) {
	if input.Body.Title == "" && input.Body.Content == "" {
		return errorResponse(stdhttp.StatusBadRequest, "Title or content is required"), nil
	}

	itemType := content.Type(input.Body.Type)
	if itemType == "" {
		itemType = content.TypeBlog
	}
	if !itemType.Valid() {
		return errorResponse(stdhttp.StatusBadRequest, `Type must be either "blog" or "journal"`), nil
	}

	token := AccessTokenFromContext(ctx)

	if input.Body.ID > 0 {
		if err := s.repository.UpdateDraft(ctx, token, input.Body.ID, input.Body.Title, input.Body.Content, itemType); err != nil {
			s.recordError(ctx, err, "updating draft", logrus.Fields{"id": input.Body.ID})
			return errorResponse(stdhttp.StatusInternalServerError, "Failed to update draft"), nil
		}
		return newJSONResponse(stdhttp.StatusOK, successIDBody{Success: true, ID: input.Body.ID})
	}

	id, err := s.repository.SaveDraft(ctx, token, input.Body.Title, input.Body.Content, itemType)
	if err != nil {
		s.recordError(ctx, err, "saving draft", logrus.Fields{"type": itemType})
		return errorResponse(stdhttp.StatusInternalServerError, "Failed to save draft"), nil
	}

	return newJSONResponse(stdhttp.StatusCreated, successIDBody{Success: true, ID: id})
}

func (s *Server) deleteDraftHandler(ctx context.Context, input *idInput) (*apiResponse, error) {
	id, ok := parseID(input.ID)
	if !ok {
		return errorResponse(stdhttp.StatusBadRequest, "Draft ID is invalid"), nil
	}

	if err := s.repository.DeleteDraft(ctx, AccessTokenFromContext(ctx), id); err != nil {
		s.recordError(ctx, err, "deleting draft", logrus.Fields{"id": id})
		return errorResponse(stdhttp.StatusInternalServerError, "Failed to delete draft"), nil
	}

	return newJSONResponse(stdhttp.StatusOK, successBody{Success: true})
}

func (s *Server) publishHandler(ctx context.Context, input *publishInput) (*apiResponse, error) {
	result, err := s.publisher.Publish(ctx, AccessTokenFromContext(ctx), content.PublishRequest{
		Title:   input.Body.Title,
		Content: input.Body.Content,
		Type:    content.Type(input.Body.Type),
	})
	if err != nil {
		switch {
		case eris.Is(err, content.ErrMissingFields):
			return errorResponse(stdhttp.StatusBadRequest, "Title, content, and type are required"), nil
		case eris.Is(err, content.ErrInvalidType):
			return errorResponse(stdhttp.StatusBadRequest, `Type must be either "blog" or "journal"`), nil
		default:
			s.recordError(ctx, err, "publishing content", logrus.Fields{"type": input.Body.Type})
			return errorResponse(stdhttp.StatusInternalServerError, "Failed to publish content"), nil
		}
	}

	return newJSONResponse(stdhttp.StatusOK, successIDBody{Success: true, ID: result.ID})
}

func (s *Server) serveBlogPostHandler(ctx context.Context, input *serveBlogPostInput) (*apiResponse, error) {
	filename := input.Filename
	if filename == "" {
		return errorResponse(stdhttp.StatusBadRequest, "Filename is required"), nil
	}

	// Traversal guard stays even though lookup is by logical key, not filesystem path.
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return errorResponse(stdhttp.StatusBadRequest, "Invalid filename"), nil
	}

	item, err := s.repository.GetBlogPostByFilename(ctx, filename)
	if err != nil {
		s.recordError(ctx, err, "fetching blog post for rendering", logrus.Fields{"filename": filename})
		return errorResponse(stdhttp.StatusInternalServerError, "Internal server error"), nil
	}
	if item == nil {
		return errorResponse(stdhttp.StatusNotFound, "Blog post not found"), nil
	}

	page := templates.BlogPostPage(templates.BlogPostPageData{
		Title: item.Title,
		Date:  item.CreatedAt.UTC().Format("2006-01-02"),
		Body:  templates.Body(item.Content),
	})

	body, err := renderComponent(ctx, page)
	if err != nil {
		s.recordError(ctx, err, "rendering blog post page", logrus.Fields{"filename": filename})
		return errorResponse(stdhttp.StatusInternalServerError, "Internal server error"), nil
	}

	resp := newHTMLResponse(stdhttp.StatusOK, body)
	resp.CacheControl = "no-cache, no-store, must-revalidate"
	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func (s *Server) adminOnly(op *huma.Operation) {
	op.Middlewares = append(op.Middlewares, s.requireAdmin)
}

func jsonOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					jsonContentType: {
						Schema: &huma.Schema{Type: "object"},
					},
				},
			}
		}
	}
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
