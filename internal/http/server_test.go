package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/papa-aryan/ascii-web/internal/auth"
	"github.com/papa-aryan/ascii-web/internal/content"
)

func TestListBlogPostsReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/blog-posts", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestListBlogPostsReturnsPublishedItems(t *testing.T) {
	t.Parallel()

	filename := "first-post.html"
	repo := &stubContentRepository{
		published: []content.Item{
			{ID: 1, Title: "First Post", Content: "hello", Type: content.TypeBlog, Status: content.StatusPublished, Filename: &filename},
		},
	}
	srv := newTestServer(t, repo, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/blog-posts", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var items []content.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(items) != 1 || items[0].Title != "First Post" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestGetBlogPostReturns404WhenMissing(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/blog-posts/7", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Blog post not found") {
		t.Fatalf("expected not-found message, got %q", rec.Body.String())
	}
}

func TestGetJournalRejectsInvalidID(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/journals/abc", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestDeleteBlogPostWithoutTokenIsDenied(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("DELETE", "/blog-posts/1", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	denial := decodeAuthError(t, rec.Body.Bytes())
	if denial.Code != auth.CodeNoAuthToken {
		t.Fatalf("expected code %q, got %q", auth.CodeNoAuthToken, denial.Code)
	}
	if denial.Error != "Unauthorized: Admin authentication required" {
		t.Fatalf("unexpected denial message %q", denial.Error)
	}
}

func TestDeleteBlogPostWithUnknownTokenIsDenied(t *testing.T) {
	t.Parallel()

	gate := &stubGate{}
	srv := newTestServer(t, &stubContentRepository{}, gate, &stubPublisher{})

	req := httptest.NewRequest("DELETE", "/blog-posts/1", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	denial := decodeAuthError(t, rec.Body.Bytes())
	if denial.Code != auth.CodeInvalidAuth {
		t.Fatalf("expected code %q, got %q", auth.CodeInvalidAuth, denial.Code)
	}
	if denial.Error != "Unauthorized: Invalid admin session" {
		t.Fatalf("unexpected denial message %q", denial.Error)
	}
}

func TestDeleteBlogPostReportsProviderOutage(t *testing.T) {
	t.Parallel()

	gate := &stubGate{verifyErr: eris.New("identity provider unreachable")}
	srv := newTestServer(t, &stubContentRepository{}, gate, &stubPublisher{})

	req := httptest.NewRequest("DELETE", "/blog-posts/1", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 500 {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	denial := decodeAuthError(t, rec.Body.Bytes())
	if denial.Code != auth.CodeServiceError {
		t.Fatalf("expected code %q, got %q", auth.CodeServiceError, denial.Code)
	}
}

func TestDeleteBlogPostForwardsTokenToRepository(t *testing.T) {
	t.Parallel()

	repo := &stubContentRepository{}
	gate := &stubGate{verifyUser: &auth.User{ID: "admin-id", Email: "admin@example.com"}}
	srv := newTestServer(t, repo, gate, &stubPublisher{})

	req := httptest.NewRequest("DELETE", "/blog-posts/3", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("expected success body, got %q", rec.Body.String())
	}
	if repo.deletedPublishedID != 3 || repo.deletedPublishedType != content.TypeBlog {
		t.Fatalf("unexpected delete call: id=%d type=%q", repo.deletedPublishedID, repo.deletedPublishedType)
	}
	if repo.lastToken != "admin-token" {
		t.Fatalf("expected token forwarded to repository, got %q", repo.lastToken)
	}
}

func TestLoginReturnsSession(t *testing.T) {
	t.Parallel()

	gate := &stubGate{
		signInResult: &auth.SignInResult{
			User:    &auth.User{ID: "admin-id", Email: "admin@example.com"},
			Session: &auth.Session{AccessToken: "fresh-token", ExpiresAt: 1234567890},
		},
	}
	srv := newTestServer(t, &stubContentRepository{}, gate, &stubPublisher{})

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"action":"login","email":"admin@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload loginBody
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !payload.Success || payload.Session.AccessToken != "fresh-token" {
		t.Fatalf("unexpected login payload: %+v", payload)
	}
	if payload.User.Email != "admin@example.com" {
		t.Fatalf("unexpected user in payload: %+v", payload.User)
	}
}

func TestLoginRejectsNonAdmin(t *testing.T) {
	t.Parallel()

	gate := &stubGate{signInErr: auth.ErrNotAdmin}
	srv := newTestServer(t, &stubContentRepository{}, gate, &stubPublisher{})

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"action":"login","email":"other@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unauthorized: Admin access only") {
		t.Fatalf("expected admin-only message, got %q", rec.Body.String())
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"action":"login"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email and password are required") {
		t.Fatalf("expected validation message, got %q", rec.Body.String())
	}
}

func TestAuthRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"action":"refresh"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid action") {
		t.Fatalf("expected invalid-action message, got %q", rec.Body.String())
	}
}

func TestLogoutRevokesSessionAndAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	gate := &stubGate{}
	srv := newTestServer(t, &stubContentRepository{}, gate, &stubPublisher{})

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"action":"logout"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer old-token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gate.signedOutToken != "old-token" {
		t.Fatalf("expected session revocation with token, got %q", gate.signedOutToken)
	}
}

func TestSaveDraftRequiresTitleOrContent(t *testing.T) {
	t.Parallel()

	gate := &stubGate{verifyUser: &auth.User{ID: "admin-id", Email: "admin@example.com"}}
	srv := newTestServer(t, &stubContentRepository{}, gate, &stubPublisher{})

	req := httptest.NewRequest("POST", "/drafts", strings.NewReader(`{"type":"blog"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Title or content is required") {
		t.Fatalf("expected validation message, got %q", rec.Body.String())
	}
}

func TestSaveDraftCreatesWith201(t *testing.T) {
	t.Parallel()

	repo := &stubContentRepository{savedDraftID: 11}
	gate := &stubGate{verifyUser: &auth.User{ID: "admin-id", Email: "admin@example.com"}}
	srv := newTestServer(t, repo, gate, &stubPublisher{})

	req := httptest.NewRequest("POST", "/drafts", strings.NewReader(`{"title":"WIP","content":"notes"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":11`) {
		t.Fatalf("expected new draft id in body, got %q", rec.Body.String())
	}
	if repo.savedDraftType != content.TypeBlog {
		t.Fatalf("expected missing type to default to blog, got %q", repo.savedDraftType)
	}
}

func TestSaveDraftUpdatesExistingWith200(t *testing.T) {
	t.Parallel()

	repo := &stubContentRepository{}
	gate := &stubGate{verifyUser: &auth.User{ID: "admin-id", Email: "admin@example.com"}}
	srv := newTestServer(t, repo, gate, &stubPublisher{})

	req := httptest.NewRequest("POST", "/drafts", strings.NewReader(`{"id":4,"title":"WIP","content":"more","type":"journal"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.updatedDraftID != 4 {
		t.Fatalf("expected update of draft 4, got %d", repo.updatedDraftID)
	}
}

func TestPublishMapsValidationErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing fields", content.ErrMissingFields, 400, "Title, content, and type are required"},
		{"invalid type", content.ErrInvalidType, 400, `Type must be either "blog" or "journal"`},
		{"storage failure", eris.New("insert failed"), 500, "Failed to publish content"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gate := &stubGate{verifyUser: &auth.User{ID: "admin-id", Email: "admin@example.com"}}
			srv := newTestServer(t, &stubContentRepository{}, gate, &stubPublisher{err: tc.err})

			req := httptest.NewRequest("POST", "/publish", strings.NewReader(`{"title":"T","content":"C","type":"blog"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer admin-token")
			rec := httptest.NewRecorder()

			srv.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.message) {
				t.Fatalf("expected message %q, got %q", tc.message, rec.Body.String())
			}
		})
	}
}

func TestPublishReturnsNewID(t *testing.T) {
	t.Parallel()

	publisher := &stubPublisher{result: &content.PublishResult{ID: 9, Filename: "t.html"}}
	gate := &stubGate{verifyUser: &auth.User{ID: "admin-id", Email: "admin@example.com"}}
	srv := newTestServer(t, &stubContentRepository{}, gate, publisher)

	req := httptest.NewRequest("POST", "/publish", strings.NewReader(`{"title":"T","content":"C","type":"blog"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":9`) {
		t.Fatalf("expected published id in body, got %q", rec.Body.String())
	}
	if publisher.lastToken != "admin-token" {
		t.Fatalf("expected token forwarded to publisher, got %q", publisher.lastToken)
	}
}

func TestServeBlogPostRejectsTraversal(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/serve-blog-post?filename=..%2Fsecrets.html", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid filename") {
		t.Fatalf("expected traversal rejection, got %q", rec.Body.String())
	}
}

func TestServeBlogPostRendersFormattedHTML(t *testing.T) {
	t.Parallel()

	filename := "my-post.html"
	repo := &stubContentRepository{
		blogPostByFilename: &content.Item{
			ID:        1,
			Title:     "My Post",
			Content:   "**bold** and *italic*\nsecond line",
			Type:      content.TypeBlog,
			Status:    content.StatusPublished,
			Filename:  &filename,
			CreatedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		},
	}
	srv := newTestServer(t, repo, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/serve-blog-post?filename=my-post", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache, no-store, must-revalidate" {
		t.Fatalf("expected no-store cache header, got %q", cc)
	}

	body := rec.Body.String()
	for _, fragment := range []string{"My Post", "2025-03-14", "<strong>bold</strong>", "<em>italic</em>", "<br>"} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected body to contain %q, got %q", fragment, body)
		}
	}
}

func TestServeBlogPostReturns404WhenMissing(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/serve-blog-post?filename=nope", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHealthRouteReportsOK(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubContentRepository{}, &stubGate{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

// helper utilities

func newTestServer(t *testing.T, repo content.Repository, gate AccessGate, publisher Publisher) *Server {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open returned error: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := NewServer(Options{
		Repository: repo,
		Publisher:  publisher,
		Gate:       gate,
		Database:   gormDB,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}

	return srv
}

func decodeAuthError(t *testing.T, body []byte) authErrorBody {
	t.Helper()

	var denial authErrorBody
	if err := json.Unmarshal(body, &denial); err != nil {
		t.Fatalf("decoding auth error body: %v", err)
	}
	return denial
}

// stubs

type stubContentRepository struct {
	published          []content.Item
	drafts             []content.Item
	item               *content.Item
	blogPostByFilename *content.Item
	savedDraftID       uint
	err                error

	lastToken            string
	savedDraftType       content.Type
	updatedDraftID       uint
	deletedDraftID       uint
	deletedPublishedID   uint
	deletedPublishedType content.Type
}

func (s *stubContentRepository) SaveDraft(_ context.Context, token, _, _ string, itemType content.Type) (uint, error) {
	s.lastToken = token
	s.savedDraftType = itemType
	return s.savedDraftID, s.err
}

func (s *stubContentRepository) GetDrafts(_ context.Context, token string, _ content.Type) ([]content.Item, error) {
	s.lastToken = token
	return s.drafts, s.err
}

func (s *stubContentRepository) UpdateDraft(_ context.Context, token string, id uint, _, _ string, _ content.Type) error {
	s.lastToken = token
	s.updatedDraftID = id
	return s.err
}

func (s *stubContentRepository) DeleteDraft(_ context.Context, token string, id uint) error {
	s.lastToken = token
	s.deletedDraftID = id
	return s.err
}

func (s *stubContentRepository) PublishBlogPost(_ context.Context, token, _, _, _ string) (uint, error) {
	s.lastToken = token
	return 0, s.err
}

func (s *stubContentRepository) PublishJournal(_ context.Context, token, _, _ string) (uint, error) {
	s.lastToken = token
	return 0, s.err
}

func (s *stubContentRepository) GetAllPublished(_ context.Context, _ content.Type) ([]content.Item, error) {
	return s.published, s.err
}

func (s *stubContentRepository) GetByID(_ context.Context, _ uint, _ content.Type) (*content.Item, error) {
	return s.item, s.err
}

func (s *stubContentRepository) GetBlogPostByFilename(_ context.Context, _ string) (*content.Item, error) {
	return s.blogPostByFilename, s.err
}

func (s *stubContentRepository) DeletePublished(_ context.Context, token string, id uint, itemType content.Type) error {
	s.lastToken = token
	s.deletedPublishedID = id
	s.deletedPublishedType = itemType
	return s.err
}

type stubGate struct {
	verifyUser     *auth.User
	verifyErr      error
	signInResult   *auth.SignInResult
	signInErr      error
	signedOutToken string
}

func (s *stubGate) VerifyAdmin(_ context.Context, _ string) (*auth.User, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyUser, nil
}

func (s *stubGate) SignIn(_ context.Context, _, _ string) (*auth.SignInResult, error) {
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return s.signInResult, nil
}

func (s *stubGate) SignOut(_ context.Context, token string) {
	s.signedOutToken = token
}

type stubPublisher struct {
	result    *content.PublishResult
	err       error
	lastToken string
}

func (s *stubPublisher) Publish(_ context.Context, token string, _ content.PublishRequest) (*content.PublishResult, error) {
	s.lastToken = token
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

var _ content.Repository = (*stubContentRepository)(nil)
var _ AccessGate = (*stubGate)(nil)
var _ Publisher = (*stubPublisher)(nil)
