package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/backend/internal/ordering"
	"github.com/itchan-dev/forum/shared/domain"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/stretchr/testify/require"
)

// MockCategoryService

type MockCategoryService struct {
	MockCreate    func(ctx context.Context, actor domain.Actor, data domain.CategoryCreationData) (domain.CategoryId, error)
	MockGet       func(ctx context.Context, id domain.CategoryId) (domain.CategoryWithForums, error)
	MockGetByName func(ctx context.Context, name domain.CategoryName) (domain.CategoryWithForums, error)
	MockList      func(ctx context.Context) ([]domain.CategoryWithForums, error)
	MockEdit      func(ctx context.Context, actor domain.Actor, id domain.CategoryId, name domain.CategoryName) error
	MockDelete    func(ctx context.Context, actor domain.Actor, id domain.CategoryId) error
}

func (m *MockCategoryService) Create(ctx context.Context, actor domain.Actor, data domain.CategoryCreationData) (domain.CategoryId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, actor, data)
	}
	return 1, nil
}

func (m *MockCategoryService) Get(ctx context.Context, id domain.CategoryId) (domain.CategoryWithForums, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id)
	}
	return domain.CategoryWithForums{Category: domain.Category{Id: id, Name: "General"}}, nil
}

func (m *MockCategoryService) GetByName(ctx context.Context, name domain.CategoryName) (domain.CategoryWithForums, error) {
	if m.MockGetByName != nil {
		return m.MockGetByName(ctx, name)
	}
	return domain.CategoryWithForums{Category: domain.Category{Id: 1, Name: name}}, nil
}

func (m *MockCategoryService) List(ctx context.Context) ([]domain.CategoryWithForums, error) {
	if m.MockList != nil {
		return m.MockList(ctx)
	}
	return nil, nil
}

func (m *MockCategoryService) Edit(ctx context.Context, actor domain.Actor, id domain.CategoryId, name domain.CategoryName) error {
	if m.MockEdit != nil {
		return m.MockEdit(ctx, actor, id, name)
	}
	return nil
}

func (m *MockCategoryService) Delete(ctx context.Context, actor domain.Actor, id domain.CategoryId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, actor, id)
	}
	return nil
}

// MockForumService

type MockForumService struct {
	MockCreate    func(ctx context.Context, actor domain.Actor, data domain.ForumCreationData) (domain.ForumId, error)
	MockGet       func(ctx context.Context, id domain.ForumId, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error)
	MockGetByName func(ctx context.Context, name domain.ForumName, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error)
	MockEdit      func(ctx context.Context, actor domain.Actor, id domain.ForumId, data domain.ForumEditData) error
	MockDelete    func(ctx context.Context, actor domain.Actor, id domain.ForumId) error
}

func (m *MockForumService) Create(ctx context.Context, actor domain.Actor, data domain.ForumCreationData) (domain.ForumId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, actor, data)
	}
	return 1, nil
}

func (m *MockForumService) Get(ctx context.Context, id domain.ForumId, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id, page, sort)
	}
	return domain.ForumWithThreads{Forum: domain.Forum{Id: id}, Page: domain.PageInfo{Page: page}}, nil
}

func (m *MockForumService) GetByName(ctx context.Context, name domain.ForumName, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error) {
	if m.MockGetByName != nil {
		return m.MockGetByName(ctx, name, page, sort)
	}
	return domain.ForumWithThreads{Forum: domain.Forum{Id: 1, Name: name}, Page: domain.PageInfo{Page: page}}, nil
}

func (m *MockForumService) Edit(ctx context.Context, actor domain.Actor, id domain.ForumId, data domain.ForumEditData) error {
	if m.MockEdit != nil {
		return m.MockEdit(ctx, actor, id, data)
	}
	return nil
}

func (m *MockForumService) Delete(ctx context.Context, actor domain.Actor, id domain.ForumId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, actor, id)
	}
	return nil
}

// MockThreadService

type MockThreadService struct {
	MockCreate      func(ctx context.Context, actor domain.Actor, data domain.ThreadCreationData, captcha string) (domain.ThreadId, error)
	MockView        func(ctx context.Context, id domain.ThreadId, page int) (domain.ThreadWithReplies, error)
	MockViewByTitle func(ctx context.Context, title domain.ThreadTitle, page int) (domain.ThreadWithReplies, error)
	MockRecent      func(ctx context.Context, limit int) ([]domain.Thread, error)
	MockEdit        func(ctx context.Context, actor domain.Actor, id domain.ThreadId, data domain.PostEditData) error
	MockDelete      func(ctx context.Context, actor domain.Actor, id domain.ThreadId) error
	MockClose       func(ctx context.Context, actor domain.Actor, id domain.ThreadId) error
	MockReopen      func(ctx context.Context, actor domain.Actor, id domain.ThreadId) error
	MockSetSticky   func(ctx context.Context, actor domain.Actor, id domain.ThreadId, sticky bool) error
	MockMove        func(ctx context.Context, actor domain.Actor, id domain.ThreadId, to domain.ForumId) error
}

func (m *MockThreadService) Create(ctx context.Context, actor domain.Actor, data domain.ThreadCreationData, captcha string) (domain.ThreadId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, actor, data, captcha)
	}
	return 1, nil
}

func (m *MockThreadService) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadService) View(ctx context.Context, id domain.ThreadId, page int) (domain.ThreadWithReplies, error) {
	if m.MockView != nil {
		return m.MockView(ctx, id, page)
	}
	return domain.ThreadWithReplies{Thread: domain.Thread{Id: id}, Page: domain.PageInfo{Page: page}}, nil
}

func (m *MockThreadService) ViewByTitle(ctx context.Context, title domain.ThreadTitle, page int) (domain.ThreadWithReplies, error) {
	if m.MockViewByTitle != nil {
		return m.MockViewByTitle(ctx, title, page)
	}
	return domain.ThreadWithReplies{Thread: domain.Thread{Id: 1, Title: title}, Page: domain.PageInfo{Page: page}}, nil
}

func (m *MockThreadService) Recent(ctx context.Context, limit int) ([]domain.Thread, error) {
	if m.MockRecent != nil {
		return m.MockRecent(ctx, limit)
	}
	return nil, nil
}

func (m *MockThreadService) Edit(ctx context.Context, actor domain.Actor, id domain.ThreadId, data domain.PostEditData) error {
	if m.MockEdit != nil {
		return m.MockEdit(ctx, actor, id, data)
	}
	return nil
}

func (m *MockThreadService) Delete(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, actor, id)
	}
	return nil
}

func (m *MockThreadService) Close(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
	if m.MockClose != nil {
		return m.MockClose(ctx, actor, id)
	}
	return nil
}

func (m *MockThreadService) Reopen(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
	if m.MockReopen != nil {
		return m.MockReopen(ctx, actor, id)
	}
	return nil
}

func (m *MockThreadService) SetSticky(ctx context.Context, actor domain.Actor, id domain.ThreadId, sticky bool) error {
	if m.MockSetSticky != nil {
		return m.MockSetSticky(ctx, actor, id, sticky)
	}
	return nil
}

func (m *MockThreadService) Move(ctx context.Context, actor domain.Actor, id domain.ThreadId, to domain.ForumId) error {
	if m.MockMove != nil {
		return m.MockMove(ctx, actor, id, to)
	}
	return nil
}

// MockReplyService

type MockReplyService struct {
	MockCreate func(ctx context.Context, actor domain.Actor, data domain.ReplyCreationData, captcha string) (domain.ReplyId, error)
	MockGet    func(ctx context.Context, id domain.ReplyId) (domain.Reply, error)
	MockEdit   func(ctx context.Context, actor domain.Actor, id domain.ReplyId, text domain.PostText) error
	MockDelete func(ctx context.Context, actor domain.Actor, id domain.ReplyId) error
}

func (m *MockReplyService) Create(ctx context.Context, actor domain.Actor, data domain.ReplyCreationData, captcha string) (domain.ReplyId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, actor, data, captcha)
	}
	return 1, nil
}

func (m *MockReplyService) Get(ctx context.Context, id domain.ReplyId) (domain.Reply, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id)
	}
	return domain.Reply{Id: id}, nil
}

func (m *MockReplyService) Edit(ctx context.Context, actor domain.Actor, id domain.ReplyId, text domain.PostText) error {
	if m.MockEdit != nil {
		return m.MockEdit(ctx, actor, id, text)
	}
	return nil
}

func (m *MockReplyService) Delete(ctx context.Context, actor domain.Actor, id domain.ReplyId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, actor, id)
	}
	return nil
}

// MockOrderingService

type MockOrderingService struct {
	MockMoveCategory        func(ctx context.Context, actor domain.Actor, id domain.CategoryId, dir ordering.Direction) error
	MockMoveForum           func(ctx context.Context, actor domain.Actor, id domain.ForumId, dir ordering.Direction) error
	MockNormalizeCategories func(ctx context.Context, actor domain.Actor) error
	MockNormalizeForums     func(ctx context.Context, actor domain.Actor, categoryId domain.CategoryId) error
}

func (m *MockOrderingService) MoveCategory(ctx context.Context, actor domain.Actor, id domain.CategoryId, dir ordering.Direction) error {
	if m.MockMoveCategory != nil {
		return m.MockMoveCategory(ctx, actor, id, dir)
	}
	return nil
}

func (m *MockOrderingService) MoveForum(ctx context.Context, actor domain.Actor, id domain.ForumId, dir ordering.Direction) error {
	if m.MockMoveForum != nil {
		return m.MockMoveForum(ctx, actor, id, dir)
	}
	return nil
}

func (m *MockOrderingService) NormalizeCategories(ctx context.Context, actor domain.Actor) error {
	if m.MockNormalizeCategories != nil {
		return m.MockNormalizeCategories(ctx, actor)
	}
	return nil
}

func (m *MockOrderingService) NormalizeForums(ctx context.Context, actor domain.Actor, categoryId domain.CategoryId) error {
	if m.MockNormalizeForums != nil {
		return m.MockNormalizeForums(ctx, actor, categoryId)
	}
	return nil
}

// MockSearchService

type MockSearchService struct {
	MockSearch func(ctx context.Context, query string) ([]domain.SearchHit, error)
}

func (m *MockSearchService) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	if m.MockSearch != nil {
		return m.MockSearch(ctx, query)
	}
	return nil, nil
}

// MockRenderer wraps text so tests can tell rendered output apart.
type MockRenderer struct{}

func (MockRenderer) Render(text string) string {
	return "<p>" + text + "</p>"
}

// MockHealthChecker

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Helper functions

var (
	testAdmin  = domain.Actor{Id: 1, Name: "root", IP: "10.0.0.1", Caps: domain.Capabilities{Authenticated: true, Moderator: true, Administrator: true}}
	testMember = domain.Actor{Id: 42, Name: "alice", IP: "10.0.0.2", Caps: domain.Capabilities{Authenticated: true}}
)

type testServices struct {
	category *MockCategoryService
	forum    *MockForumService
	thread   *MockThreadService
	reply    *MockReplyService
	ordering *MockOrderingService
	search   *MockSearchService
	health   *MockHealthChecker
}

func newTestHandler() (*Handler, *testServices) {
	s := &testServices{
		category: &MockCategoryService{},
		forum:    &MockForumService{},
		thread:   &MockThreadService{},
		reply:    &MockReplyService{},
		ordering: &MockOrderingService{},
		search:   &MockSearchService{},
		health:   &MockHealthChecker{},
	}
	h := New(Services{
		Category: s.category,
		Forum:    s.forum,
		Thread:   s.thread,
		Reply:    s.reply,
		Ordering: s.ordering,
		Search:   s.search,
	}, MockRenderer{}, s.health)
	return h, s
}

// serve routes a single request through a chi router so URL params resolve,
// with actor injected into the context.
func serve(t *testing.T, actor domain.Actor, pattern, method, url string, body any, handle http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(mw.WithActor(r.Context(), actor)))
			})
		})
		r.Method(method, pattern, handle)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, createRequest(t, method, url, body))
	return rr
}

func createRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var reqBody []byte
	var err error
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = []byte(b)
	default:
		reqBody, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, url, bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}
