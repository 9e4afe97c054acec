package service

import (
	"context"
	"sync"
	"time"

	"github.com/itchan-dev/forum/backend/internal/ordering"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

// --- Mocks ---

// MockStorage mocks every storage interface of the package. Unset funcs
// return a plausible default.
type MockStorage struct {
	createCategoryFunc  func(data domain.CategoryCreationData) (domain.CategoryId, error)
	getCategoryFunc     func(id domain.CategoryId) (domain.Category, error)
	listCategoriesFunc  func() ([]domain.Category, error)
	listForumsFunc      func(categoryId domain.CategoryId) ([]domain.Forum, error)
	updateCategoryFunc  func(id domain.CategoryId, name domain.CategoryName, edited domain.Signature) error
	deleteCategoryFunc  func(id domain.CategoryId) error
	createForumFunc     func(data domain.ForumCreationData) (domain.ForumId, error)
	getForumFunc        func(id domain.ForumId) (domain.Forum, error)
	listThreadsFunc     func(forumId domain.ForumId, sort domain.ThreadSort) ([]domain.Thread, error)
	updateForumFunc     func(id domain.ForumId, data domain.ForumEditData) error
	deleteForumFunc     func(id domain.ForumId) error
	createThreadFunc    func(data domain.ThreadCreationData) (domain.ThreadId, error)
	getThreadFunc       func(id domain.ThreadId) (domain.Thread, error)
	listRepliesFunc     func(threadId domain.ThreadId) ([]domain.Reply, error)
	updateThreadFunc    func(id domain.ThreadId, data domain.PostEditData) error
	setThreadClosedFunc func(id domain.ThreadId, closed *domain.Signature) (bool, error)
	setThreadStickyFunc func(id domain.ThreadId, sticky bool) (bool, error)
	moveThreadFunc      func(id domain.ThreadId, to domain.ForumId) (bool, error)
	deleteThreadFunc    func(id domain.ThreadId) error
	createReplyFunc     func(data domain.ReplyCreationData) (domain.ReplyId, error)
	getReplyFunc        func(id domain.ReplyId) (domain.Reply, error)
	updateReplyFunc     func(id domain.ReplyId, data domain.PostEditData) error
	deleteReplyFunc     func(id domain.ReplyId) error
	moveCategoryFunc    func(id domain.CategoryId, dir ordering.Direction) (bool, error)
	moveForumFunc       func(id domain.ForumId, dir ordering.Direction) (bool, error)
	searchFunc          func(query string, limit int) ([]domain.SearchHit, error)
	inactiveThreadsFunc func(before time.Time, limit int) ([]domain.Thread, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockStorage) track(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *MockStorage) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// Writes counts every call that would change stored state.
func (m *MockStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, name := range []string{
		"CreateCategory", "UpdateCategory", "DeleteCategory", "CreateForum", "UpdateForum", "DeleteForum",
		"CreateThread", "UpdateThread", "SetThreadClosed", "SetThreadSticky", "MoveThread", "DeleteThread",
		"IncrementViews", "CreateReply", "UpdateReply", "DeleteReply",
		"MoveCategory", "MoveForum", "NormalizeCategories", "NormalizeForums",
	} {
		n += m.calls[name]
	}
	return n
}

func (m *MockStorage) CreateCategory(_ context.Context, data domain.CategoryCreationData) (domain.CategoryId, error) {
	m.track("CreateCategory")
	if m.createCategoryFunc != nil {
		return m.createCategoryFunc(data)
	}
	return 1, nil
}

func (m *MockStorage) GetCategory(_ context.Context, id domain.CategoryId) (domain.Category, error) {
	m.track("GetCategory")
	if m.getCategoryFunc != nil {
		return m.getCategoryFunc(id)
	}
	return domain.Category{Id: id, Name: "General"}, nil
}

func (m *MockStorage) GetCategoryByName(_ context.Context, name domain.CategoryName) (domain.Category, error) {
	m.track("GetCategoryByName")
	return domain.Category{Id: 1, Name: name}, nil
}

func (m *MockStorage) ListCategories(_ context.Context) ([]domain.Category, error) {
	m.track("ListCategories")
	if m.listCategoriesFunc != nil {
		return m.listCategoriesFunc()
	}
	return []domain.Category{}, nil
}

func (m *MockStorage) ListForums(_ context.Context, categoryId domain.CategoryId) ([]domain.Forum, error) {
	m.track("ListForums")
	if m.listForumsFunc != nil {
		return m.listForumsFunc(categoryId)
	}
	return []domain.Forum{}, nil
}

func (m *MockStorage) UpdateCategory(_ context.Context, id domain.CategoryId, name domain.CategoryName, edited domain.Signature) error {
	m.track("UpdateCategory")
	if m.updateCategoryFunc != nil {
		return m.updateCategoryFunc(id, name, edited)
	}
	return nil
}

func (m *MockStorage) DeleteCategory(_ context.Context, id domain.CategoryId) error {
	m.track("DeleteCategory")
	if m.deleteCategoryFunc != nil {
		return m.deleteCategoryFunc(id)
	}
	return nil
}

func (m *MockStorage) CreateForum(_ context.Context, data domain.ForumCreationData) (domain.ForumId, error) {
	m.track("CreateForum")
	if m.createForumFunc != nil {
		return m.createForumFunc(data)
	}
	return 1, nil
}

func (m *MockStorage) GetForum(_ context.Context, id domain.ForumId) (domain.Forum, error) {
	m.track("GetForum")
	if m.getForumFunc != nil {
		return m.getForumFunc(id)
	}
	return domain.Forum{Id: id, CategoryId: 1, Name: "Intro"}, nil
}

func (m *MockStorage) GetForumByName(_ context.Context, name domain.ForumName) (domain.Forum, error) {
	m.track("GetForumByName")
	return domain.Forum{Id: 1, CategoryId: 1, Name: name}, nil
}

func (m *MockStorage) ListThreads(_ context.Context, forumId domain.ForumId, sort domain.ThreadSort) ([]domain.Thread, error) {
	m.track("ListThreads")
	if m.listThreadsFunc != nil {
		return m.listThreadsFunc(forumId, sort)
	}
	return []domain.Thread{}, nil
}

func (m *MockStorage) UpdateForum(_ context.Context, id domain.ForumId, data domain.ForumEditData) error {
	m.track("UpdateForum")
	if m.updateForumFunc != nil {
		return m.updateForumFunc(id, data)
	}
	return nil
}

func (m *MockStorage) DeleteForum(_ context.Context, id domain.ForumId) error {
	m.track("DeleteForum")
	if m.deleteForumFunc != nil {
		return m.deleteForumFunc(id)
	}
	return nil
}

func (m *MockStorage) CreateThread(_ context.Context, data domain.ThreadCreationData) (domain.ThreadId, error) {
	m.track("CreateThread")
	if m.createThreadFunc != nil {
		return m.createThreadFunc(data)
	}
	return 1, nil
}

func (m *MockStorage) GetThread(_ context.Context, id domain.ThreadId) (domain.Thread, error) {
	m.track("GetThread")
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.Thread{Id: id, ForumId: 1, Title: "Hello", Posted: domain.Signature{Actor: authorId}}, nil
}

func (m *MockStorage) GetThreadByTitle(_ context.Context, title domain.ThreadTitle) (domain.Thread, error) {
	m.track("GetThreadByTitle")
	return domain.Thread{Id: 1, ForumId: 1, Title: title}, nil
}

func (m *MockStorage) ListReplies(_ context.Context, threadId domain.ThreadId) ([]domain.Reply, error) {
	m.track("ListReplies")
	if m.listRepliesFunc != nil {
		return m.listRepliesFunc(threadId)
	}
	return []domain.Reply{}, nil
}

func (m *MockStorage) RecentThreads(_ context.Context, limit int) ([]domain.Thread, error) {
	m.track("RecentThreads")
	return make([]domain.Thread, 0, limit), nil
}

func (m *MockStorage) UpdateThread(_ context.Context, id domain.ThreadId, data domain.PostEditData) error {
	m.track("UpdateThread")
	if m.updateThreadFunc != nil {
		return m.updateThreadFunc(id, data)
	}
	return nil
}

func (m *MockStorage) SetThreadClosed(_ context.Context, id domain.ThreadId, closed *domain.Signature) (bool, error) {
	m.track("SetThreadClosed")
	if m.setThreadClosedFunc != nil {
		return m.setThreadClosedFunc(id, closed)
	}
	return true, nil
}

func (m *MockStorage) SetThreadSticky(_ context.Context, id domain.ThreadId, sticky bool) (bool, error) {
	m.track("SetThreadSticky")
	if m.setThreadStickyFunc != nil {
		return m.setThreadStickyFunc(id, sticky)
	}
	return true, nil
}

func (m *MockStorage) MoveThread(_ context.Context, id domain.ThreadId, to domain.ForumId) (bool, error) {
	m.track("MoveThread")
	if m.moveThreadFunc != nil {
		return m.moveThreadFunc(id, to)
	}
	return true, nil
}

func (m *MockStorage) DeleteThread(_ context.Context, id domain.ThreadId) error {
	m.track("DeleteThread")
	if m.deleteThreadFunc != nil {
		return m.deleteThreadFunc(id)
	}
	return nil
}

func (m *MockStorage) IncrementViews(_ context.Context, _ domain.ThreadId) error {
	m.track("IncrementViews")
	return nil
}

func (m *MockStorage) CreateReply(_ context.Context, data domain.ReplyCreationData) (domain.ReplyId, error) {
	m.track("CreateReply")
	if m.createReplyFunc != nil {
		return m.createReplyFunc(data)
	}
	return 1, nil
}

func (m *MockStorage) GetReply(_ context.Context, id domain.ReplyId) (domain.Reply, error) {
	m.track("GetReply")
	if m.getReplyFunc != nil {
		return m.getReplyFunc(id)
	}
	return domain.Reply{Id: id, ThreadId: 1, Text: "Welcome!", Posted: domain.Signature{Actor: authorId}}, nil
}

func (m *MockStorage) UpdateReply(_ context.Context, id domain.ReplyId, data domain.PostEditData) error {
	m.track("UpdateReply")
	if m.updateReplyFunc != nil {
		return m.updateReplyFunc(id, data)
	}
	return nil
}

func (m *MockStorage) DeleteReply(_ context.Context, id domain.ReplyId) error {
	m.track("DeleteReply")
	if m.deleteReplyFunc != nil {
		return m.deleteReplyFunc(id)
	}
	return nil
}

func (m *MockStorage) MoveCategory(_ context.Context, id domain.CategoryId, dir ordering.Direction) (bool, error) {
	m.track("MoveCategory")
	if m.moveCategoryFunc != nil {
		return m.moveCategoryFunc(id, dir)
	}
	return true, nil
}

func (m *MockStorage) MoveForum(_ context.Context, id domain.ForumId, dir ordering.Direction) (bool, error) {
	m.track("MoveForum")
	if m.moveForumFunc != nil {
		return m.moveForumFunc(id, dir)
	}
	return true, nil
}

func (m *MockStorage) NormalizeCategories(_ context.Context) error {
	m.track("NormalizeCategories")
	return nil
}

func (m *MockStorage) NormalizeForums(_ context.Context, _ domain.CategoryId) error {
	m.track("NormalizeForums")
	return nil
}

func (m *MockStorage) Search(_ context.Context, query string, limit int) ([]domain.SearchHit, error) {
	m.track("Search")
	if m.searchFunc != nil {
		return m.searchFunc(query, limit)
	}
	return []domain.SearchHit{}, nil
}

func (m *MockStorage) InactiveThreads(_ context.Context, before time.Time, limit int) ([]domain.Thread, error) {
	m.track("InactiveThreads")
	if m.inactiveThreadsFunc != nil {
		return m.inactiveThreadsFunc(before, limit)
	}
	return []domain.Thread{}, nil
}

// MockAudit keeps every recorded event.
type MockAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (m *MockAudit) Record(_ context.Context, event domain.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockAudit) Events() []domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEvent(nil), m.events...)
}

// MockCache is a map-backed RecordCache that counts invalidations.
type MockCache struct {
	mu          sync.Mutex
	categories  map[domain.CategoryId]domain.Category
	forums      map[domain.ForumId]domain.Forum
	invalidated []string
	flushes     int
}

func NewMockCache() *MockCache {
	return &MockCache{
		categories: map[domain.CategoryId]domain.Category{},
		forums:     map[domain.ForumId]domain.Forum{},
	}
}

func (m *MockCache) Category(_ context.Context, id domain.CategoryId) (domain.Category, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	return c, ok
}

func (m *MockCache) SetCategory(_ context.Context, c domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.Id] = c
}

func (m *MockCache) InvalidateCategory(_ context.Context, id domain.CategoryId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	m.invalidated = append(m.invalidated, categoryTarget(id))
}

func (m *MockCache) Forum(_ context.Context, id domain.ForumId) (domain.Forum, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forums[id]
	return f, ok
}

func (m *MockCache) SetForum(_ context.Context, f domain.Forum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forums[f.Id] = f
}

func (m *MockCache) InvalidateForum(_ context.Context, id domain.ForumId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.forums, id)
	m.invalidated = append(m.invalidated, forumTarget(id))
}

func (m *MockCache) Flush(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = map[domain.CategoryId]domain.Category{}
	m.forums = map[domain.ForumId]domain.Forum{}
	m.flushes++
}

// MockCaptcha accepts exactly one token.
type MockCaptcha struct {
	valid string
}

func (m *MockCaptcha) Verify(_ context.Context, _ domain.Actor, token string) error {
	if token != m.valid {
		return internal_errors.ValidationFailed("wrong answer")
	}
	return nil
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Helpers ---

const authorId domain.ActorId = 42

var (
	anonymous = domain.Actor{IP: "203.0.113.9"}
	author    = domain.Actor{Id: authorId, Name: "alice", IP: "10.0.0.42", Caps: domain.Capabilities{Authenticated: true}}
	stranger  = domain.Actor{Id: 7, Name: "bob", IP: "10.0.0.7", Caps: domain.Capabilities{Authenticated: true}}
	moderator = domain.Actor{Id: 2, Name: "mod", IP: "10.0.0.2", Caps: domain.Capabilities{Moderator: true}}
	admin     = domain.Actor{Id: 1, Name: "root", IP: "10.0.0.1", Caps: domain.Capabilities{Administrator: true}}
)

func testConfig() *config.Public {
	return &config.Public{
		DoublePostWindow: 24 * time.Hour,
		ThreadsPerPage:   2,
		RepliesPerPage:   2,
		SearchLimit:      50,
		MaxTitleLength:   255,
		MaxTextLength:    65535,
	}
}

// deps bundles a mocked environment for one test.
type deps struct {
	storage *MockStorage
	audit   *MockAudit
	cache   *MockCache
	clock   *fakeClock
	cfg     *config.Public
	guard   *Guard
}

func newDeps() *deps {
	d := &deps{
		storage: &MockStorage{},
		audit:   &MockAudit{},
		cache:   NewMockCache(),
		clock:   newFakeClock(),
		cfg:     testConfig(),
	}
	d.guard = NewGuard(NewLegalTitle(), nil, d.cfg, d.clock.Now)
	return d
}

func (d *deps) threads() *Thread {
	return NewThread(d.storage, d.guard, d.cache, d.audit, d.cfg)
}

func (d *deps) replies() *Reply {
	return NewReply(d.storage, d.guard, d.cache, d.audit, d.cfg)
}

func (d *deps) forums() *Forum {
	return NewForum(d.storage, d.guard, d.cache, d.audit, d.cfg)
}

func (d *deps) categories() *Category {
	return NewCategory(d.storage, d.guard, d.cache, d.audit, d.cfg)
}

func (d *deps) ordering() *Ordering {
	return NewOrdering(d.storage, d.cache, d.audit, d.cfg, d.clock.Now)
}
