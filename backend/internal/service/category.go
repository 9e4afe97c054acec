package service

import (
	"context"
	"strconv"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
)

// RecordCache holds category and forum rows by id. Every mutation that
// touches a cached row invalidates it.
type RecordCache interface {
	Category(ctx context.Context, id domain.CategoryId) (domain.Category, bool)
	SetCategory(ctx context.Context, category domain.Category)
	InvalidateCategory(ctx context.Context, id domain.CategoryId)
	Forum(ctx context.Context, id domain.ForumId) (domain.Forum, bool)
	SetForum(ctx context.Context, forum domain.Forum)
	InvalidateForum(ctx context.Context, id domain.ForumId)
	Flush(ctx context.Context)
}

type nopCache struct{}

func (nopCache) Category(context.Context, domain.CategoryId) (domain.Category, bool) {
	return domain.Category{}, false
}

func (nopCache) SetCategory(context.Context, domain.Category) {}

func (nopCache) InvalidateCategory(context.Context, domain.CategoryId) {}

func (nopCache) Forum(context.Context, domain.ForumId) (domain.Forum, bool) {
	return domain.Forum{}, false
}

func (nopCache) SetForum(context.Context, domain.Forum) {}

func (nopCache) InvalidateForum(context.Context, domain.ForumId) {}

func (nopCache) Flush(context.Context) {}

// NopCache disables record caching.
var NopCache RecordCache = nopCache{}

// to mock service in tests
type CategoryService interface {
	Create(ctx context.Context, actor domain.Actor, data domain.CategoryCreationData) (domain.CategoryId, error)
	Get(ctx context.Context, id domain.CategoryId) (domain.CategoryWithForums, error)
	GetByName(ctx context.Context, name domain.CategoryName) (domain.CategoryWithForums, error)
	List(ctx context.Context) ([]domain.CategoryWithForums, error)
	Edit(ctx context.Context, actor domain.Actor, id domain.CategoryId, name domain.CategoryName) error
	Delete(ctx context.Context, actor domain.Actor, id domain.CategoryId) error
}

type CategoryStorage interface {
	CreateCategory(ctx context.Context, data domain.CategoryCreationData) (domain.CategoryId, error)
	GetCategory(ctx context.Context, id domain.CategoryId) (domain.Category, error)
	GetCategoryByName(ctx context.Context, name domain.CategoryName) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListForums(ctx context.Context, categoryId domain.CategoryId) ([]domain.Forum, error)
	UpdateCategory(ctx context.Context, id domain.CategoryId, name domain.CategoryName, edited domain.Signature) error
	DeleteCategory(ctx context.Context, id domain.CategoryId) error
}

type Category struct {
	storage CategoryStorage
	guard   *Guard
	cache   RecordCache
	audit   AuditSink
	cfg     *config.Public
}

func NewCategory(storage CategoryStorage, guard *Guard, cache RecordCache, audit AuditSink, cfg *config.Public) *Category {
	return &Category{storage: storage, guard: guard, cache: cache, audit: audit, cfg: cfg}
}

func (s *Category) Create(ctx context.Context, actor domain.Actor, data domain.CategoryCreationData) (domain.CategoryId, error) {
	if err := writable(s.cfg); err != nil {
		return -1, err
	}
	if !canAdminister(actor) {
		return -1, permissionDenied("add categories")
	}
	name, err := s.guard.Name(data.Name)
	if err != nil {
		return -1, err
	}
	data.Name = name
	data.Added = actor.Sign(s.guard.Now())

	id, err := s.storage.CreateCategory(ctx, data)
	if err != nil {
		return -1, err
	}
	s.audit.Record(ctx, newEvent(domain.ActionAddCategory, actor, categoryTarget(id), name, data.Added.At))
	return id, nil
}

// category reads through the record cache.
func (s *Category) category(ctx context.Context, id domain.CategoryId) (domain.Category, error) {
	if c, ok := s.cache.Category(ctx, id); ok {
		return c, nil
	}
	c, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	s.cache.SetCategory(ctx, c)
	return c, nil
}

func (s *Category) withForums(ctx context.Context, c domain.Category) (domain.CategoryWithForums, error) {
	forums, err := s.storage.ListForums(ctx, c.Id)
	if err != nil {
		return domain.CategoryWithForums{}, err
	}
	return domain.CategoryWithForums{Category: c, Forums: forums}, nil
}

func (s *Category) Get(ctx context.Context, id domain.CategoryId) (domain.CategoryWithForums, error) {
	c, err := s.category(ctx, id)
	if err != nil {
		return domain.CategoryWithForums{}, err
	}
	return s.withForums(ctx, c)
}

func (s *Category) GetByName(ctx context.Context, name domain.CategoryName) (domain.CategoryWithForums, error) {
	c, err := s.storage.GetCategoryByName(ctx, name)
	if err != nil {
		return domain.CategoryWithForums{}, err
	}
	return s.withForums(ctx, c)
}

// List returns the whole board index: every category with its forums.
func (s *Category) List(ctx context.Context) ([]domain.CategoryWithForums, error) {
	categories, err := s.storage.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.CategoryWithForums, 0, len(categories))
	for _, c := range categories {
		cf, err := s.withForums(ctx, c)
		if err != nil {
			return nil, err
		}
		result = append(result, cf)
	}
	return result, nil
}

func (s *Category) Edit(ctx context.Context, actor domain.Actor, id domain.CategoryId, name domain.CategoryName) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("edit categories")
	}
	name, err := s.guard.Name(name)
	if err != nil {
		return err
	}
	edited := actor.Sign(s.guard.Now())
	if err := s.storage.UpdateCategory(ctx, id, name, edited); err != nil {
		return err
	}
	s.cache.InvalidateCategory(ctx, id)
	s.audit.Record(ctx, newEvent(domain.ActionEditCategory, actor, categoryTarget(id), name, edited.At))
	return nil
}

// Delete removes the category together with all of its forums.
func (s *Category) Delete(ctx context.Context, actor domain.Actor, id domain.CategoryId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("delete categories")
	}
	forums, err := s.storage.ListForums(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteCategory(ctx, id); err != nil {
		return err
	}

	s.cache.InvalidateCategory(ctx, id)
	for _, f := range forums {
		s.cache.InvalidateForum(ctx, f.Id)
	}
	logger.Log.Info("category deleted", "component", "service", "category_id", id, "forums", len(forums))
	s.audit.Record(ctx, newEvent(domain.ActionDeleteCategory, actor, categoryTarget(id), "", s.guard.Now()))
	return nil
}

func categoryTarget(id domain.CategoryId) string {
	return "category:" + strconv.FormatInt(id, 10)
}
