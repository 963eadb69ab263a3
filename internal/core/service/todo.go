package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
	tel "tasklist/internal/core/telemetry"
	"tasklist/internal/core/validation"
)

const (
	DefaultListLimit = 100

	listCacheName = "todos.list"
)

type listPage struct {
	Skip  int `validate:"gte=0"`
	Limit int `validate:"gte=0,lte=1000"`
}

type TodoService struct {
	repo      port.TodoRepository
	cache     port.CacheRepository
	cacheTTL  time.Duration
	telemetry port.Telemetry
	logger    *otelzap.Logger
	now       func() time.Time
}

type TodoOption func(*TodoService)

// WithListCache caches list pages per owner. Every write by the owner drops
// all of their cached pages.
func WithListCache(cache port.CacheRepository, ttl time.Duration) TodoOption {
	return func(s *TodoService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithTelemetry(telemetry port.Telemetry) TodoOption {
	return func(s *TodoService) {
		s.telemetry = telemetry
	}
}

func WithLogger(logger *otelzap.Logger) TodoOption {
	return func(s *TodoService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) TodoOption {
	return func(s *TodoService) {
		s.now = now
	}
}

func NewTodoService(repo port.TodoRepository, opts ...TodoOption) *TodoService {
	s := &TodoService{
		repo:      repo,
		telemetry: tel.NewNoOpProbe(),
		logger:    otelzap.New(zap.NewNop()),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *TodoService) Create(ctx context.Context, owner domain.User, fields domain.TodoFields) (domain.Todo, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "todo", "Create", owner.ID, nil)
	defer span.End()

	fields = fields.Normalize()

	if err := validation.Validate(fields); err != nil {
		return domain.Todo{}, err
	}

	todo := domain.Todo{
		OwnerID:   owner.ID,
		CreatedAt: s.now().UTC(),
	}
	todo.Apply(fields)

	todo, err := s.repo.Create(ctx, todo)

	if err != nil {
		span.RecordError(err)
		return domain.Todo{}, err
	}

	s.invalidate(ctx, owner.ID)
	s.telemetry.RecordBusinessEvent(ctx, "created", "todo", strconv.FormatInt(todo.ID, 10), owner.ID, nil)

	return todo, nil
}

// List returns one page of the owner's todos in ascending id order.
func (s *TodoService) List(ctx context.Context, owner domain.User, skip, limit int) ([]domain.Todo, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "todo", "List", owner.ID, map[string]interface{}{
		"pagination.skip":  skip,
		"pagination.limit": limit,
	})
	defer span.End()

	if err := validation.Validate(listPage{Skip: skip, Limit: limit}); err != nil {
		return nil, err
	}

	gen, cacheable := s.generation(ctx, owner.ID)
	key := listCacheKey(owner.ID, gen, skip, limit)

	if cacheable {
		if todos, ok := s.cached(ctx, key); ok {
			return todos, nil
		}
	}

	todos, err := s.repo.ListByOwner(ctx, owner.ID, skip, limit)

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if cacheable {
		s.store(ctx, owner.ID, gen, key, todos)
	}

	return todos, nil
}

// Update replaces every mutable field of the owner's todo.
func (s *TodoService) Update(ctx context.Context, owner domain.User, id int64, fields domain.TodoFields) (domain.Todo, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "todo", "Update", owner.ID, map[string]interface{}{"todo.id": id})
	defer span.End()

	fields = fields.Normalize()

	if err := validation.Validate(fields); err != nil {
		return domain.Todo{}, err
	}

	todo := domain.Todo{ID: id, OwnerID: owner.ID}
	todo.Apply(fields)

	todo, err := s.repo.Update(ctx, todo)

	if err != nil {
		return domain.Todo{}, err
	}

	s.invalidate(ctx, owner.ID)
	s.telemetry.RecordBusinessEvent(ctx, "updated", "todo", strconv.FormatInt(id, 10), owner.ID, nil)

	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, owner domain.User, id int64) error {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "todo", "Delete", owner.ID, map[string]interface{}{"todo.id": id})
	defer span.End()

	if err := s.repo.Delete(ctx, owner.ID, id); err != nil {
		return err
	}

	s.invalidate(ctx, owner.ID)
	s.telemetry.RecordBusinessEvent(ctx, "deleted", "todo", strconv.FormatInt(id, 10), owner.ID, nil)

	return nil
}

// DeleteCompleted removes all of the owner's completed todos and reports how
// many were removed.
func (s *TodoService) DeleteCompleted(ctx context.Context, owner domain.User) (int64, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "todo", "DeleteCompleted", owner.ID, nil)
	defer span.End()

	count, err := s.repo.DeleteCompleted(ctx, owner.ID)

	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if count > 0 {
		s.invalidate(ctx, owner.ID)
	}

	s.telemetry.RecordBusinessEvent(ctx, "completed_cleared", "todo", "", owner.ID, map[string]interface{}{"count": count})

	return count, nil
}

// Cached pages are keyed by the owner's list generation. Every write bumps
// the generation first, so a page read before the write lands under a key
// that no later List looks up.
func listCacheKey(ownerID, gen int64, skip, limit int) string {
	return fmt.Sprintf("%s%d:%d:%d", listCachePrefix(ownerID), gen, skip, limit)
}

func listCachePrefix(ownerID int64) string {
	return fmt.Sprintf("todos:%d:", ownerID)
}

func listGenerationKey(ownerID int64) string {
	return fmt.Sprintf("todos-gen:%d", ownerID)
}

func (s *TodoService) generation(ctx context.Context, ownerID int64) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}

	gen, err := s.cache.Incr(ctx, listGenerationKey(ownerID), 0)

	if err != nil {
		s.logger.Ctx(ctx).Warn("Todo list generation read failed", zap.Int64("owner_id", ownerID), zap.Error(err))
		return 0, false
	}

	return gen, true
}

func (s *TodoService) cached(ctx context.Context, key string) ([]domain.Todo, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, found, err := s.cache.Get(ctx, key)

	if err != nil {
		s.logger.Ctx(ctx).Warn("Todo list cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	s.telemetry.RecordCacheLookup(ctx, listCacheName, found)

	if !found {
		return nil, false
	}

	var todos []domain.Todo
	if err := json.Unmarshal(raw, &todos); err != nil {
		s.logger.Ctx(ctx).Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return todos, true
}

func (s *TodoService) store(ctx context.Context, ownerID, gen int64, key string, todos []domain.Todo) {
	// A write finished while the page was being read.
	if current, ok := s.generation(ctx, ownerID); !ok || current != gen {
		return
	}

	raw, err := json.Marshal(todos)

	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Ctx(ctx).Warn("Todo list cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *TodoService) invalidate(ctx context.Context, ownerID int64) {
	if s.cache == nil {
		return
	}

	if _, err := s.cache.Incr(ctx, listGenerationKey(ownerID), 1); err != nil {
		s.logger.Ctx(ctx).Warn("Todo list generation bump failed", zap.Int64("owner_id", ownerID), zap.Error(err))
	}

	if err := s.cache.DeleteByPrefix(ctx, listCachePrefix(ownerID)); err != nil {
		s.logger.Ctx(ctx).Warn("Todo list cache invalidation failed", zap.Int64("owner_id", ownerID), zap.Error(err))
	}
}
