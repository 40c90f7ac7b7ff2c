package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
	"github.com/guarzo/recruitapi/modules/gateway"
)

// Paths locates one REST resource. List defaults to Base + "/all".
type Paths struct {
	Base string
	List string
}

func (p Paths) list() string {
	if p.List != "" {
		return p.List
	}
	return strings.TrimRight(p.Base, "/") + "/all"
}

func (p Paths) item(uid string) string {
	return strings.TrimRight(p.Base, "/") + "/" + url.PathEscape(uid)
}

// SessionVersioner is implemented by requesters that can tell when the
// credential changed. Cached pages from an earlier session are never served.
type SessionVersioner interface {
	SessionGeneration() uint64
}

// Client performs the four CRUD operations of one resource through the gateway.
type Client[T any] struct {
	api      gateway.Requester
	name     string
	paths    Paths
	cache    common.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
	session  func() uint64

	// generation is part of every list cache key; bumping it drops all cached pages.
	generation atomic.Uint64
}

type Option func(*options)

type options struct {
	cache    common.CacheRepository
	noCache  bool
	cacheTTL time.Duration
	logger   *slog.Logger
}

// WithCache shares a cache across resource clients.
func WithCache(c common.CacheRepository) Option {
	return func(o *options) { o.cache = c }
}

// WithoutCache makes every List call hit the server.
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

func WithCacheTTL(d time.Duration) Option {
	return func(o *options) { o.cacheTTL = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient builds a client for the resource called name at paths.
func NewClient[T any](api gateway.Requester, name string, paths Paths, opts ...Option) *Client[T] {
	o := options{cacheTTL: common.DefaultExpiration, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil && !o.noCache {
		o.cache = common.NewCacheStore()
	}
	if o.noCache {
		o.cache = nil
	}
	c := &Client[T]{
		api:      api,
		name:     name,
		paths:    paths,
		cache:    o.cache,
		cacheTTL: o.cacheTTL,
		logger:   o.logger,
		session:  func() uint64 { return 0 },
	}
	if sv, ok := api.(SessionVersioner); ok {
		c.session = sv.SessionGeneration
	}
	return c
}

// Name returns the resource name used in cache keys and errors.
func (c *Client[T]) Name() string {
	return c.name
}

// List fetches one page. Pages are served from cache until the next mutation.
func (c *Client[T]) List(ctx context.Context, req model.PageRequest) (*model.Page[T], error) {
	key, err := c.cacheKey(req)
	if err == nil && c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			var page model.Page[T]
			if err := json.Unmarshal(cached, &page); err == nil {
				return &page, nil
			}
		}
	}

	var env model.Envelope[model.ListModel[T]]
	if err := c.api.Post(ctx, c.paths.list(), req, &env); err != nil {
		return nil, err
	}
	if err := checkEnvelope(env.IsSuccess, env.Status, env.Message, "failed to fetch "+c.name); err != nil {
		return nil, err
	}
	page := env.Model.Page
	if page.Records == nil {
		page.Records = []T{}
	}

	if c.cache != nil && key != "" {
		if b, err := json.Marshal(page); err == nil {
			c.cache.Set(key, b, c.cacheTTL)
		}
	}
	return &page, nil
}

// Create posts payload and returns the created entity.
func (c *Client[T]) Create(ctx context.Context, payload interface{}) (*T, error) {
	var env model.Envelope[model.EntityModel[T]]
	if err := c.api.Post(ctx, c.paths.Base, payload, &env); err != nil {
		return nil, err
	}
	if err := checkEnvelope(env.IsSuccess, env.Status, env.Message, "failed to create "+c.name); err != nil {
		return nil, err
	}
	c.invalidate()
	return &env.Model.Entity, nil
}

// Update replaces the entity identified by uid.
func (c *Client[T]) Update(ctx context.Context, uid string, payload interface{}) (*T, error) {
	if uid == "" {
		return nil, common.NewValidationError(map[string]string{"Uid": "required"})
	}
	var env model.Envelope[model.EntityModel[T]]
	if err := c.api.Put(ctx, c.paths.item(uid), payload, &env); err != nil {
		return nil, err
	}
	if err := checkEnvelope(env.IsSuccess, env.Status, env.Message, "failed to update "+c.name); err != nil {
		return nil, err
	}
	c.invalidate()
	return &env.Model.Entity, nil
}

// Delete removes the entity identified by uid.
func (c *Client[T]) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return common.NewValidationError(map[string]string{"Uid": "required"})
	}
	var env model.Envelope[json.RawMessage]
	if err := c.api.Delete(ctx, c.paths.item(uid), &env); err != nil {
		return err
	}
	if err := checkEnvelope(env.IsSuccess, env.Status, env.Message, "failed to delete "+c.name); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// InvalidateCache drops every cached page of this resource.
func (c *Client[T]) InvalidateCache() {
	c.invalidate()
}

func (c *Client[T]) invalidate() {
	gen := c.generation.Add(1)
	c.logger.Debug("list cache invalidated", "resource", c.name, "generation", gen)
}

// cacheKey composes e.g. "recruit:department:s2:g3:<page request json>"; s is
// the session generation and g the resource's mutation generation.
func (c *Client[T]) cacheKey(req model.PageRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("recruit:%s:s%d:g%d:%s", c.name, c.session(), c.generation.Load(), b), nil
}

// checkEnvelope rejects an envelope that reports failure. A missing Status
// decodes as 0 and is accepted.
func checkEnvelope(ok bool, status int, message, fallback string) error {
	if ok && (status == 0 || (status >= 200 && status < 300)) {
		return nil
	}
	if message == "" {
		message = fallback
	}
	if status == 0 || (status >= 200 && status < 300) {
		status = http.StatusUnprocessableEntity
	}
	return &common.APIError{
		Message: message,
		Code:    common.CodeRejected,
		Status:  status,
	}
}
