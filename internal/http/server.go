// Package http exposes the results of the latest ingestion run as a JSON
// API, streams transfer progress over a websocket and triggers reloads.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"saoke/internal/cache"
	"saoke/internal/log"
	"saoke/internal/middleware/ratelimit"
	"saoke/internal/middleware/security"
	"saoke/internal/middleware/trace"
	"saoke/internal/services"
	"saoke/internal/table"
)

// ErrNoRun is returned while no run has completed yet.
var ErrNoRun = errors.New("no completed run")

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context) (*services.Result, error)
	Source() string
}

type Options struct {
	PageSize       int
	QueryCacheSize int
	QueryCacheTTL  time.Duration
	// ReloadsPerMinute limits POST /api/reload per client IP
	ReloadsPerMinute int
	Logger           *log.Logger
	// Hub is created when nil. Register it as a progress observer of the
	// runner to stream transfer progress.
	Hub *ProgressHub
}

type Server struct {
	http.Server

	runner   Runner
	index    table.Index
	hub      *ProgressHub
	pageSize int

	queryCache   *cache.LRUCache[table.Page]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	logger       *log.Logger
	started      time.Time

	reloads singleflight.Group

	mu      sync.RWMutex
	latest  *services.Result
	lastErr error

	baseCtx      context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, runner Runner, index table.Index, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.PageSize < 1 {
		opts.PageSize = table.DefaultPageSize
	}
	if opts.QueryCacheSize < 1 {
		opts.QueryCacheSize = 128
	}
	if opts.QueryCacheTTL <= 0 {
		opts.QueryCacheTTL = 5 * time.Minute
	}
	if opts.Hub == nil {
		opts.Hub = NewProgressHub(opts.Logger)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		runner:       runner,
		index:        index,
		hub:          opts.Hub,
		pageSize:     opts.PageSize,
		queryCache:   cache.NewLRUCache[table.Page](opts.QueryCacheSize, opts.QueryCacheTTL),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: opts.ReloadsPerMinute, Window: time.Minute}),
		tracer:       trace.NewMiddleware(opts.Logger),
		logger:       logger,
		started:      time.Now(),
		baseCtx:      baseCtx,
		cancel:       cancel,
	}

	s.cacheManager.Register(s.queryCache)
	s.cacheManager.StartCleanup(opts.QueryCacheTTL)
	go s.hub.Run(baseCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/histogram", s.handleHistogram)
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.Handle("POST /api/reload", s.limiter.Middleware(extractClientIP, s.onRateLimited)(http.HandlerFunc(s.handleReload)))
	mux.HandleFunc("GET /ws/progress", s.hub.ServeWS)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(mux))
	s.Addr = addr
	s.ReadHeaderTimeout = 10 * time.Second

	return s
}

// Reload runs the pipeline and installs the result. Concurrent callers
// share a single run; a caller whose ctx ends stops waiting but the run
// carries on.
func (s *Server) Reload(ctx context.Context) (*services.Result, bool, error) {
	ch := s.reloads.DoChan("reload", func() (any, error) {
		res, err := s.runner.Run(s.baseCtx)
		if err != nil {
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()
			s.hub.RunFinished("", err)
			return nil, err
		}
		s.Install(res)
		s.hub.RunFinished(res.RunID, nil)
		return res, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Shared, r.Err
		}
		return r.Val.(*services.Result), r.Shared, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Install makes res the run served by the API.
func (s *Server) Install(res *services.Result) {
	s.mu.Lock()
	s.latest = res
	s.lastErr = nil
	s.mu.Unlock()
	s.queryCache.Purge()
}

// Latest returns the installed run, or ErrNoRun.
func (s *Server) Latest() (*services.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		if s.lastErr != nil {
			return nil, errors.Join(ErrNoRun, s.lastErr)
		}
		return nil, ErrNoRun
	}
	return s.latest, nil
}

// Hub returns the progress hub.
func (s *Server) Hub() *ProgressHub {
	return s.hub
}

// Shutdown gracefully shuts down the server and background routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cancel()
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
