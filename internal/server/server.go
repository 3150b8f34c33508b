// Package server distributes resolved option sets over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/engine/ffargs"
	"github.com/goliatone/go-ffoptions/pkg/logging"
	"github.com/goliatone/go-ffoptions/pkg/state"
)

const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDefaults replaces ffopts.DefaultOptions() as the weakest layer of
// every resolved set.
func WithDefaults(defaults *ffopts.Store) Option {
	return func(s *Server) {
		s.defaults = defaults
	}
}

// Server exposes a state.Resolver over HTTP:
//
//	GET  /healthz
//	GET  /v1/presets/:domain?scope=tenant:acme&scope=device:tv
//	GET  /v1/presets/:domain/trace?path=codec.skip_frame&scope=...
//	PUT  /v1/presets/:domain/:scope      (If-Match: <etag>)
type Server struct {
	resolver state.Resolver
	defaults *ffopts.Store
	logger   zerolog.Logger
	router   *gin.Engine
}

// New builds the router.
func New(resolver state.Resolver, opts ...Option) *Server {
	s := &Server{resolver: resolver, logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	presets := r.Group("/v1/presets")
	{
		presets.GET("/:domain", s.getPreset)
		presets.GET("/:domain/trace", s.tracePreset)
		presets.PUT("/:domain/:scope", s.putPreset)
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("ffopts server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// PresetResponse is the body of GET /v1/presets/:domain.
type PresetResponse struct {
	Domain  string                    `json:"domain"`
	Scopes  []string                  `json:"scopes"`
	Options *ffopts.Store             `json:"options"`
	Map     map[string]map[string]any `json:"map"`
	Args    []string                  `json:"args"`
}

// SaveResponse is the body of PUT /v1/presets/:domain/:scope.
type SaveResponse struct {
	Domain     string        `json:"domain"`
	Scope      string        `json:"scope"`
	SnapshotID string        `json:"snapshot_id"`
	ETag       string        `json:"etag"`
	Options    *ffopts.Store `json:"options"`
}

func (s *Server) resolve(c *gin.Context) (*ffopts.Store, []ffopts.Scope, bool) {
	var scopes []ffopts.Scope
	for _, raw := range c.QueryArray("scope") {
		scope, err := state.ParseScopeRef(raw)
		if err != nil {
			badRequest(c, err.Error())
			return nil, nil, false
		}
		scopes = append(scopes, scope)
	}

	defaults := s.defaults
	if defaults != nil {
		defaults = defaults.Clone()
	}
	store, err := s.resolver.ResolveWithDefaults(c.Request.Context(), c.Param("domain"), defaults, scopes...)
	if err != nil {
		if errors.Is(err, ffopts.ErrDuplicateScopeName) || errors.Is(err, ffopts.ErrPriorityOrder) {
			badRequest(c, err.Error())
			return nil, nil, false
		}
		l := logging.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("resolve preset")
		internalError(c, "failed to resolve preset")
		return nil, nil, false
	}
	return store, scopes, true
}

func (s *Server) getPreset(c *gin.Context) {
	store, _, ok := s.resolve(c)
	if !ok {
		return
	}

	args, err := ffargs.Render(store, ffargs.WithPlayerPrefix(""))
	if err != nil {
		l := logging.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("render args")
		internalError(c, "failed to render arguments")
		return
	}

	var names []string
	for _, scope := range store.LayerScopes() {
		names = append(names, scope.Name)
	}
	success(c, http.StatusOK, PresetResponse{
		Domain:  c.Param("domain"),
		Scopes:  names,
		Options: store,
		Map:     store.Map(),
		Args:    args,
	})
}

func (s *Server) tracePreset(c *gin.Context) {
	category, key, err := ffopts.ParsePath(c.Query("path"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	store, _, ok := s.resolve(c)
	if !ok {
		return
	}

	_, trace, err := store.ResolveWithTrace(category, key)
	if err != nil {
		if errors.Is(err, ffopts.ErrOptionNotFound) {
			notFound(c, err.Error())
			return
		}
		internalError(c, err.Error())
		return
	}
	success(c, http.StatusOK, trace)
}

func (s *Server) putPreset(c *gin.Context) {
	ctx := c.Request.Context()
	l := logging.Ctx(ctx)

	scope, err := state.ParseScopeRef(c.Param("scope"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	preset, err := ffopts.ParsePreset(body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	// Snapshots hold options only.
	if len(preset.Rules) > 0 {
		badRequest(c, "rules cannot be stored in a scope snapshot")
		return
	}

	ref := state.Ref{Domain: c.Param("domain"), Scope: scope}
	meta := state.Meta{ETag: c.GetHeader("If-Match")}
	if preset.Name != "" {
		meta.Extra = map[string]string{"preset": preset.Name}
	}

	merged, saved, err := s.resolver.Mutate(ctx, ref, meta, func(snapshot *ffopts.Store) error {
		snapshot.Merge(preset.Options)
		return nil
	})
	if err != nil {
		if errors.Is(err, state.ErrETagMismatch) {
			fail(c, http.StatusPreconditionFailed, "ETAG_MISMATCH", err.Error())
			return
		}
		l.Error().Err(err).Msg("save preset")
		internalError(c, "failed to save preset")
		return
	}

	c.Header("ETag", saved.ETag)
	success(c, http.StatusOK, SaveResponse{
		Domain:     ref.Domain,
		Scope:      scope.Name,
		SnapshotID: saved.SnapshotID,
		ETag:       saved.ETag,
		Options:    merged,
	})
}
