// Package api provides the HTTP REST API server for Bohrium Core.
//
// It exposes the entity registry (devices, users, configs, publications,
// subscriptions, and the three message kinds) as uniform collection and
// member routes, negotiable across JSON, XML, YAML, and HTML.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bohrium-dev/bohrium-core/internal/adapter"
	"github.com/bohrium-dev/bohrium-core/internal/entity"
	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/config"
	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/logging"
	"github.com/bohrium-dev/bohrium-core/internal/notify"
	"github.com/bohrium-dev/bohrium-core/internal/store"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.ServerConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Store    store.Store
	Notifier *notify.Notifier // optional; message creation skips push without it
	Recorder adapter.Recorder // optional; mutation audit trail
	Version  string
}

// Server is the HTTP API server for Bohrium Core.
//
// It manages the HTTP listener, routes, middleware, and the per-kind
// entity adapters. The server is created with New() and started with
// Start().
type Server struct {
	cfg      config.ServerConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	store    store.Store
	notifier *notify.Notifier
	version  string
	server   *http.Server
	adapters map[string]*adapter.Adapter
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called. All eight entity
// adapters are wired here: the subscription descriptor gets its
// topic-to-publication resolver, and the message adapters get their
// parent types and post-create notification hooks.
//
// Parameters:
//   - deps: Required dependencies (config, logger, store)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("entity store is required")
	}
	// Notifier is optional — message creation works without push delivery

	s := &Server{
		cfg:      deps.Config,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		store:    deps.Store,
		notifier: deps.Notifier,
		version:  deps.Version,
	}
	s.adapters = buildAdapters(deps)

	return s, nil
}

// buildAdapters constructs the per-kind entity adapters.
//
// Every kind shares the same flags: duplicates rejected, create-if-missing
// and update-if-exists both on, so member PUTs upsert and collection POSTs
// redirect to an update when the natural id already exists.
func buildAdapters(deps Deps) map[string]*adapter.Adapter {
	opts := adapter.Options{
		CreateIfMissing: true,
		UpdateIfExists:  true,
	}

	var common []adapter.Option
	if deps.Recorder != nil {
		common = append(common, adapter.WithRecorder(deps.Recorder))
	}

	withHook := func(parent entity.Descriptor, hook adapter.Hook) []adapter.Option {
		options := append([]adapter.Option{adapter.WithParent(parent)}, common...)
		if deps.Notifier != nil {
			options = append(options, adapter.WithPostCreate(hook))
		}
		return options
	}

	subType := entity.SubscriptionType
	subType.Resolve = resolveSubscriptionTopic(deps.Store)

	adapters := map[string]*adapter.Adapter{
		entity.KindDevice:       adapter.New(entity.DeviceType, deps.Store, opts, deps.Logger, common...),
		entity.KindUser:         adapter.New(entity.UserType, deps.Store, opts, deps.Logger, common...),
		entity.KindConfig:       adapter.New(entity.ConfigType, deps.Store, opts, deps.Logger, common...),
		entity.KindPublication:  adapter.New(entity.PublicationType, deps.Store, opts, deps.Logger, common...),
		entity.KindSubscription: adapter.New(subType, deps.Store, opts, deps.Logger, common...),
	}

	var deviceMsg, pubMsg, userMsg adapter.Hook
	if deps.Notifier != nil {
		deviceMsg = deps.Notifier.DeviceMessage
		pubMsg = deps.Notifier.PublicationMessage
		userMsg = deps.Notifier.UserMessage
	}
	adapters[entity.KindDMessage] = adapter.New(entity.DMessageType, deps.Store, opts, deps.Logger,
		withHook(entity.DeviceType, deviceMsg)...)
	adapters[entity.KindPMessage] = adapter.New(entity.PMessageType, deps.Store, opts, deps.Logger,
		withHook(entity.PublicationType, pubMsg)...)
	adapters[entity.KindUMessage] = adapter.New(entity.UMessageType, deps.Store, opts, deps.Logger,
		withHook(entity.UserType, userMsg)...)

	return adapters
}

// resolveSubscriptionTopic returns a resolver that maps a subscription's
// topic field to the key of the publication carrying that topic,
// injecting it as pub_id before Load runs.
//
// The resolver is idempotent: when pub_id is already present (an upsert
// redirect re-resolves the same kv) the lookup is skipped. When no
// publication matches, the kv is returned unchanged and Load rejects the
// missing reference.
func resolveSubscriptionTopic(st store.Store) entity.Resolver {
	return func(ctx context.Context, kv entity.KV) (entity.KV, error) {
		if kv.Get("pub_id", "") != "" {
			return kv, nil
		}
		topic := kv.Get("topic", "")
		if topic == "" {
			return kv, nil
		}
		keys, err := st.KeysByField(ctx, entity.KindPublication, "topic", topic)
		if err != nil {
			return nil, fmt.Errorf("resolving topic %q: %w", topic, err)
		}
		if len(keys) == 0 {
			return kv, nil
		}
		kv["pub_id"] = keys[0]
		return kv, nil
	}
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
