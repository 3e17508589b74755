// Package apiclient wires the full request pipeline for a dashboard
// client: transport with interceptor hooks, the request facade, the
// process-wide session store, the query cache with its refresh signals,
// and the access guard. Screens consume the assembled Core; nothing above
// this package touches the transport directly.
package apiclient

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-api-client/api"
	"github.com/jrsteele09/go-api-client/config"
	"github.com/jrsteele09/go-api-client/guard"
	"github.com/jrsteele09/go-api-client/query"
	"github.com/jrsteele09/go-api-client/session"
	"github.com/jrsteele09/go-api-client/session/repofile"
	"github.com/jrsteele09/go-api-client/session/reposqlite"
	"github.com/jrsteele09/go-api-client/transport"
)

// Core is the assembled API access and session layer.
type Core struct {
	Session *session.Store
	API     *api.Client
	Cache   *query.Cache
	Signals *query.Signals
	Guard   *guard.Guard
}

type coreOptions struct {
	notifier    api.Notifier
	log         zerolog.Logger
	redirect    func()
	sessionRepo session.Repo
	httpClient  *http.Client
}

// CoreOption configures the assembly.
type CoreOption func(*coreOptions)

// WithNotifier routes user-facing notifications.
func WithNotifier(n api.Notifier) CoreOption {
	return func(o *coreOptions) {
		o.notifier = n
	}
}

// WithLogger sets the logger shared by every layer.
func WithLogger(log zerolog.Logger) CoreOption {
	return func(o *coreOptions) {
		o.log = log
	}
}

// WithRedirect sets the route to the unauthenticated entry point, used by
// both the forced-logout path and guard denials.
func WithRedirect(fn func()) CoreOption {
	return func(o *coreOptions) {
		o.redirect = fn
	}
}

// WithSessionRepo overrides the configured session persistence.
func WithSessionRepo(repo session.Repo) CoreOption {
	return func(o *coreOptions) {
		o.sessionRepo = repo
	}
}

// WithHTTPClient overrides the underlying http client (for tests).
func WithHTTPClient(c *http.Client) CoreOption {
	return func(o *coreOptions) {
		o.httpClient = c
	}
}

// New assembles a Core from configuration.
func New(cfg *config.Config, options ...CoreOption) (*Core, error) {
	if cfg == nil {
		return nil, errors.New("[New] config is required")
	}

	opts := coreOptions{
		notifier: api.NopNotifier(),
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(&opts)
	}

	repo := opts.sessionRepo
	if repo == nil {
		var err error
		repo, err = newRepo(cfg.Session)
		if err != nil {
			return nil, err
		}
	}

	store, err := session.NewStore(repo, session.WithLogger(opts.log))
	if err != nil {
		return nil, errors.Wrap(err, "[New] creating session store")
	}

	watcher := transport.NewUnauthorizedWatcher(store.Logout, opts.redirect, opts.log)
	store.Watch(func(s session.Session) {
		if s.Authenticated() {
			watcher.Rearm()
		}
	})

	transportOpts := []transport.Option{
		transport.WithTimeout(cfg.Timeout()),
		transport.WithRequestHook(expiryHook(store, watcher)),
		transport.WithRequestHook(transport.BearerHook(store.Token)),
		transport.WithResponseHook(watcher.Hook()),
		transport.WithTransportLogger(opts.log),
	}
	for key, value := range cfg.API.DefaultHeaders {
		transportOpts = append(transportOpts, transport.WithDefaultHeader(key, value))
	}
	if opts.httpClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(opts.httpClient))
	}

	t, err := transport.New(cfg.API.BaseAddress, transportOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "[New] creating transport")
	}

	client, err := api.NewClient(t, api.WithNotifier(opts.notifier), api.WithLogger(opts.log))
	if err != nil {
		return nil, errors.Wrap(err, "[New] creating facade")
	}

	cache := query.NewCache(
		query.WithStaleAfter(cfg.StaleAfter()),
		query.WithRetention(cfg.Retention()),
		query.WithCacheLogger(opts.log),
	)
	signals := query.NewSignals()
	cache.BindSignals(signals)

	return &Core{
		Session: store,
		API:     client,
		Cache:   cache,
		Signals: signals,
		Guard:   guard.New(store.Current, opts.redirect),
	}, nil
}

// expiryHook catches credentials the client can already see are expired,
// forcing the logout transition without waiting for the server's 401.
func expiryHook(store *session.Store, watcher *transport.UnauthorizedWatcher) transport.RequestHook {
	return func(*http.Request) {
		token, ok := store.Token()
		if !ok {
			return
		}
		if session.Introspect(token).Expired(time.Now()) {
			watcher.Trip()
		}
	}
}

func newRepo(cfg config.SessionConfig) (session.Repo, error) {
	switch cfg.Driver {
	case "sqlite":
		repo, err := reposqlite.New(cfg.StorePath)
		return repo, errors.Wrap(err, "[newRepo] opening sqlite session repo")
	case "file", "":
		repo, err := repofile.New(cfg.StorePath)
		return repo, errors.Wrap(err, "[newRepo] opening file session repo")
	default:
		return nil, errors.Errorf("[newRepo] unknown session driver %q", cfg.Driver)
	}
}
