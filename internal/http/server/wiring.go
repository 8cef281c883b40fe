// Package server arma el handler HTTP con todas sus dependencias a partir de
// la configuración, y corre el http.Server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/minioidc/internal/cache"
	"github.com/dropDatabas3/minioidc/internal/config"
	"github.com/dropDatabas3/minioidc/internal/domain/repository"
	healthctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/oauth"
	oidcctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/oidc"
	socialctrl "github.com/dropDatabas3/minioidc/internal/http/controllers/social"
	"github.com/dropDatabas3/minioidc/internal/http/router"
	healthsvc "github.com/dropDatabas3/minioidc/internal/http/services/health"
	oauthsvc "github.com/dropDatabas3/minioidc/internal/http/services/oauth"
	oidcsvc "github.com/dropDatabas3/minioidc/internal/http/services/oidc"
	socialsvc "github.com/dropDatabas3/minioidc/internal/http/services/social"
	jwtx "github.com/dropDatabas3/minioidc/internal/jwt"
	"github.com/dropDatabas3/minioidc/internal/metrics"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
	"github.com/dropDatabas3/minioidc/internal/providers"
	"github.com/dropDatabas3/minioidc/internal/providers/generic"
	"github.com/dropDatabas3/minioidc/internal/providers/github"
	"github.com/dropDatabas3/minioidc/internal/providers/oidc"
	"github.com/dropDatabas3/minioidc/internal/rate"
	"github.com/dropDatabas3/minioidc/internal/store/bolt"
	"github.com/dropDatabas3/minioidc/internal/store/memory"
	"github.com/dropDatabas3/minioidc/internal/store/pg"
)

// Options permite a tests y al CLI inyectar piezas ya construidas.
type Options struct {
	// Keys pisa la carga desde cfg.Keys.File.
	Keys *jwtx.KeySet

	// Cache pisa la construcción desde cfg.Cache (tests con miniredis).
	Cache cache.Client

	// Registry donde se registran las métricas; nil => default de prometheus.
	Registry *prometheus.Registry
}

// App es el servidor armado.
type App struct {
	Handler http.Handler
	Issuer  *jwtx.Issuer

	closers []func() error
}

// Close libera stores y conexiones en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build construye el handler completo. Un error generando la clave de firma
// es fatal.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.From(ctx).With(logger.Component("server.wiring"))
	app := &App{}

	// 1. Keys & Issuer
	ks := opts.Keys
	if ks == nil {
		var created bool
		var err error
		ks, created, err = jwtx.LoadOrCreateKeySet(cfg.Keys.File)
		if err != nil {
			return nil, fmt.Errorf("signing key: %w", err)
		}
		switch {
		case cfg.Keys.File == "":
			log.Info("using ephemeral signing key", logger.KID(ks.KID))
		case created:
			log.Info("signing key generated", logger.KID(ks.KID), logger.String("file", cfg.Keys.File))
		default:
			log.Info("signing key loaded", logger.KID(ks.KID), logger.String("file", cfg.Keys.File))
		}
	}
	issuer := jwtx.NewIssuer(cfg.Server.Issuer, ks)
	app.Issuer = issuer

	// 2. Cache (CodeStore + TokenStore) y rate limiter
	store := opts.Cache
	var limiter rate.Limiter
	if store == nil {
		store = cache.New(cache.Config{
			Driver:       cfg.Cache.Kind,
			Addr:         cfg.Cache.Redis.Addr,
			Password:     cfg.Cache.Redis.Password,
			DB:           cfg.Cache.Redis.DB,
			Prefix:       cfg.Cache.Redis.Prefix,
			DialTimeout:  cfg.Cache.Redis.DialTimeout,
			TombstoneTTL: cfg.Tokens.RefreshTTL,
		})
		log.Info("token store ready", logger.Backend(cfg.Cache.Kind))
	}
	app.closers = append(app.closers, store.Close)
	if cfg.Rate.Enabled {
		// el limiter comparte la conexión redis del store cuando la hay
		if fo, ok := store.(*cache.Failover); ok {
			if rdb, ok := fo.Redis(); ok {
				limiter = rate.NewRedisLimiter(rdb, "", cfg.Rate.MaxRequests, cfg.Rate.Window)
			}
		}
		if limiter == nil {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	// 3. Clientes y usuarios
	clients := make([]repository.Client, 0, len(cfg.Clients))
	for _, c := range cfg.Clients {
		clients = append(clients, repository.Client{ID: c.ID, Secret: c.Secret, RedirectURIs: c.RedirectURIs})
	}
	clientRepo := memory.NewClientRepo(clients...)

	users := make(map[string]string, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u.Username] = u.Password
	}
	userRepo := memory.NewUserRepo(users)

	// 4. Federación
	bindings, err := openBindings(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, bindings.Close)

	registry := NewProviderRegistry(cfg)

	// 5. Services. El CodeIssuer se comparte entre /authorize y el callback de
	// federación: los dos emiten codes al mismo store.
	codeStore := oauthsvc.NewCodeStore(store)
	codes := oauthsvc.NewCodeIssuer(codeStore, cfg.Tokens.CodeTTL)

	social := socialsvc.NewServices(socialsvc.Deps{
		Issuer:    issuer,
		Providers: registry,
		Clients:   clientRepo,
		Users:     userRepo,
		Bindings:  bindings,
		Codes:     codes,
	})

	var federation oauthsvc.FederationStarter
	if len(cfg.Providers) > 0 {
		federation = social.Federation
	}
	oauth := oauthsvc.NewServices(oauthsvc.Deps{
		Cache:        store,
		Issuer:       issuer,
		Clients:      clientRepo,
		Users:        userRepo,
		Federation:   federation,
		CodeStore:    codeStore,
		Codes:        codes,
		CodeTTL:      cfg.Tokens.CodeTTL,
		AccessTTL:    cfg.Tokens.AccessTTL,
		RefreshTTL:   cfg.Tokens.RefreshTTL,
		DefaultScope: cfg.Authorize.DefaultScope,
	})
	oidcServices := oidcsvc.NewServices(oidcsvc.Deps{
		Issuer:      issuer,
		Tokens:      oauth.TokenStore,
		EmailDomain: cfg.Userinfo.EmailDomain,
	})
	health := healthsvc.NewHealthService(healthsvc.Deps{
		Cache:       store,
		CacheKind:   cfg.Cache.Kind,
		ActiveKeyID: issuer.ActiveKID(),
	})

	// 6. Métricas
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		var reg prometheus.Registerer
		var gatherer prometheus.Gatherer
		if opts.Registry != nil {
			reg, gatherer = opts.Registry, opts.Registry
		}
		if err := metrics.Register(reg); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metricsHandler = metrics.Handler(gatherer)
	}

	// 7. Router
	proxies, err := config.ParsePrefixes(cfg.Rate.TrustedProxies)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("rate.trusted_proxies: %w", err)
	}
	app.Handler = router.New(router.Deps{
		OAuth:          oauthctrl.NewControllers(oauth),
		OIDC:           oidcctrl.NewControllers(oidcServices),
		Social:         socialctrl.NewControllers(social),
		Health:         healthctrl.NewHealthController(health),
		RateLimiter:    limiter,
		TrustedProxies: proxies,
		Metrics:        metricsHandler,
	})

	log.Info("server wired",
		logger.String("issuer", cfg.Server.Issuer),
		logger.Count(len(cfg.Clients)),
		logger.Int("providers", len(cfg.Providers)),
		logger.String("bindings_driver", cfg.Bindings.Driver),
	)
	return app, nil
}

// NewProviderRegistry registra las factories conocidas y declara los
// providers configurados. Las instancias se crean en el primer uso.
func NewProviderRegistry(cfg *config.Config) *providers.Registry {
	reg := providers.NewRegistry()
	reg.RegisterFactory(oidc.TypeName, oidc.Factory)
	reg.RegisterFactory(generic.TypeName, generic.Factory)
	reg.RegisterFactory(github.ProviderName, github.Factory)

	for name, p := range cfg.Providers {
		reg.Configure(providers.ProviderConfig{
			Name:         name,
			Type:         p.Type,
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURI:  p.RedirectURL,
			Scopes:       p.Scopes,
			Extra: map[string]string{
				"issuer_url":    p.IssuerURL,
				"auth_url":      p.AuthURL,
				"token_url":     p.TokenURL,
				"userinfo_url":  p.UserinfoURL,
				"subject_field": p.SubjectField,
				"name_field":    p.NameField,
				"email_field":   p.EmailField,
			},
		})
	}
	return reg
}

func openBindings(ctx context.Context, cfg *config.Config) (repository.BindingRepository, error) {
	switch cfg.Bindings.Driver {
	case "bolt":
		r, err := bolt.Open(cfg.Bindings.Path)
		if err != nil {
			return nil, fmt.Errorf("bindings (bolt): %w", err)
		}
		return r, nil
	case "postgres":
		r, err := pg.Open(ctx, cfg.Bindings.DSN)
		if err != nil {
			return nil, fmt.Errorf("bindings (postgres): %w", err)
		}
		return r, nil
	default:
		return memory.NewBindingRepo(), nil
	}
}

// Run sirve app.Handler en cfg.Server.Addr hasta que ctx se cancela, y luego
// hace shutdown ordenado.
func Run(ctx context.Context, cfg *config.Config, app *App) error {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("listening", logger.String("addr", cfg.Server.Addr), logger.String("issuer", cfg.Server.Issuer))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
