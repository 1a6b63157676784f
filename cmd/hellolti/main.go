package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/hellolti/internal/cache"
	"github.com/dropDatabas3/hellolti/internal/config"
	httpx "github.com/dropDatabas3/hellolti/internal/http"
	"github.com/dropDatabas3/hellolti/internal/jwks"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/launch"
	"github.com/dropDatabas3/hellolti/internal/nonce"
	"github.com/dropDatabas3/hellolti/internal/oauth"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
	"github.com/dropDatabas3/hellolti/internal/oidc"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
	migrations "github.com/dropDatabas3/hellolti/migrations/postgres"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		if fileExists("configs/config.yaml") {
			cfgPath = "configs/config.yaml"
		} else {
			cfgPath = "configs/config.example.yaml"
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache compartido: nonces, JWKS remotos y access tokens.
	c, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Host:     cfg.Cache.Redis.Host,
		Port:     cfg.Cache.Redis.Port,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		lg.Fatal("cache", logger.Err(err))
	}
	defer func() { _ = c.Close() }()

	keyRepo, err := buildKeyRepo(cfg)
	if err != nil {
		lg.Fatal("keys", logger.Err(err))
	}

	var (
		regs registration.Repository
		deps registration.DeploymentRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := registration.NewPG(ctx, cfg.Storage.DSN, keyRepo)
		if err != nil {
			lg.Fatal("registrations", logger.Err(err))
		}
		defer pg.Close()
		if cfg.Flags.Migrate {
			if err := pg.RunMigrations(ctx, migrations.FS); err != nil {
				lg.Fatal("migrations", logger.Err(err))
			}
		}
		regs, deps = pg, pg.Deployments()
	default:
		static, err := buildRegistrations(cfg, keyRepo)
		if err != nil {
			lg.Fatal("registrations", logger.Err(err))
		}
		mem := registration.NewMemoryRepository(static...)
		regs, deps = mem, mem.Deployments()
	}

	fetcher := jwks.NewFetcher(c,
		jwks.WithCacheTTL(cfg.JWKSCacheTTL()),
		jwks.WithFetchObserver(httpx.RecordJWKSFetch))
	store := nonce.NewStore(c)
	launchTokens := token.NewBuilder(token.WithTTL(cfg.LaunchTokenTTL()))
	nonces := nonce.NewGenerator()
	accessTokens := oauth.NewAccessTokenRepository(c)
	grant := oauth.NewAssertionGrant(regs, fetcher, accessTokens,
		oauth.WithAccessTokenTTL(cfg.AccessTokenTTL()))

	metricsHandler, err := httpx.RegisterMetrics(nil)
	if err != nil {
		lg.Fatal("metrics", logger.Err(err))
	}

	handlers := httpx.NewHandlers(
		keyRepo,
		regs,
		oidc.NewInitiator(regs, deps, launchTokens, nonces),
		oidc.NewRequestBuilder(regs, token.NewBuilder(), nonces),
		oidc.NewResponder(regs, launchTokens, nonces, oidc.AnonymousAuthenticator{}),
		launch.NewPlatformLaunchValidator(regs, store, fetcher),
		launch.NewToolLaunchValidator(regs, store, fetcher),
		grant,
		accessTokens,
		c,
	)
	router := httpx.NewRouter(handlers, regs, accessTokens, metricsHandler)

	lg.Info("starting",
		logger.String("addr", cfg.Server.Addr),
		logger.String("cache", cfg.Cache.Driver),
		logger.String("storage", cfg.Storage.Driver),
	)
	srv := httpx.NewServer(cfg.Server.Addr, router)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal("server", logger.Err(err))
	}
	lg.Info("stopped")
}

// buildKeyRepo materializa las chains declaradas en el YAML.
func buildKeyRepo(cfg *config.Config) (*keys.MemoryRepository, error) {
	repo := keys.NewMemoryRepository()
	for _, kc := range cfg.Keys {
		chain, err := buildChain(kc)
		if err != nil {
			return nil, err
		}
		repo.Add(chain)
	}
	return repo, nil
}

func buildChain(kc config.KeyChainConfig) (*keys.KeyChain, error) {
	var opts []keys.Option
	switch kc.Source {
	case "pem":
		opts = append(opts, keys.WithSource(keys.SourcePEM))
	case "base64":
		opts = append(opts, keys.WithSource(keys.SourceBase64))
	case "file":
		opts = append(opts, keys.WithSource(keys.SourceFile))
	}
	if kc.Algorithm != "" {
		opts = append(opts, keys.WithAlgorithm(kc.Algorithm))
	}

	public := keys.NewKey(kc.PublicKey, opts...)
	var private *keys.Key
	if kc.PrivateKey != "" {
		privOpts := opts
		if kc.Passphrase != "" {
			privOpts = append(privOpts[:len(privOpts):len(privOpts)], keys.WithPassphrase(kc.Passphrase))
		}
		private = keys.NewKey(kc.PrivateKey, privOpts...)
	}
	return keys.NewKeyChain(kc.ID, kc.KeySetName, public, private)
}

// buildRegistrations convierte las registrations del YAML resolviendo las
// chains referenciadas contra el repositorio de claves.
func buildRegistrations(cfg *config.Config, chains keys.Repository) ([]*registration.Registration, error) {
	out := make([]*registration.Registration, 0, len(cfg.Registrations))
	for _, rc := range cfg.Registrations {
		reg := &registration.Registration{
			ID:       rc.ID,
			ClientID: rc.ClientID,
			Platform: &registration.Platform{
				Name:                  rc.Platform.Name,
				Audience:              rc.Platform.Audience,
				OIDCAuthenticationURL: rc.Platform.OIDCAuthURL,
				OAuth2AccessTokenURL:  rc.Platform.AccessTokenURL,
			},
			Tool: &registration.Tool{
				Name:              rc.Tool.Name,
				Audience:          rc.Tool.Audience,
				OIDCInitiationURL: rc.Tool.OIDCInitiationURL,
				LaunchURL:         rc.Tool.LaunchURL,
				DeepLinkingURL:    rc.Tool.DeepLinkingURL,
			},
			DeploymentIDs:   rc.DeploymentIDs,
			PlatformJWKSURL: rc.PlatformJWKSURL,
			ToolJWKSURL:     rc.ToolJWKSURL,
		}
		if rc.PlatformKeyChainID != "" {
			chain, err := chains.Find(rc.PlatformKeyChainID)
			if err != nil {
				return nil, fmt.Errorf("registration %q: platform chain %q: %w", rc.ID, rc.PlatformKeyChainID, err)
			}
			reg.PlatformKeyChain = chain
		}
		if rc.ToolKeyChainID != "" {
			chain, err := chains.Find(rc.ToolKeyChainID)
			if err != nil {
				return nil, fmt.Errorf("registration %q: tool chain %q: %w", rc.ID, rc.ToolKeyChainID, err)
			}
			reg.ToolKeyChain = chain
		}
		out = append(out, reg)
	}
	return out, nil
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
