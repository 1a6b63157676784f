// Package config carga la configuración del servidor LTI: YAML como base,
// overrides por variables de entorno y validación de duraciones al cargar.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// KeyChainConfig describe una KeyChain declarada en el YAML.
// El contenido de las claves puede ser PEM plano, base64 o "file://ruta".
type KeyChainConfig struct {
	ID         string `yaml:"id"`
	KeySetName string `yaml:"key_set_name"`
	Algorithm  string `yaml:"algorithm"`
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
	Source     string `yaml:"source"` // "" (autodetect) | pem | base64 | file
	Passphrase string `yaml:"passphrase"`
}

// RegistrationConfig describe una registration estática (storage.driver=memory).
// Las chains se referencian por id contra la sección keys.
type RegistrationConfig struct {
	ID       string `yaml:"id"`
	ClientID string `yaml:"client_id"`

	Platform struct {
		Name           string `yaml:"name"`
		Audience       string `yaml:"audience"`
		OIDCAuthURL    string `yaml:"oidc_auth_url"`
		AccessTokenURL string `yaml:"access_token_url"`
	} `yaml:"platform"`

	Tool struct {
		Name              string `yaml:"name"`
		Audience          string `yaml:"audience"`
		OIDCInitiationURL string `yaml:"oidc_initiation_url"`
		LaunchURL         string `yaml:"launch_url"`
		DeepLinkingURL    string `yaml:"deep_linking_url"`
	} `yaml:"tool"`

	DeploymentIDs      []string `yaml:"deployment_ids"`
	PlatformKeyChainID string   `yaml:"platform_key_chain"`
	ToolKeyChainID     string   `yaml:"tool_key_chain"`
	PlatformJWKSURL    string   `yaml:"platform_jwks_url"`
	ToolJWKSURL        string   `yaml:"tool_jwks_url"`
}

type Config struct {
	App struct {
		// dev | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"` // debug | info | warn | error
	} `yaml:"log"`

	Cache struct {
		Driver string `yaml:"driver"` // memory | redis | noop
		Prefix string `yaml:"prefix"`
		Redis  struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Storage struct {
		Driver string `yaml:"driver"` // memory | postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	JWT struct {
		AccessTTL string `yaml:"access_ttl"` // access tokens OAuth2
		LaunchTTL string `yaml:"launch_ttl"` // id_tokens de launch
	} `yaml:"jwt"`

	JWKS struct {
		CacheTTL string `yaml:"cache_ttl"` // cache de key sets remotos
	} `yaml:"jwks"`

	Flags struct {
		Migrate bool `yaml:"migrate"` // aplicar migraciones al arrancar (postgres)
	} `yaml:"flags"`

	Keys          []KeyChainConfig     `yaml:"keys"`
	Registrations []RegistrationConfig `yaml:"registrations"`
}

// Load lee el YAML, aplica defaults y overrides por env, y valida.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: cannot parse %s: %w", path, err)
	}

	// Defaults sanos
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "hellolti"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "hellolti"
	}
	if c.Cache.Redis.Host == "" {
		c.Cache.Redis.Host = "localhost"
	}
	if c.Cache.Redis.Port == 0 {
		c.Cache.Redis.Port = 6379
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "1h"
	}
	if c.JWT.LaunchTTL == "" {
		c.JWT.LaunchTTL = "10m"
	}
	if c.JWKS.CacheTTL == "" {
		c.JWKS.CacheTTL = "1h"
	}

	// Overrides por env
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CACHE_PREFIX"); ok {
		c.Cache.Prefix = v
	}
	if v, ok := getEnvStr("REDIS_HOST"); ok {
		c.Cache.Redis.Host = v
	}
	if v, ok := getEnvInt("REDIS_PORT"); ok {
		c.Cache.Redis.Port = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// JWT / JWKS
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_LAUNCH_TTL"); ok {
		c.JWT.LaunchTTL = v
	}
	if v, ok := getEnvStr("JWKS_CACHE_TTL"); ok {
		c.JWKS.CacheTTL = v
	}

	// FLAGS
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}
}

// Validate verifica los valores críticos: duraciones parseables, drivers
// conocidos y referencias de chains resolubles dentro del propio YAML.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"jwt.access_ttl": c.JWT.AccessTTL,
		"jwt.launch_ttl": c.JWT.LaunchTTL,
		"jwks.cache_ttl": c.JWKS.CacheTTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s %q is not a valid duration: %w", name, v, err)
		}
	}

	switch c.Cache.Driver {
	case "memory", "redis", "noop":
	default:
		return fmt.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}

	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage driver postgres requires a DSN")
	}

	seen := make(map[string]bool, len(c.Keys))
	for _, k := range c.Keys {
		if k.ID == "" {
			return fmt.Errorf("config: key chain without id")
		}
		if seen[k.ID] {
			return fmt.Errorf("config: duplicate key chain id %q", k.ID)
		}
		seen[k.ID] = true
		switch k.Source {
		case "", "pem", "base64", "file":
		default:
			return fmt.Errorf("config: key chain %q has unknown source %q", k.ID, k.Source)
		}
	}

	// Con storage memory las registrations del YAML son la única fuente;
	// las referencias rotas se detectan acá y no en el primer launch.
	if c.Storage.Driver == "memory" {
		for _, r := range c.Registrations {
			if r.ID == "" {
				return fmt.Errorf("config: registration without id")
			}
			if r.PlatformKeyChainID != "" && !seen[r.PlatformKeyChainID] {
				return fmt.Errorf("config: registration %q references unknown platform chain %q", r.ID, r.PlatformKeyChainID)
			}
			if r.ToolKeyChainID != "" && !seen[r.ToolKeyChainID] {
				return fmt.Errorf("config: registration %q references unknown tool chain %q", r.ID, r.ToolKeyChainID)
			}
		}
	}
	return nil
}

// AccessTokenTTL retorna jwt.access_ttl parseado. Validate garantiza el formato.
func (c *Config) AccessTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTTL)
	return d
}

// LaunchTokenTTL retorna jwt.launch_ttl parseado.
func (c *Config) LaunchTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.LaunchTTL)
	return d
}

// JWKSCacheTTL retorna jwks.cache_ttl parseado.
func (c *Config) JWKSCacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWKS.CacheTTL)
	return d
}
