package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: lti-core\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("cache driver = %q, want memory", cfg.Cache.Driver)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("storage driver = %q, want memory", cfg.Storage.Driver)
	}
	if got := cfg.AccessTokenTTL(); got != time.Hour {
		t.Errorf("access ttl = %v, want 1h", got)
	}
	if got := cfg.LaunchTokenTTL(); got != 10*time.Minute {
		t.Errorf("launch ttl = %v, want 10m", got)
	}
}

func TestLoad_FullYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  addr: ":9090"
cache:
  driver: redis
  redis:
    host: redis.internal
    port: 6380
jwt:
  access_ttl: 30m
  launch_ttl: 5m
keys:
  - id: platform-kid
    key_set_name: platform
    public_key: file://keys/platform.pub.pem
    private_key: file://keys/platform.pem
registrations:
  - id: reg1
    client_id: client-1
    platform:
      audience: https://platform.example
    deployment_ids: [dep1, dep2]
    platform_key_chain: platform-kid
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Redis.Host != "redis.internal" || cfg.Cache.Redis.Port != 6380 {
		t.Errorf("redis = %+v", cfg.Cache.Redis)
	}
	if got := cfg.AccessTokenTTL(); got != 30*time.Minute {
		t.Errorf("access ttl = %v", got)
	}
	if len(cfg.Registrations) != 1 || len(cfg.Registrations[0].DeploymentIDs) != 2 {
		t.Fatalf("registrations = %+v", cfg.Registrations)
	}
	if cfg.Registrations[0].PlatformKeyChainID != "platform-kid" {
		t.Errorf("platform chain = %q", cfg.Registrations[0].PlatformKeyChainID)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("CACHE_DRIVER", "noop")
	t.Setenv("JWT_LAUNCH_TTL", "2m")

	cfg, err := Load(writeConfig(t, "server:\n  addr: \":9090\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("addr = %q, want :7070", cfg.Server.Addr)
	}
	if cfg.Cache.Driver != "noop" {
		t.Errorf("cache driver = %q, want noop", cfg.Cache.Driver)
	}
	if got := cfg.LaunchTokenTTL(); got != 2*time.Minute {
		t.Errorf("launch ttl = %v, want 2m", got)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "jwt:\n  access_ttl: nunca\n"))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_BrokenChainReference(t *testing.T) {
	_, err := Load(writeConfig(t, `
registrations:
  - id: reg1
    platform_key_chain: ghost
`))
	if err == nil {
		t.Fatal("expected error for unknown chain reference")
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for postgres without DSN")
	}
}
