package registration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellolti/internal/keys"
)

// PGRepository implementa los directorios sobre postgres (pgxpool).
// Las KeyChains referenciadas por id se resuelven contra el repositorio
// de claves inyectado; una referencia rota es un error de configuración.
type PGRepository struct {
	pool   *pgxpool.Pool
	chains keys.Repository
}

// NewPG crea el directorio postgres.
func NewPG(ctx context.Context, dsn string, chains keys.Repository) (*PGRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("registration: invalid postgres DSN: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 5
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("registration: cannot create pool: %w", err)
	}
	return &PGRepository{pool: pool, chains: chains}, nil
}

// RunMigrations aplica en orden lexicográfico los .sql del filesystem dado.
// Los archivos son idempotentes (IF NOT EXISTS); no hay tabla de versiones.
func (r *PGRepository) RunMigrations(ctx context.Context, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("registration: cannot list migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("registration: cannot read migration %s: %w", name, err)
		}
		if _, err := r.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("registration: migration %s failed: %w", name, err)
		}
	}
	return nil
}

// Close cierra el pool subyacente (idempotente).
func (r *PGRepository) Close() {
	if r != nil && r.pool != nil {
		r.pool.Close()
	}
}

const selectRegistration = `
SELECT id, client_id,
       platform_name, platform_audience, platform_oidc_auth_url, platform_token_url,
       tool_name, tool_audience, tool_oidc_init_url, tool_launch_url, tool_deep_linking_url,
       platform_jwks_url, tool_jwks_url,
       platform_key_chain_id, tool_key_chain_id
  FROM lti_registrations`

func (r *PGRepository) scanRegistration(ctx context.Context, row pgx.Row) (*Registration, error) {
	var (
		reg                          Registration
		platform                     Platform
		tool                         Tool
		platformChainID, toolChainID string
	)
	err := row.Scan(
		&reg.ID, &reg.ClientID,
		&platform.Name, &platform.Audience, &platform.OIDCAuthenticationURL, &platform.OAuth2AccessTokenURL,
		&tool.Name, &tool.Audience, &tool.OIDCInitiationURL, &tool.LaunchURL, &tool.DeepLinkingURL,
		&reg.PlatformJWKSURL, &reg.ToolJWKSURL,
		&platformChainID, &toolChainID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registration: scan failed: %w", err)
	}
	reg.Platform = &platform
	reg.Tool = &tool

	if platformChainID != "" {
		chain, err := r.chains.Find(platformChainID)
		if err != nil {
			return nil, fmt.Errorf("registration %q references unknown platform chain %q: %w", reg.ID, platformChainID, err)
		}
		reg.PlatformKeyChain = chain
	}
	if toolChainID != "" {
		chain, err := r.chains.Find(toolChainID)
		if err != nil {
			return nil, fmt.Errorf("registration %q references unknown tool chain %q: %w", reg.ID, toolChainID, err)
		}
		reg.ToolKeyChain = chain
	}

	rows, err := r.pool.Query(ctx, `SELECT id FROM lti_deployments WHERE registration_id = $1 ORDER BY created_at`, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("registration: deployments query failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("registration: deployments scan failed: %w", err)
		}
		reg.DeploymentIDs = append(reg.DeploymentIDs, dep)
	}
	return &reg, rows.Err()
}

func (r *PGRepository) Find(ctx context.Context, id string) (*Registration, error) {
	return r.scanRegistration(ctx, r.pool.QueryRow(ctx, selectRegistration+` WHERE id = $1`, id))
}

func (r *PGRepository) FindByClientID(ctx context.Context, clientID string) (*Registration, error) {
	return r.scanRegistration(ctx, r.pool.QueryRow(ctx, selectRegistration+` WHERE client_id = $1`, clientID))
}

func (r *PGRepository) FindByPlatformIssuer(ctx context.Context, issuer, clientID string) (*Registration, error) {
	if clientID == "" {
		return r.scanRegistration(ctx, r.pool.QueryRow(ctx,
			selectRegistration+` WHERE platform_audience = $1 LIMIT 1`, issuer))
	}
	return r.scanRegistration(ctx, r.pool.QueryRow(ctx,
		selectRegistration+` WHERE platform_audience = $1 AND client_id = $2`, issuer, clientID))
}

// Deployments retorna la vista DeploymentRepository del directorio.
func (r *PGRepository) Deployments() DeploymentRepository {
	return &pgDeployments{parent: r}
}

type pgDeployments struct {
	parent *PGRepository
}

func (d *pgDeployments) Find(ctx context.Context, deploymentID string) (*Deployment, error) {
	var dep Deployment
	err := d.parent.pool.QueryRow(ctx,
		`SELECT id, registration_id, context_id FROM lti_deployments WHERE id = $1`, deploymentID).
		Scan(&dep.ID, &dep.RegistrationID, &dep.ContextID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registration: deployment scan failed: %w", err)
	}
	return &dep, nil
}

func (d *pgDeployments) FindByIssuer(ctx context.Context, issuer, clientID string) (*Deployment, error) {
	reg, err := d.parent.FindByPlatformIssuer(ctx, issuer, clientID)
	if err != nil {
		return nil, err
	}
	id := reg.DefaultDeploymentID()
	if id == "" {
		return nil, ErrNotFound
	}
	return &Deployment{ID: id, RegistrationID: reg.ID}, nil
}
