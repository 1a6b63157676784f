package oauth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/dropDatabas3/hellolti/internal/cache"
	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/jwks"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/keys/keystest"
	"github.com/dropDatabas3/hellolti/internal/oauth"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// recordingCache cuenta las escrituras para verificar que los fallos no
// persisten nada.
type recordingCache struct {
	cache.Client
	sets int
}

func (c *recordingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.sets++
	return c.Client.Set(ctx, key, value, ttl)
}

type grantEnv struct {
	reg   *registration.Registration
	store *recordingCache
	repo  *oauth.AccessTokenRepository
	grant *oauth.AssertionGrant
}

func newGrantEnv(t *testing.T) *grantEnv {
	t.Helper()
	toolChain, err := keystest.GenerateChain("tool-kid", "tool")
	if err != nil {
		t.Fatalf("tool chain: %v", err)
	}
	platformChain, err := keystest.GenerateChain("platform-kid", "platform")
	if err != nil {
		t.Fatalf("platform chain: %v", err)
	}
	reg := &registration.Registration{
		ID:       "reg1",
		ClientID: "client-1",
		Platform: &registration.Platform{
			Audience:             "https://platform.example",
			OAuth2AccessTokenURL: "https://platform.example/oauth2/token",
		},
		Tool:             &registration.Tool{Audience: "https://tool.example"},
		DeploymentIDs:    []string{"dep1"},
		PlatformKeyChain: platformChain,
		ToolKeyChain:     toolChain,
	}
	store := &recordingCache{Client: cache.NewMemory("test")}
	repo := oauth.NewAccessTokenRepository(store)
	return &grantEnv{
		reg:   reg,
		store: store,
		repo:  repo,
		grant: oauth.NewAssertionGrant(registration.NewMemoryRepository(reg), jwks.NewFetcher(cache.NewNoop()), repo),
	}
}

// assertion firma un client assertion como lo haría la tool.
func (e *grantEnv) assertion(t *testing.T, chain *keys.KeyChain, opts ...token.BuilderOption) string {
	t.Helper()
	tk, err := token.NewBuilder(opts...).Build(nil, map[string]any{
		claims.NameIssuer:   e.reg.ClientID,
		claims.NameSubject:  e.reg.ClientID,
		claims.NameAudience: e.reg.Platform.OAuth2AccessTokenURL,
	}, chain)
	if err != nil {
		t.Fatalf("build assertion: %v", err)
	}
	return tk.Serialized()
}

func request(assertion string, scopes string) oauth.AccessTokenRequest {
	return oauth.RequestFromForm(url.Values{
		"grant_type":            {oauth.GrantClientCredentials},
		"client_assertion_type": {oauth.AssertionTypeJWTBearer},
		"client_assertion":      {assertion},
		"scope":                 {scopes},
	})
}

func TestCanRespond(t *testing.T) {
	e := newGrantEnv(t)
	ok := request("x", "")
	if !e.grant.CanRespond(ok) {
		t.Fatal("well-formed request must be accepted")
	}

	bad := ok
	bad.GrantType = "authorization_code"
	if e.grant.CanRespond(bad) {
		t.Fatal("wrong grant type must be rejected")
	}
	bad = ok
	bad.ClientAssertionType = "urn:other"
	if e.grant.CanRespond(bad) {
		t.Fatal("wrong assertion type must be rejected")
	}
	bad = ok
	bad.ClientAssertion = ""
	if e.grant.CanRespond(bad) {
		t.Fatal("missing assertion must be rejected")
	}
}

func TestGrant_IssuesScopedToken(t *testing.T) {
	e := newGrantEnv(t)
	resp, err := e.grant.RespondToAccessTokenRequest(context.Background(),
		request(e.assertion(t, e.reg.ToolKeyChain), claims.ScopeAGSScore))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.TokenType != oauth.TokenTypeBearer {
		t.Fatalf("token type: %q", resp.TokenType)
	}
	if resp.ExpiresIn != int64(oauth.DefaultAccessTokenTTL.Seconds()) {
		t.Fatalf("expires in: %d", resp.ExpiresIn)
	}
	if resp.Scope != claims.ScopeAGSScore {
		t.Fatalf("scope: %q", resp.Scope)
	}

	// El access token está firmado por la platform y queda persistido.
	access, err := token.Parse(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if !token.VerifyWithChain(access, e.reg.PlatformKeyChain) {
		t.Fatal("access token must verify against the platform chain")
	}
	stored, ok := e.repo.Get(context.Background(), access.GetString("jti"))
	if !ok {
		t.Fatal("issued token must be persisted")
	}
	if stored.RegistrationID != "reg1" || len(stored.Scopes) != 1 {
		t.Fatalf("stored token: %+v", stored)
	}
}

func TestGrant_DefaultScopesWhenNoneRequested(t *testing.T) {
	e := newGrantEnv(t)
	resp, err := e.grant.RespondToAccessTokenRequest(context.Background(),
		request(e.assertion(t, e.reg.ToolKeyChain), ""))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Scope == "" {
		t.Fatal("default scopes must be granted")
	}
}

func TestGrant_RejectsWrongKeyAndPersistsNothing(t *testing.T) {
	e := newGrantEnv(t)
	rogue, err := keystest.GenerateChain("tool-kid", "rogue")
	if err != nil {
		t.Fatalf("rogue chain: %v", err)
	}

	_, err = e.grant.RespondToAccessTokenRequest(context.Background(),
		request(e.assertion(t, rogue), claims.ScopeAGSScore))
	var ge *oauth.GrantError
	if !errors.As(err, &ge) || ge.Code != oauth.ErrorInvalidGrant {
		t.Fatalf("want invalid_grant, got %v", err)
	}
	if e.store.sets != 0 {
		t.Fatalf("no token may be persisted on failure, got %d writes", e.store.sets)
	}
}

func TestGrant_RejectsExpiredAssertion(t *testing.T) {
	e := newGrantEnv(t)
	past := func() time.Time { return time.Now().Add(-time.Hour) }

	_, err := e.grant.RespondToAccessTokenRequest(context.Background(),
		request(e.assertion(t, e.reg.ToolKeyChain, token.WithClock(past)), ""))
	var ge *oauth.GrantError
	if !errors.As(err, &ge) || ge.Code != oauth.ErrorInvalidGrant {
		t.Fatalf("want invalid_grant for expired assertion, got %v", err)
	}
}

func TestGrant_RejectsUnknownClient(t *testing.T) {
	e := newGrantEnv(t)
	signed := e.assertion(t, e.reg.ToolKeyChain)
	// La registration deja de responder al client id del assertion.
	e.reg.ClientID = "other-client"

	_, err := e.grant.RespondToAccessTokenRequest(context.Background(), request(signed, ""))
	var ge *oauth.GrantError
	if !errors.As(err, &ge) || ge.Code != oauth.ErrorInvalidRequest {
		t.Fatalf("want invalid_request, got %v", err)
	}
}

func TestGrant_RejectsUnknownScope(t *testing.T) {
	e := newGrantEnv(t)
	_, err := e.grant.RespondToAccessTokenRequest(context.Background(),
		request(e.assertion(t, e.reg.ToolKeyChain), "https://example.com/scope/admin"))
	var ge *oauth.GrantError
	if !errors.As(err, &ge) || ge.Code != oauth.ErrorInvalidScope {
		t.Fatalf("want invalid_scope, got %v", err)
	}
	if e.store.sets != 0 {
		t.Fatal("no token may be persisted on scope failure")
	}
}

func TestGrant_MalformedAssertion(t *testing.T) {
	e := newGrantEnv(t)
	_, err := e.grant.RespondToAccessTokenRequest(context.Background(), request("not-a-jwt", ""))
	var ge *oauth.GrantError
	if !errors.As(err, &ge) || ge.Code != oauth.ErrorInvalidRequest {
		t.Fatalf("want invalid_request, got %v", err)
	}
}

func TestRepository_RevokeRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := oauth.NewAccessTokenRepository(cache.NewMemory("test"))

	tok := &oauth.AccessToken{
		ID:             "jti-1",
		RegistrationID: "reg1",
		ClientID:       "client-1",
		Scopes:         []string{claims.ScopeAGSScore},
		ExpiresAt:      time.Now().Add(time.Hour).Unix(),
	}
	repo.Persist(ctx, tok)

	if _, ok := repo.Get(ctx, "jti-1"); !ok {
		t.Fatal("persisted token must be found")
	}
	if repo.IsRevoked(ctx, "jti-1") {
		t.Fatal("fresh token must not be revoked")
	}
	repo.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))
	if !repo.IsRevoked(ctx, "jti-1") {
		t.Fatal("revoked token must report revoked")
	}
	if _, ok := repo.Get(ctx, "ghost"); ok {
		t.Fatal("unknown token must be a miss")
	}
}
