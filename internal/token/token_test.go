package token_test

import (
	"testing"
	"time"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/keys/keystest"
	"github.com/dropDatabas3/hellolti/internal/token"
)

func mustChain(t *testing.T, id string) *keys.KeyChain {
	t.Helper()
	chain, err := keystest.GenerateChain(id, "testSet")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}
	return chain
}

func TestBuild_RoundTrip(t *testing.T) {
	chain := mustChain(t, "kid1")
	b := token.NewBuilder()

	tk, err := b.Build(nil, map[string]any{
		"iss": "https://platform.example",
		"foo": "bar",
		"nested": map[string]any{
			"a": "b",
		},
	}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !token.VerifyWithChain(tk, chain) {
		t.Fatalf("token must verify against its own chain")
	}
	if tk.KID() != "kid1" {
		t.Fatalf("kid header: got %q", tk.KID())
	}

	parsed, err := token.Parse(tk.Serialized())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.GetString("foo") != "bar" {
		t.Fatalf("claim foo lost: %v", parsed.Get("foo", nil))
	}
	if parsed.GetString("iss") != "https://platform.example" {
		t.Fatalf("claim iss lost")
	}
	if parsed.GetMap("nested") == nil {
		t.Fatalf("nested map lost")
	}
	// Claims estándar inyectados.
	for _, name := range []string{"jti", "iat", "nbf", "exp"} {
		if !parsed.Has(name) {
			t.Fatalf("standard claim %q missing", name)
		}
	}
}

func TestBuild_OverwritesStandardClaims(t *testing.T) {
	chain := mustChain(t, "kid1")
	b := token.NewBuilder()

	tk, err := b.Build(nil, map[string]any{
		"jti": "caller-chosen",
		"exp": int64(1),
	}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tk.GetString("jti") == "caller-chosen" {
		t.Fatalf("caller jti must be superseded")
	}
	exp, _ := tk.Get("exp", int64(0)).(int64)
	if exp <= time.Now().Unix() {
		t.Fatalf("caller exp must be superseded, got %d", exp)
	}
}

func TestBuild_ExpiryMonotonicity(t *testing.T) {
	chain := mustChain(t, "kid1")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := token.NewBuilder(
		token.WithTTL(600*time.Second),
		token.WithClock(func() time.Time { return at }),
	)

	tk, err := b.Build(nil, map[string]any{}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	iat := tk.Get("iat", int64(0)).(int64)
	nbf := tk.Get("nbf", int64(0)).(int64)
	exp := tk.Get("exp", int64(0)).(int64)
	if iat != at.Unix() || nbf != iat {
		t.Fatalf("iat/nbf: got %d/%d want %d", iat, nbf, at.Unix())
	}
	if exp != iat+600 {
		t.Fatalf("exp: got %d want iat+600", exp)
	}
}

func TestVerify_FailsAfterExpiry(t *testing.T) {
	chain := mustChain(t, "kid1")
	// Emitido hace dos horas con TTL de 600s: expirado hace rato.
	past := time.Now().Add(-2 * time.Hour)
	b := token.NewBuilder(token.WithClock(func() time.Time { return past }))

	tk, err := b.Build(nil, map[string]any{}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if token.VerifyWithChain(tk, chain) {
		t.Fatalf("expired token must not verify")
	}
}

func TestVerify_FailsBeforeNotBefore(t *testing.T) {
	chain := mustChain(t, "kid1")
	future := time.Now().Add(2 * time.Hour)
	b := token.NewBuilder(token.WithClock(func() time.Time { return future }))

	tk, err := b.Build(nil, map[string]any{}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if token.VerifyWithChain(tk, chain) {
		t.Fatalf("not-yet-valid token must not verify")
	}
}

func TestVerify_WrongKeyReturnsFalse(t *testing.T) {
	chain := mustChain(t, "kid1")
	other := mustChain(t, "kid2")

	tk, err := token.NewBuilder().Build(nil, map[string]any{"foo": "bar"}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if token.VerifyWithChain(tk, other) {
		t.Fatalf("token signed by kid1 must not verify with kid2")
	}
}

func TestBuild_AudienceNormalization(t *testing.T) {
	chain := mustChain(t, "kid1")
	b := token.NewBuilder()

	scalar, err := b.Build(nil, map[string]any{"aud": "client-1"}, chain)
	if err != nil {
		t.Fatalf("build scalar: %v", err)
	}
	array, err := b.Build(nil, map[string]any{"aud": []string{"client-1"}}, chain)
	if err != nil {
		t.Fatalf("build array: %v", err)
	}

	for name, tk := range map[string]*token.Token{"scalar": scalar, "array": array} {
		parsed, err := token.Parse(tk.Serialized())
		if err != nil {
			t.Fatalf("%s parse: %v", name, err)
		}
		aud := parsed.GetStringSlice("aud")
		if len(aud) != 1 || aud[0] != "client-1" {
			t.Fatalf("%s: aud must read back as one-element array, got %v", name, aud)
		}
	}
}

func TestBuild_NormalizesStructuredClaims(t *testing.T) {
	chain := mustChain(t, "kid1")
	rl := &claims.ResourceLink{ID: "rl-1", Title: "Quiz"}

	tk, err := token.NewBuilder().Build(nil, map[string]any{
		rl.ClaimName(): rl,
	}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	parsed, err := token.Parse(tk.Serialized())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := parsed.GetMap(claims.NameResourceLink)
	if m == nil {
		t.Fatalf("structured claim must serialize as nested map")
	}
	got := claims.ResourceLinkFromMap(m)
	if got.ID != "rl-1" || got.Title != "Quiz" {
		t.Fatalf("denormalize mismatch: %+v", got)
	}
}

func TestBuild_VerifyOnlyChainFails(t *testing.T) {
	chain, err := keystest.GenerateVerifyOnlyChain("kid1", "testSet")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	_, err = token.NewBuilder().Build(nil, map[string]any{}, chain)
	if err == nil {
		t.Fatalf("expected BuildError")
	}
	if _, ok := err.(*token.BuildError); !ok {
		t.Fatalf("want *BuildError, got %T", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := token.Parse("not-a-jwt"); err == nil {
		t.Fatalf("expected ParseError")
	} else if _, ok := err.(*token.ParseError); !ok {
		t.Fatalf("want *ParseError, got %T", err)
	}
}

func TestGetMandatory(t *testing.T) {
	chain := mustChain(t, "kid1")
	tk, err := token.NewBuilder().Build(nil, map[string]any{"foo": "bar"}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := tk.GetMandatory("foo"); err != nil {
		t.Fatalf("mandatory foo: %v", err)
	}
	_, err = tk.GetMandatory("missing")
	mcErr, ok := err.(*token.MissingClaimError)
	if !ok {
		t.Fatalf("want *MissingClaimError, got %T", err)
	}
	if mcErr.Claim != "missing" {
		t.Fatalf("error must name the claim: %v", mcErr)
	}
}

func TestToken_AccessorsReturnCopies(t *testing.T) {
	chain := mustChain(t, "kid1")
	tk, err := token.NewBuilder().Build(nil, map[string]any{"foo": "bar"}, chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cl := tk.AllClaims()
	cl["foo"] = "mutated"
	delete(cl, "jti")
	if tk.GetString("foo") != "bar" {
		t.Fatalf("claim foo changed through AllClaims copy: %q", tk.GetString("foo"))
	}
	if !tk.Has("jti") {
		t.Fatalf("claim jti deleted through AllClaims copy")
	}

	hd := tk.Headers()
	hd["kid"] = "kid-forged"
	if tk.KID() != "kid1" {
		t.Fatalf("kid header changed through Headers copy: %q", tk.KID())
	}
}
