package payload_test

import (
	"errors"
	"testing"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/keys/keystest"
	"github.com/dropDatabas3/hellolti/internal/nonce"
	"github.com/dropDatabas3/hellolti/internal/payload"
	"github.com/dropDatabas3/hellolti/internal/token"
)

func newBuilder() *payload.Builder {
	return payload.NewBuilder(token.NewBuilder(), nonce.NewGenerator())
}

func TestBuilder_ResourceLinkLaunch(t *testing.T) {
	chain, err := keystest.GenerateChain("kid1", "platform")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}

	p, err := newBuilder().
		WithClaim(claims.NameIssuer, "https://platform.example").
		WithClaim(claims.NameAudience, "client-1").
		WithClaim(claims.NameSubject, "user-42").
		WithClaim("name", "Ada Lovelace").
		WithClaim(claims.NameMessageType, claims.MessageTypeResourceLinkRequest).
		WithClaim(claims.NameVersion, claims.VersionLTI1p3).
		WithClaim(claims.NameDeploymentID, "dep1").
		WithClaim(claims.NameTargetLinkURI, "https://tool.example/launch").
		WithClaim(&claims.ResourceLink{ID: "link-1", Title: "Quiz 1"}).
		WithClaim(&claims.Context{ID: "ctx-1", Label: "MATH101"}).
		WithClaims(map[string]any{
			claims.NameRoles:  []string{"http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"},
			claims.NameCustom: map[string]any{"difficulty": "hard"},
		}).
		BuildPayload(chain)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	// El wire round trip no debe perder nada.
	tk, err := token.Parse(p.Serialized())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p = payload.NewPayload(tk)

	iss, err := p.Issuer()
	if err != nil || iss != "https://platform.example" {
		t.Fatalf("issuer: %q %v", iss, err)
	}
	mt, err := p.MessageType()
	if err != nil || mt != claims.MessageTypeResourceLinkRequest {
		t.Fatalf("message type: %q %v", mt, err)
	}
	v, err := p.Version()
	if err != nil || v != claims.VersionLTI1p3 {
		t.Fatalf("version: %q %v", v, err)
	}
	dep, err := p.DeploymentID()
	if err != nil || dep != "dep1" {
		t.Fatalf("deployment: %q %v", dep, err)
	}
	if aud := p.Audiences(); len(aud) != 1 || aud[0] != "client-1" {
		t.Fatalf("audiences: %v", aud)
	}
	if n, err := p.Nonce(); err != nil || n == "" {
		t.Fatalf("nonce must be injected: %q %v", n, err)
	}
	rl := p.ResourceLink()
	if rl == nil || rl.ID != "link-1" || rl.Title != "Quiz 1" {
		t.Fatalf("resource link: %+v", rl)
	}
	if ctx := p.Context(); ctx == nil || ctx.Label != "MATH101" {
		t.Fatalf("context: %+v", ctx)
	}
	if roles := p.Roles(); len(roles) != 1 {
		t.Fatalf("roles: %v", roles)
	}
	if custom := p.Custom(); custom["difficulty"] != "hard" {
		t.Fatalf("custom: %v", custom)
	}
	user := p.User()
	if user == nil || user.ID != "user-42" || user.Name != "Ada Lovelace" {
		t.Fatalf("user identity: %+v", user)
	}
}

func TestBuilder_NonceIsFreshPerBuild(t *testing.T) {
	chain, err := keystest.GenerateChain("kid1", "platform")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}
	b := newBuilder().WithClaim(claims.NameIssuer, "https://platform.example")

	p1, err := b.BuildPayload(chain)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	p2, err := b.BuildPayload(chain)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	n1, _ := p1.Nonce()
	n2, _ := p2.Nonce()
	if n1 == "" || n1 == n2 {
		t.Fatalf("nonces must differ between builds: %q %q", n1, n2)
	}
}

func TestBuilder_Reset(t *testing.T) {
	chain, err := keystest.GenerateChain("kid1", "platform")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}
	b := newBuilder().WithClaim(claims.NameMessageType, claims.MessageTypeResourceLinkRequest)

	p, err := b.Reset().BuildPayload(chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := p.MessageType(); err == nil {
		t.Fatal("reset must drop accumulated claims")
	}
}

func TestPayload_MissingMandatoryClaim(t *testing.T) {
	chain, err := keystest.GenerateChain("kid1", "platform")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}
	p, err := newBuilder().BuildPayload(chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	_, err = p.DeploymentID()
	var missing *token.MissingClaimError
	if !errors.As(err, &missing) {
		t.Fatalf("want MissingClaimError, got %v", err)
	}
	if missing.Claim != claims.NameDeploymentID {
		t.Fatalf("error must name the claim, got %q", missing.Claim)
	}
}

func TestPayload_OptionalClaimsAbsent(t *testing.T) {
	chain, err := keystest.GenerateChain("kid1", "platform")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}
	p, err := newBuilder().BuildPayload(chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if p.ResourceLink() != nil || p.Context() != nil || p.AGS() != nil ||
		p.NRPS() != nil || p.DeepLinkingSettings() != nil || p.ProctoringSettings() != nil {
		t.Fatal("absent structured claims must be nil")
	}
	if p.User() != nil {
		t.Fatal("anonymous launch must have nil user")
	}
	if p.DeepLinkingData() != "" || p.ProctoringSessionData() != "" {
		t.Fatal("absent string claims must be empty")
	}
	if p.ProctoringEndAssessmentReturn() {
		t.Fatal("absent bool claim must be false")
	}
}

func TestPayload_ProctoringAttemptNumberForms(t *testing.T) {
	chain, err := keystest.GenerateChain("kid1", "platform")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}
	for _, raw := range []any{"3", 3, float64(3)} {
		p, err := newBuilder().
			WithClaim(claims.NameProctoringAttemptNumber, raw).
			BuildPayload(chain)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		tk, err := token.Parse(p.Serialized())
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got := payload.NewPayload(tk).ProctoringAttemptNumber(); got != "3" {
			t.Fatalf("attempt number from %T: got %q", raw, got)
		}
	}
}

func TestBuilder_DeepLinkingResponse(t *testing.T) {
	chain, err := keystest.GenerateChain("kid1", "tool")
	if err != nil {
		t.Fatalf("generate chain: %v", err)
	}
	items := []any{
		claims.ContentItem{"type": "ltiResourceLink", "url": "https://tool.example/r/1"},
		claims.ContentItem{"type": "link", "url": "https://example.com"},
	}
	p, err := newBuilder().
		WithClaim(claims.NameMessageType, claims.MessageTypeDeepLinkingResponse).
		WithClaim(claims.NameDeepLinkingContentItems, items).
		WithClaim(claims.NameDeepLinkingData, "opaque-data").
		BuildPayload(chain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	tk, err := token.Parse(p.Serialized())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p = payload.NewPayload(tk)

	got := p.DeepLinkingContentItems()
	if len(got) != 2 || got[0].Type() != "ltiResourceLink" || got[1].Type() != "link" {
		t.Fatalf("content items: %+v", got)
	}
	if p.DeepLinkingData() != "opaque-data" {
		t.Fatalf("data: %q", p.DeepLinkingData())
	}
}
