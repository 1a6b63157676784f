package launch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropDatabas3/hellolti/internal/cache"
	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/jwks"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/keys/keystest"
	"github.com/dropDatabas3/hellolti/internal/launch"
	"github.com/dropDatabas3/hellolti/internal/nonce"
	"github.com/dropDatabas3/hellolti/internal/payload"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// pipelineLen es el largo del trail de un launch completamente válido.
const pipelineLen = 8

type env struct {
	reg      *registration.Registration
	repo     *registration.MemoryRepository
	platform *launch.PlatformLaunchValidator
	tool     *launch.ToolLaunchValidator
	builder  *payload.Builder
}

func newEnv(t *testing.T) *env {
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
			Name:     "moodle",
			Audience: "https://platform.example",
		},
		Tool: &registration.Tool{
			Name:     "quiz-tool",
			Audience: "https://tool.example",
		},
		DeploymentIDs:    []string{"dep1"},
		PlatformKeyChain: platformChain,
		ToolKeyChain:     toolChain,
	}
	repo := registration.NewMemoryRepository(reg)
	store := nonce.NewStore(cache.NewMemory("test"))
	fetcher := jwks.NewFetcher(cache.NewNoop())
	return &env{
		reg:      reg,
		repo:     repo,
		platform: launch.NewPlatformLaunchValidator(repo, store, fetcher),
		tool:     launch.NewToolLaunchValidator(repo, store, fetcher),
		builder:  payload.NewBuilder(token.NewBuilder(), nonce.NewGenerator()),
	}
}

// toolOriginating arma los claims base de un mensaje tool→platform.
func (e *env) toolOriginating(messageType string) *payload.Builder {
	return e.builder.Reset().
		WithClaim(claims.NameIssuer, e.reg.ClientID).
		WithClaim(claims.NameAudience, e.reg.Platform.Audience).
		WithClaim(claims.NameVersion, claims.VersionLTI1p3).
		WithClaim(claims.NameMessageType, messageType).
		WithClaim(claims.NameDeploymentID, "dep1")
}

// platformOriginating arma los claims base de un mensaje platform→tool.
func (e *env) platformOriginating(messageType string) *payload.Builder {
	return e.builder.Reset().
		WithClaim(claims.NameIssuer, e.reg.Platform.Audience).
		WithClaim(claims.NameAudience, e.reg.ClientID).
		WithClaim(claims.NameVersion, claims.VersionLTI1p3).
		WithClaim(claims.NameMessageType, messageType).
		WithClaim(claims.NameDeploymentID, "dep1")
}

func TestPlatformValidator_DeepLinkingResponseRoundTrip(t *testing.T) {
	e := newEnv(t)
	p, err := e.toolOriginating(claims.MessageTypeDeepLinkingResponse).
		WithClaim("foo", "bar").
		BuildPayload(e.reg.ToolKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.platform.Validate(context.Background(), p.Serialized())
	if res.HasError() {
		t.Fatalf("validation failed: %s (trail %v)", res.Error(), res.Successes())
	}
	if len(res.Successes()) != pipelineLen {
		t.Fatalf("want full trail of %d steps, got %v", pipelineLen, res.Successes())
	}
	if res.Registration() == nil || res.Registration().ID != "reg1" {
		t.Fatalf("registration: %+v", res.Registration())
	}
	dep, err := res.Payload().DeploymentID()
	if err != nil || dep != "dep1" {
		t.Fatalf("deployment id: %q %v", dep, err)
	}
	if got := res.Payload().Token().GetString("foo"); got != "bar" {
		t.Fatalf("custom claim: %q", got)
	}
}

func TestPlatformValidator_ShortCircuitOnMissingDeployment(t *testing.T) {
	e := newEnv(t)
	p, err := e.builder.Reset().
		WithClaim(claims.NameIssuer, e.reg.ClientID).
		WithClaim(claims.NameAudience, e.reg.Platform.Audience).
		WithClaim(claims.NameVersion, claims.VersionLTI1p3).
		WithClaim(claims.NameMessageType, claims.MessageTypeDeepLinkingResponse).
		BuildPayload(e.reg.ToolKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.platform.Validate(context.Background(), p.Serialized())
	if !res.HasError() {
		t.Fatal("validation must fail without deployment id")
	}
	// Exactamente los pasos previos al chequeo de deployment.
	if len(res.Successes()) != 6 {
		t.Fatalf("trail must stop before deployment check, got %v", res.Successes())
	}
	if !strings.Contains(res.Error(), claims.NameDeploymentID) {
		t.Fatalf("error must name the deployment claim, got %q", res.Error())
	}
	if res.Registration() != nil || res.Payload() != nil {
		t.Fatal("failed result must not carry registration or payload")
	}
}

func TestPlatformValidator_NonceReplay(t *testing.T) {
	e := newEnv(t)
	p, err := e.toolOriginating(claims.MessageTypeDeepLinkingResponse).
		BuildPayload(e.reg.ToolKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := context.Background()
	if res := e.platform.Validate(ctx, p.Serialized()); res.HasError() {
		t.Fatalf("first validation must pass: %s", res.Error())
	}
	res := e.platform.Validate(ctx, p.Serialized())
	if !res.HasError() || !strings.Contains(res.Error(), "replay") {
		t.Fatalf("second validation must be rejected as replay, got %q", res.Error())
	}
	if len(res.Successes()) != 5 {
		t.Fatalf("trail must stop at nonce check, got %v", res.Successes())
	}
}

func TestPlatformValidator_WrongSigningKey(t *testing.T) {
	e := newEnv(t)
	rogue, err := keystest.GenerateChain("tool-kid", "rogue")
	if err != nil {
		t.Fatalf("rogue chain: %v", err)
	}
	p, err := e.toolOriginating(claims.MessageTypeDeepLinkingResponse).
		BuildPayload(rogue)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.platform.Validate(context.Background(), p.Serialized())
	if !res.HasError() || !strings.Contains(res.Error(), "signature") {
		t.Fatalf("want signature failure, got %q", res.Error())
	}
	if len(res.Successes()) != 2 {
		t.Fatalf("trail must stop at signature check, got %v", res.Successes())
	}
}

func TestPlatformValidator_UnsupportedMessageType(t *testing.T) {
	e := newEnv(t)
	// Un resource link request viene de la platform, no de la tool.
	p, err := e.toolOriginating(claims.MessageTypeResourceLinkRequest).
		BuildPayload(e.reg.ToolKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.platform.Validate(context.Background(), p.Serialized())
	if !res.HasError() || !strings.Contains(res.Error(), claims.MessageTypeResourceLinkRequest) {
		t.Fatalf("want unsupported message type failure, got %q", res.Error())
	}
}

func TestPlatformValidator_UnknownRegistration(t *testing.T) {
	e := newEnv(t)
	p, err := e.builder.Reset().
		WithClaim(claims.NameIssuer, "ghost-client").
		WithClaim(claims.NameAudience, "https://other.example").
		BuildPayload(e.reg.ToolKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.platform.Validate(context.Background(), p.Serialized())
	if !res.HasError() {
		t.Fatal("validation must fail for unknown registration")
	}
	if len(res.Successes()) != 0 {
		t.Fatalf("trail must be empty, got %v", res.Successes())
	}
}

func TestPlatformValidator_MalformedToken(t *testing.T) {
	e := newEnv(t)
	res := e.platform.Validate(context.Background(), "not-a-jwt")
	if !res.HasError() {
		t.Fatal("malformed token must fail")
	}
	if len(res.Successes()) != 0 {
		t.Fatalf("trail must be empty, got %v", res.Successes())
	}
}

func TestPlatformValidator_StartAssessment(t *testing.T) {
	e := newEnv(t)
	// El session data lo firmó la platform en el start proctoring previo.
	sessionData, err := e.builder.Reset().
		WithClaim("session", "proctoring-session-1").
		BuildPayload(e.reg.PlatformKeyChain)
	if err != nil {
		t.Fatalf("session data: %v", err)
	}

	p, err := e.toolOriginating(claims.MessageTypeStartAssessment).
		WithClaim(claims.NameProctoringSessionData, sessionData.Serialized()).
		WithClaim(claims.NameProctoringAttemptNumber, 1).
		WithClaim(&claims.ResourceLink{ID: "link-1"}).
		BuildPayload(e.reg.ToolKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.platform.Validate(context.Background(), p.Serialized())
	if res.HasError() {
		t.Fatalf("validation failed: %s (trail %v)", res.Error(), res.Successes())
	}
}

func TestPlatformValidator_StartAssessmentMissingAttempt(t *testing.T) {
	e := newEnv(t)
	sessionData, err := e.builder.Reset().
		WithClaim("session", "proctoring-session-1").
		BuildPayload(e.reg.PlatformKeyChain)
	if err != nil {
		t.Fatalf("session data: %v", err)
	}

	p, err := e.toolOriginating(claims.MessageTypeStartAssessment).
		WithClaim(claims.NameProctoringSessionData, sessionData.Serialized()).
		WithClaim(&claims.ResourceLink{ID: "link-1"}).
		BuildPayload(e.reg.ToolKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.platform.Validate(context.Background(), p.Serialized())
	if !res.HasError() || !strings.Contains(res.Error(), claims.NameProctoringAttemptNumber) {
		t.Fatalf("want attempt number failure, got %q", res.Error())
	}
	if len(res.Successes()) != pipelineLen-1 {
		t.Fatalf("trail must stop at type specific check, got %v", res.Successes())
	}
}

func TestToolValidator_ResourceLinkRequest(t *testing.T) {
	e := newEnv(t)
	p, err := e.platformOriginating(claims.MessageTypeResourceLinkRequest).
		WithClaim(&claims.ResourceLink{ID: "link-1", Title: "Quiz 1"}).
		WithClaim(claims.NameTargetLinkURI, "https://tool.example/launch").
		BuildPayload(e.reg.PlatformKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.tool.Validate(context.Background(), p.Serialized())
	if res.HasError() {
		t.Fatalf("validation failed: %s (trail %v)", res.Error(), res.Successes())
	}
	if len(res.Successes()) != pipelineLen {
		t.Fatalf("want full trail, got %v", res.Successes())
	}
	rl := res.Payload().ResourceLink()
	if rl == nil || rl.ID != "link-1" {
		t.Fatalf("resource link: %+v", rl)
	}
}

func TestToolValidator_ResourceLinkWithoutID(t *testing.T) {
	e := newEnv(t)
	p, err := e.platformOriginating(claims.MessageTypeResourceLinkRequest).
		BuildPayload(e.reg.PlatformKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.tool.Validate(context.Background(), p.Serialized())
	if !res.HasError() || !strings.Contains(res.Error(), "resource link") {
		t.Fatalf("want resource link failure, got %q", res.Error())
	}
}

func TestToolValidator_DeepLinkingRequestNeedsReturnURL(t *testing.T) {
	e := newEnv(t)
	p, err := e.platformOriginating(claims.MessageTypeDeepLinkingRequest).
		WithClaim(&claims.DeepLinkingSettings{AcceptTypes: []string{"ltiResourceLink"}}).
		BuildPayload(e.reg.PlatformKeyChain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res := e.tool.Validate(context.Background(), p.Serialized())
	if !res.HasError() || !strings.Contains(res.Error(), "return URL") {
		t.Fatalf("want return URL failure, got %q", res.Error())
	}
}

func TestToolValidator_SignatureViaJWKS(t *testing.T) {
	e := newEnv(t)
	signer := e.reg.PlatformKeyChain

	doc, err := keys.BuildJWKS(signer)
	if err != nil {
		t.Fatalf("build jwks: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc.JSON())
	}))
	defer srv.Close()

	p, err := e.platformOriginating(claims.MessageTypeResourceLinkRequest).
		WithClaim(&claims.ResourceLink{ID: "link-1"}).
		BuildPayload(signer)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Sin chain configurada la verificación cae al JWKS remoto.
	e.reg.PlatformKeyChain = nil
	e.reg.PlatformJWKSURL = srv.URL

	res := e.tool.Validate(context.Background(), p.Serialized())
	if res.HasError() {
		t.Fatalf("validation via JWKS failed: %s (trail %v)", res.Error(), res.Successes())
	}
}
