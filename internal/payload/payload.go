package payload

import (
	"strconv"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// Payload envuelve un token firmado y expone accessors tipados sobre el
// claim set LTI. Los claims obligatorios del core retornan error
// (MissingClaimError) si faltan; los opcionales retornan su zero value
// o nil.
type Payload struct {
	token *token.Token
}

// NewPayload envuelve el token dado.
func NewPayload(t *token.Token) *Payload {
	return &Payload{token: t}
}

// Token retorna el token subyacente.
func (p *Payload) Token() *token.Token { return p.token }

// Serialized retorna la forma compact firmada del token.
func (p *Payload) Serialized() string { return p.token.Serialized() }

func (p *Payload) mandatoryString(name string) (string, error) {
	v, err := p.token.GetMandatory(name)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// Issuer retorna el claim iss.
func (p *Payload) Issuer() (string, error) {
	return p.mandatoryString(claims.NameIssuer)
}

// Audiences retorna el claim aud normalizado a slice.
func (p *Payload) Audiences() []string {
	return p.token.GetStringSlice(claims.NameAudience)
}

// Nonce retorna el claim nonce.
func (p *Payload) Nonce() (string, error) {
	return p.mandatoryString(claims.NameNonce)
}

// Version retorna la versión del protocolo declarada en el mensaje.
func (p *Payload) Version() (string, error) {
	return p.mandatoryString(claims.NameVersion)
}

// MessageType retorna el tipo de mensaje LTI.
func (p *Payload) MessageType() (string, error) {
	return p.mandatoryString(claims.NameMessageType)
}

// DeploymentID retorna el deployment id del mensaje.
func (p *Payload) DeploymentID() (string, error) {
	return p.mandatoryString(claims.NameDeploymentID)
}

// TargetLinkURI retorna el target link uri del launch.
func (p *Payload) TargetLinkURI() (string, error) {
	return p.mandatoryString(claims.NameTargetLinkURI)
}

// Roles retorna los roles del usuario (vacío si no hay).
func (p *Payload) Roles() []string {
	return p.token.GetStringSlice(claims.NameRoles)
}

// RoleScopeMentor retorna los user ids mentoreados (claim opcional).
func (p *Payload) RoleScopeMentor() []string {
	return p.token.GetStringSlice(claims.NameRoleScopeMentor)
}

// Custom retorna los parámetros custom (nil si no hay).
func (p *Payload) Custom() map[string]any {
	return p.token.GetMap(claims.NameCustom)
}

// User retorna la identidad del usuario, o nil en launches anónimos.
func (p *Payload) User() *claims.UserIdentity {
	return claims.UserIdentityFromClaims(p.token.AllClaims())
}

// ResourceLink retorna el resource link del mensaje (nil si falta).
func (p *Payload) ResourceLink() *claims.ResourceLink {
	m := p.token.GetMap(claims.NameResourceLink)
	if m == nil {
		return nil
	}
	return claims.ResourceLinkFromMap(m)
}

// Context retorna el contexto del launch (nil si falta).
func (p *Payload) Context() *claims.Context {
	m := p.token.GetMap(claims.NameContext)
	if m == nil {
		return nil
	}
	return claims.ContextFromMap(m)
}

// PlatformInstance retorna la instancia de platform emisora (nil si falta).
func (p *Payload) PlatformInstance() *claims.PlatformInstance {
	m := p.token.GetMap(claims.NamePlatformInstance)
	if m == nil {
		return nil
	}
	return claims.PlatformInstanceFromMap(m)
}

// LaunchPresentation retorna las preferencias de presentación (nil si falta).
func (p *Payload) LaunchPresentation() *claims.LaunchPresentation {
	m := p.token.GetMap(claims.NameLaunchPresent)
	if m == nil {
		return nil
	}
	return claims.LaunchPresentationFromMap(m)
}

// AGS retorna el endpoint del servicio de grades (nil si falta).
func (p *Payload) AGS() *claims.AGS {
	m := p.token.GetMap(claims.NameAGS)
	if m == nil {
		return nil
	}
	return claims.AGSFromMap(m)
}

// NRPS retorna el servicio de membresías (nil si falta).
func (p *Payload) NRPS() *claims.NRPS {
	m := p.token.GetMap(claims.NameNRPS)
	if m == nil {
		return nil
	}
	return claims.NRPSFromMap(m)
}

// BasicOutcome retorna el servicio basic outcome (nil si falta).
func (p *Payload) BasicOutcome() *claims.BasicOutcome {
	m := p.token.GetMap(claims.NameBasicOutcome)
	if m == nil {
		return nil
	}
	return claims.BasicOutcomeFromMap(m)
}

// DeepLinkingSettings retorna los settings de deep linking (nil si falta).
func (p *Payload) DeepLinkingSettings() *claims.DeepLinkingSettings {
	m := p.token.GetMap(claims.NameDeepLinkingSettings)
	if m == nil {
		return nil
	}
	return claims.DeepLinkingSettingsFromMap(m)
}

// DeepLinkingContentItems retorna los content items de una deep linking
// response (nil si no hay).
func (p *Payload) DeepLinkingContentItems() []claims.ContentItem {
	return claims.ContentItemsFromAny(p.token.Get(claims.NameDeepLinkingContentItems, nil))
}

// DeepLinkingData retorna el claim data opaco de deep linking.
func (p *Payload) DeepLinkingData() string {
	return p.token.GetString(claims.NameDeepLinkingData)
}

// DeepLinkingMessage retorna el mensaje para el usuario final.
func (p *Payload) DeepLinkingMessage() string {
	return p.token.GetString(claims.NameDeepLinkingMessage)
}

// DeepLinkingLog retorna el log para la platform.
func (p *Payload) DeepLinkingLog() string {
	return p.token.GetString(claims.NameDeepLinkingLog)
}

// DeepLinkingErrorMessage retorna el mensaje de error para el usuario.
func (p *Payload) DeepLinkingErrorMessage() string {
	return p.token.GetString(claims.NameDeepLinkingErrorMsg)
}

// DeepLinkingErrorLog retorna el log de error para la platform.
func (p *Payload) DeepLinkingErrorLog() string {
	return p.token.GetString(claims.NameDeepLinkingErrorLog)
}

// ProctoringSettings retorna los settings de proctoring (nil si falta).
func (p *Payload) ProctoringSettings() *claims.ProctoringSettings {
	m := p.token.GetMap(claims.NameProctoringSettings)
	if m == nil {
		return nil
	}
	return claims.ProctoringSettingsFromMap(m)
}

// ProctoringSessionData retorna el session data opaco de proctoring.
func (p *Payload) ProctoringSessionData() string {
	return p.token.GetString(claims.NameProctoringSessionData)
}

// ProctoringAttemptNumber retorna el número de intento como string.
// Las platforms lo emiten indistintamente como número o string JSON.
func (p *Payload) ProctoringAttemptNumber() string {
	switch v := p.token.Get(claims.NameProctoringAttemptNumber, nil).(type) {
	case string:
		return v
	case float64:
		return strconv.Itoa(int(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// ProctoringVerifiedUser retorna la identidad verificada (nil si falta).
func (p *Payload) ProctoringVerifiedUser() *claims.ProctoringVerifiedUser {
	m := p.token.GetMap(claims.NameProctoringVerifiedUser)
	if m == nil {
		return nil
	}
	return claims.ProctoringVerifiedUserFromMap(m)
}

// ProctoringEndAssessmentReturn indica si la platform espera un mensaje
// de end assessment al terminar.
func (p *Payload) ProctoringEndAssessmentReturn() bool {
	b, _ := p.token.Get(claims.NameProctoringEndAssessmentReturn, false).(bool)
	return b
}

// ProctoringErrorMessage retorna el mensaje de error para el usuario.
func (p *Payload) ProctoringErrorMessage() string {
	return p.token.GetString(claims.NameProctoringErrorMsg)
}

// ProctoringErrorLog retorna el log de error para la platform.
func (p *Payload) ProctoringErrorLog() string {
	return p.token.GetString(claims.NameProctoringErrorLog)
}
