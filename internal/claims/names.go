// Package claims define el vocabulario de claims LTI 1.3 y los tipos
// estructurados que se (de)normalizan entre objetos tipados y su
// representación wire (mapas anidados dentro del JWT).
package claims

// Versión soportada del protocolo.
const VersionLTI1p3 = "1.3.0"

// Nombres de claims estándar JWT/OIDC.
const (
	NameIssuer   = "iss"
	NameSubject  = "sub"
	NameAudience = "aud"
	NameNonce    = "nonce"
)

// Nombres de claims del core LTI.
const (
	NameMessageType      = "https://purl.imsglobal.org/spec/lti/claim/message_type"
	NameVersion          = "https://purl.imsglobal.org/spec/lti/claim/version"
	NameDeploymentID     = "https://purl.imsglobal.org/spec/lti/claim/deployment_id"
	NameTargetLinkURI    = "https://purl.imsglobal.org/spec/lti/claim/target_link_uri"
	NameRoles            = "https://purl.imsglobal.org/spec/lti/claim/roles"
	NameRoleScopeMentor  = "https://purl.imsglobal.org/spec/lti/claim/role_scope_mentor"
	NameResourceLink     = "https://purl.imsglobal.org/spec/lti/claim/resource_link"
	NameContext          = "https://purl.imsglobal.org/spec/lti/claim/context"
	NamePlatformInstance = "https://purl.imsglobal.org/spec/lti/claim/tool_platform"
	NameLaunchPresent    = "https://purl.imsglobal.org/spec/lti/claim/launch_presentation"
	NameCustom           = "https://purl.imsglobal.org/spec/lti/claim/custom"
)

// Servicios (AGS, NRPS, Basic Outcome).
const (
	NameAGS          = "https://purl.imsglobal.org/spec/lti-ags/claim/endpoint"
	NameNRPS         = "https://purl.imsglobal.org/spec/lti-nrps/claim/namesroleservice"
	NameBasicOutcome = "https://purl.imsglobal.org/spec/lti-bo/claim/basicoutcome"
)

// Deep linking.
const (
	NameDeepLinkingSettings     = "https://purl.imsglobal.org/spec/lti-dl/claim/deep_linking_settings"
	NameDeepLinkingContentItems = "https://purl.imsglobal.org/spec/lti-dl/claim/content_items"
	NameDeepLinkingData         = "https://purl.imsglobal.org/spec/lti-dl/claim/data"
	NameDeepLinkingMessage      = "https://purl.imsglobal.org/spec/lti-dl/claim/msg"
	NameDeepLinkingLog          = "https://purl.imsglobal.org/spec/lti-dl/claim/log"
	NameDeepLinkingErrorMsg     = "https://purl.imsglobal.org/spec/lti-dl/claim/errormsg"
	NameDeepLinkingErrorLog     = "https://purl.imsglobal.org/spec/lti-dl/claim/errorlog"
)

// Proctoring (assessment).
const (
	NameProctoringSettings            = "https://purl.imsglobal.org/spec/lti-ap/claim/proctoring_settings"
	NameProctoringSessionData         = "https://purl.imsglobal.org/spec/lti-ap/claim/session_data"
	NameProctoringAttemptNumber       = "https://purl.imsglobal.org/spec/lti-ap/claim/attempt_number"
	NameProctoringVerifiedUser        = "https://purl.imsglobal.org/spec/lti-ap/claim/verified_user"
	NameProctoringEndAssessmentReturn = "https://purl.imsglobal.org/spec/lti-ap/claim/end_assessment_return"
	NameProctoringErrorMsg            = "https://purl.imsglobal.org/spec/lti-ap/claim/errormsg"
	NameProctoringErrorLog            = "https://purl.imsglobal.org/spec/lti-ap/claim/errorlog"
)

// Tipos de mensaje LTI.
const (
	MessageTypeResourceLinkRequest = "LtiResourceLinkRequest"
	MessageTypeDeepLinkingRequest  = "LtiDeepLinkingRequest"
	MessageTypeDeepLinkingResponse = "LtiDeepLinkingResponse"
	MessageTypeStartProctoring     = "LtiStartProctoring"
	MessageTypeStartAssessment     = "LtiStartAssessment"
	MessageTypeEndAssessment       = "LtiEndAssessment"
)

// Scopes de los servicios LTI.
const (
	ScopeAGSLineItem         = "https://purl.imsglobal.org/spec/lti-ags/scope/lineitem"
	ScopeAGSLineItemReadonly = "https://purl.imsglobal.org/spec/lti-ags/scope/lineitem.readonly"
	ScopeAGSResultReadonly   = "https://purl.imsglobal.org/spec/lti-ags/scope/result.readonly"
	ScopeAGSScore            = "https://purl.imsglobal.org/spec/lti-ags/scope/score"
	ScopeNRPSMembership      = "https://purl.imsglobal.org/spec/lti-nrps/scope/contextmembership.readonly"
	ScopeBasicOutcome        = "https://purl.imsglobal.org/spec/lti-bo/scope/basicoutcome"
)
