package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - LTI
// =================================================================================

// RegistrationID crea un campo para el ID de la registration platform-tool.
func RegistrationID(v string) zap.Field {
	return zap.String("registration_id", v)
}

// ClientID crea un campo para el client_id OAuth de la registration.
func ClientID(v string) zap.Field {
	return zap.String("client_id", v)
}

// DeploymentID crea un campo para el lti_deployment_id.
func DeploymentID(v string) zap.Field {
	return zap.String("deployment_id", v)
}

// Issuer crea un campo para el issuer (claim "iss").
func Issuer(v string) zap.Field {
	return zap.String("issuer", v)
}

// MessageType crea un campo para el lti_message_type.
func MessageType(v string) zap.Field {
	return zap.String("message_type", v)
}

// KID crea un campo para el key id del header JWT.
func KID(v string) zap.Field {
	return zap.String("kid", v)
}

// JWKSURL crea un campo para la URL del JWKS remoto.
func JWKSURL(v string) zap.Field {
	return zap.String("jwks_url", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Key crea un campo genérico para una clave de cache.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
