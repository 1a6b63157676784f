// Package launch implementa la máquina de validación de launches LTI en
// ambas direcciones: la platform validando mensajes originados en la tool
// y la tool validando mensajes originados en la platform. La validación
// es un pipeline ordenado de pasos que corta en el primer fallo; el
// resultado siempre es un valor, nunca un error que escapa.
package launch

import (
	"github.com/dropDatabas3/hellolti/internal/payload"
	"github.com/dropDatabas3/hellolti/internal/registration"
)

// ValidationResult es el resultado de validar un launch. En éxito carga
// la registration resuelta, el payload validado y el trail completo de
// pasos superados. En fallo carga el trail parcial acumulado hasta el
// paso que falló y un único mensaje de error; registration y payload
// quedan en nil.
type ValidationResult struct {
	registration *registration.Registration
	payload      *payload.Payload
	successes    []string
	err          string
}

// Registration retorna la registration resuelta (nil en fallo).
func (r *ValidationResult) Registration() *registration.Registration {
	return r.registration
}

// Payload retorna el payload validado (nil en fallo).
func (r *ValidationResult) Payload() *payload.Payload {
	return r.payload
}

// Successes retorna el trail de pasos superados, en orden.
func (r *ValidationResult) Successes() []string {
	out := make([]string, len(r.successes))
	copy(out, r.successes)
	return out
}

// HasError indica si la validación falló.
func (r *ValidationResult) HasError() bool { return r.err != "" }

// Error retorna el mensaje de fallo ("" en éxito).
func (r *ValidationResult) Error() string { return r.err }
