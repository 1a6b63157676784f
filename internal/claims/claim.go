package claims

// Claim es un claim estructurado: un objeto tipado que conoce su nombre
// canónico y sabe convertirse a su representación wire (mapa anidado).
// Los claims escalares se manejan como pares nombre/valor sueltos; ambos
// son intercambiables dentro de un mismo payload.
type Claim interface {
	ClaimName() string
	Normalize() map[string]any
}

// ----- helpers de denormalización -----

func str(m map[string]any, k string) string {
	v, _ := m[k].(string)
	return v
}

func strSlice(m map[string]any, k string) []string {
	switch v := m[k].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func subMap(m map[string]any, k string) map[string]any {
	v, _ := m[k].(map[string]any)
	return v
}

func boolVal(m map[string]any, k string) bool {
	v, _ := m[k].(bool)
	return v
}

func intVal(m map[string]any, k string) int {
	switch v := m[k].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// setIf agrega k=v al mapa solo si v no es el string vacío.
func setIf(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}
