package claims

// UserIdentity agrupa los claims OIDC estándar de identidad del usuario.
// Existe solo cuando el payload trae un claim "sub"; un launch anónimo
// no tiene identidad.
type UserIdentity struct {
	ID         string // claim "sub"
	Name       string
	Email      string
	GivenName  string
	FamilyName string
	MiddleName string
	Locale     string
	Picture    string
}

// UserIdentityFromClaims deriva la identidad desde los claims top-level
// del payload. Retorna nil si no hay "sub".
func UserIdentityFromClaims(m map[string]any) *UserIdentity {
	sub := str(m, NameSubject)
	if sub == "" {
		return nil
	}
	return &UserIdentity{
		ID:         sub,
		Name:       str(m, "name"),
		Email:      str(m, "email"),
		GivenName:  str(m, "given_name"),
		FamilyName: str(m, "family_name"),
		MiddleName: str(m, "middle_name"),
		Locale:     str(m, "locale"),
		Picture:    str(m, "picture"),
	}
}
