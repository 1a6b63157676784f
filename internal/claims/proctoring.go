package claims

// ProctoringSettings es el claim proctoring_settings de un LtiStartProctoring.
type ProctoringSettings struct {
	Data string
}

func (c *ProctoringSettings) ClaimName() string { return NameProctoringSettings }

func (c *ProctoringSettings) Normalize() map[string]any {
	return map[string]any{"data": c.Data}
}

func ProctoringSettingsFromMap(m map[string]any) *ProctoringSettings {
	if m == nil {
		return nil
	}
	return &ProctoringSettings{Data: str(m, "data")}
}

// ProctoringVerifiedUser es el claim verified_user de un LtiStartAssessment:
// los datos de identidad que el proctoring verificó.
type ProctoringVerifiedUser struct {
	Picture    string
	GivenName  string
	FamilyName string
	Name       string
	Email      string
}

func (c *ProctoringVerifiedUser) ClaimName() string { return NameProctoringVerifiedUser }

func (c *ProctoringVerifiedUser) Normalize() map[string]any {
	m := map[string]any{}
	setIf(m, "picture", c.Picture)
	setIf(m, "given_name", c.GivenName)
	setIf(m, "family_name", c.FamilyName)
	setIf(m, "name", c.Name)
	setIf(m, "email", c.Email)
	return m
}

func ProctoringVerifiedUserFromMap(m map[string]any) *ProctoringVerifiedUser {
	if m == nil {
		return nil
	}
	return &ProctoringVerifiedUser{
		Picture:    str(m, "picture"),
		GivenName:  str(m, "given_name"),
		FamilyName: str(m, "family_name"),
		Name:       str(m, "name"),
		Email:      str(m, "email"),
	}
}
