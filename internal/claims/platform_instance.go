package claims

// PlatformInstance es el claim tool_platform: la instancia de plataforma
// que origina el mensaje.
type PlatformInstance struct {
	GUID              string
	ContactEmail      string
	Description       string
	Name              string
	URL               string
	ProductFamilyCode string
	Version           string
}

func (c *PlatformInstance) ClaimName() string { return NamePlatformInstance }

func (c *PlatformInstance) Normalize() map[string]any {
	m := map[string]any{"guid": c.GUID}
	setIf(m, "contact_email", c.ContactEmail)
	setIf(m, "description", c.Description)
	setIf(m, "name", c.Name)
	setIf(m, "url", c.URL)
	setIf(m, "product_family_code", c.ProductFamilyCode)
	setIf(m, "version", c.Version)
	return m
}

func PlatformInstanceFromMap(m map[string]any) *PlatformInstance {
	if m == nil {
		return nil
	}
	return &PlatformInstance{
		GUID:              str(m, "guid"),
		ContactEmail:      str(m, "contact_email"),
		Description:       str(m, "description"),
		Name:              str(m, "name"),
		URL:               str(m, "url"),
		ProductFamilyCode: str(m, "product_family_code"),
		Version:           str(m, "version"),
	}
}
