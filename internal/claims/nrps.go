package claims

// NRPS es el claim del Names and Role Provisioning Service.
type NRPS struct {
	ContextMembershipsURL string
	Versions              []string
}

func (c *NRPS) ClaimName() string { return NameNRPS }

func (c *NRPS) Normalize() map[string]any {
	return map[string]any{
		"context_memberships_url": c.ContextMembershipsURL,
		"service_versions":        c.Versions,
	}
}

func NRPSFromMap(m map[string]any) *NRPS {
	if m == nil {
		return nil
	}
	return &NRPS{
		ContextMembershipsURL: str(m, "context_memberships_url"),
		Versions:              strSlice(m, "service_versions"),
	}
}
