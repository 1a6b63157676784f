package claims

// AGS es el claim del Assignment and Grade Service (endpoint + scopes).
type AGS struct {
	Scopes    []string
	LineItems string
	LineItem  string
}

func (c *AGS) ClaimName() string { return NameAGS }

func (c *AGS) Normalize() map[string]any {
	m := map[string]any{"scope": c.Scopes}
	setIf(m, "lineitems", c.LineItems)
	setIf(m, "lineitem", c.LineItem)
	return m
}

func AGSFromMap(m map[string]any) *AGS {
	if m == nil {
		return nil
	}
	return &AGS{
		Scopes:    strSlice(m, "scope"),
		LineItems: str(m, "lineitems"),
		LineItem:  str(m, "lineitem"),
	}
}
