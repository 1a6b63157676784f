package claims

// ResourceLink es el claim resource_link: el recurso concreto lanzado.
type ResourceLink struct {
	ID          string
	Title       string
	Description string
}

func (c *ResourceLink) ClaimName() string { return NameResourceLink }

func (c *ResourceLink) Normalize() map[string]any {
	m := map[string]any{"id": c.ID}
	setIf(m, "title", c.Title)
	setIf(m, "description", c.Description)
	return m
}

// ResourceLinkFromMap reconstruye el claim desde su forma wire.
func ResourceLinkFromMap(m map[string]any) *ResourceLink {
	if m == nil {
		return nil
	}
	return &ResourceLink{
		ID:          str(m, "id"),
		Title:       str(m, "title"),
		Description: str(m, "description"),
	}
}
