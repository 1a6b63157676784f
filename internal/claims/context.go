package claims

// Context es el claim context: el curso/sección donde ocurre el launch.
type Context struct {
	ID    string
	Types []string
	Label string
	Title string
}

func (c *Context) ClaimName() string { return NameContext }

func (c *Context) Normalize() map[string]any {
	m := map[string]any{"id": c.ID}
	if len(c.Types) > 0 {
		m["type"] = c.Types
	}
	setIf(m, "label", c.Label)
	setIf(m, "title", c.Title)
	return m
}

func ContextFromMap(m map[string]any) *Context {
	if m == nil {
		return nil
	}
	return &Context{
		ID:    str(m, "id"),
		Types: strSlice(m, "type"),
		Label: str(m, "label"),
		Title: str(m, "title"),
	}
}
