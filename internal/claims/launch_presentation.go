package claims

// LaunchPresentation es el claim launch_presentation: cómo debe mostrarse
// el contenido lanzado.
type LaunchPresentation struct {
	DocumentTarget string // "iframe" | "window" | "embed"
	Height         int
	Width          int
	ReturnURL      string
	Locale         string
}

func (c *LaunchPresentation) ClaimName() string { return NameLaunchPresent }

func (c *LaunchPresentation) Normalize() map[string]any {
	m := map[string]any{}
	setIf(m, "document_target", c.DocumentTarget)
	if c.Height > 0 {
		m["height"] = c.Height
	}
	if c.Width > 0 {
		m["width"] = c.Width
	}
	setIf(m, "return_url", c.ReturnURL)
	setIf(m, "locale", c.Locale)
	return m
}

func LaunchPresentationFromMap(m map[string]any) *LaunchPresentation {
	if m == nil {
		return nil
	}
	return &LaunchPresentation{
		DocumentTarget: str(m, "document_target"),
		Height:         intVal(m, "height"),
		Width:          intVal(m, "width"),
		ReturnURL:      str(m, "return_url"),
		Locale:         str(m, "locale"),
	}
}
