package claims

// DeepLinkingSettings es el claim deep_linking_settings de un
// LtiDeepLinkingRequest: qué tipos de contenido acepta la plataforma y
// a dónde devolver la respuesta.
type DeepLinkingSettings struct {
	DeepLinkingReturnURL string
	AcceptTypes          []string
	AcceptPresentation   []string // accept_presentation_document_targets
	AcceptMediaTypes     string
	AcceptMultiple       bool
	AutoCreate           bool
	Title                string
	Text                 string
	Data                 string
}

func (c *DeepLinkingSettings) ClaimName() string { return NameDeepLinkingSettings }

func (c *DeepLinkingSettings) Normalize() map[string]any {
	m := map[string]any{
		"deep_link_return_url":                 c.DeepLinkingReturnURL,
		"accept_types":                         c.AcceptTypes,
		"accept_presentation_document_targets": c.AcceptPresentation,
	}
	setIf(m, "accept_media_types", c.AcceptMediaTypes)
	if c.AcceptMultiple {
		m["accept_multiple"] = true
	}
	if c.AutoCreate {
		m["auto_create"] = true
	}
	setIf(m, "title", c.Title)
	setIf(m, "text", c.Text)
	setIf(m, "data", c.Data)
	return m
}

func DeepLinkingSettingsFromMap(m map[string]any) *DeepLinkingSettings {
	if m == nil {
		return nil
	}
	return &DeepLinkingSettings{
		DeepLinkingReturnURL: str(m, "deep_link_return_url"),
		AcceptTypes:          strSlice(m, "accept_types"),
		AcceptPresentation:   strSlice(m, "accept_presentation_document_targets"),
		AcceptMediaTypes:     str(m, "accept_media_types"),
		AcceptMultiple:       boolVal(m, "accept_multiple"),
		AutoCreate:           boolVal(m, "auto_create"),
		Title:                str(m, "title"),
		Text:                 str(m, "text"),
		Data:                 str(m, "data"),
	}
}

// ContentItem es un item devuelto en un LtiDeepLinkingResponse.
// Se mantiene como mapa abierto: el vocabulario de tipos (ltiResourceLink,
// link, file, html, image) es extensible y la plataforma solo necesita
// el campo "type".
type ContentItem map[string]any

// Type retorna el tipo del content item.
func (c ContentItem) Type() string {
	v, _ := c["type"].(string)
	return v
}

// ContentItemsFromAny normaliza el valor wire del claim content_items.
func ContentItemsFromAny(v any) []ContentItem {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]ContentItem, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, ContentItem(m))
		}
	}
	return out
}
