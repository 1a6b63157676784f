package claims

// BasicOutcome es el claim del Basic Outcomes service (LTI 1.1 interop).
type BasicOutcome struct {
	LISResultSourcedID string
	LISOutcomeURL      string
}

func (c *BasicOutcome) ClaimName() string { return NameBasicOutcome }

func (c *BasicOutcome) Normalize() map[string]any {
	return map[string]any{
		"lis_result_sourcedid":    c.LISResultSourcedID,
		"lis_outcome_service_url": c.LISOutcomeURL,
	}
}

func BasicOutcomeFromMap(m map[string]any) *BasicOutcome {
	if m == nil {
		return nil
	}
	return &BasicOutcome{
		LISResultSourcedID: str(m, "lis_result_sourcedid"),
		LISOutcomeURL:      str(m, "lis_outcome_service_url"),
	}
}
