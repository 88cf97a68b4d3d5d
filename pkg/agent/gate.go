package agent

import "strings"

// Admit is the admission gate: it decides, before any network or LLM call,
// whether a contact may enter the workflow. A contact needs a full name, a
// company domain, a work email, and must not already carry a generated
// draft. The returned error is a *ValidationError describing the first
// failing check.
func Admit(c Contact) error {
	reject := func(reason string) error {
		return &ValidationError{Contact: c.Identity(), Reason: reason}
	}
	if strings.TrimSpace(c.FullName) == "" {
		return reject("missing full name")
	}
	if strings.TrimSpace(c.CompanyDomain) == "" {
		return reject("missing company domain")
	}
	if strings.TrimSpace(c.WorkEmail) == "" {
		return reject("missing work email")
	}
	if strings.TrimSpace(c.DraftEmail) != "" {
		return reject("draft already exists")
	}
	return nil
}
