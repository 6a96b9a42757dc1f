package domain

import "strings"

// Entity is the subject of a research run. At minimum a company name;
// homepage and notes are optional hints passed through to drivers.
type Entity struct {
	// Name is the company name being researched.
	Name string

	// Homepage is the canonical homepage URL, if known.
	Homepage string

	// Notes is free-form research context (e.g. "B2B SaaS, Berlin").
	Notes string
}

// Validate checks that the entity identifies a research subject.
func (e Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrInvalidEntity
	}
	return nil
}
