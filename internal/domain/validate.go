package domain

import "strings"

// Normalize trims whitespace from all scanned fields and coerces the mode.
func (r *Record) Normalize() {
	r.Mode = ParseMode(string(r.Mode))
	r.Code = strings.TrimSpace(r.Code)
	r.Assembly = strings.TrimSpace(r.Assembly)
	r.Location = strings.TrimSpace(r.Location)
	r.Timestamp = strings.TrimSpace(r.Timestamp)
}

// Validate checks the required non-empty fields for the record's mode.
// It returns per-field details, empty when the record is acceptable.
func (r Record) Validate() map[string]string {
	details := map[string]string{}

	switch r.Mode {
	case ModeFinal:
		if r.Code == "" {
			details["code"] = "must be a non-empty code"
		}
	case ModeTest:
		if r.Assembly == "" {
			details["assembly"] = "must be a non-empty code"
		}
		if r.Location == "" {
			details["location"] = "must be a non-empty code"
		}
	default:
		details["mode"] = "must be TEST or FINAL"
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
