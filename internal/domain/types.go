package domain

// Mode selects the commit workflow: TEST needs an assembly scan followed by a
// location scan, FINAL commits a single code.
type Mode string

const (
	ModeTest  Mode = "TEST"
	ModeFinal Mode = "FINAL"
)

// ParseMode coerces arbitrary input to a known mode. Unknown values fall back
// to TEST.
func ParseMode(s string) Mode {
	if s == string(ModeFinal) {
		return ModeFinal
	}
	return ModeTest
}

// Record is one committed scan. Exactly one shape is populated per mode:
// Code for FINAL, Assembly+Location for TEST.
type Record struct {
	ID        string `json:"id,omitempty"`
	Mode      Mode   `json:"mode"`
	Timestamp string `json:"timestamp,omitempty"`
	Code      string `json:"code,omitempty"`
	Assembly  string `json:"assembly,omitempty"`
	Location  string `json:"location,omitempty"`
}
