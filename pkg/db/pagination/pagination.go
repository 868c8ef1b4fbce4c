// Package pagination converts 1-based page requests into SQL offsets.
package pagination

// Page is a 1-based page request. A zero Page means "no paging".
type Page struct {
	Page  int
	Limit int
}

// Enabled reports whether both page and limit were supplied.
func (p Page) Enabled() bool {
	return p.Page > 0 && p.Limit > 0
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if !p.Enabled() {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Clamp caps the limit at max. Pages without a limit are left untouched.
func (p Page) Clamp(max int) Page {
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	return p
}
