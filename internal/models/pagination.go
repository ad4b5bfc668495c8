package models

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Page is an offset window over a listing.
type Page struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// Normalized fills the default size and caps oversized requests.
func (p Page) Normalized() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
