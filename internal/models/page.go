package models

const (
	DefaultPerPage = 30
	MaxPerPage     = 100
)

// Page selects one window of an ordered listing. Number is 1-based.
type Page struct {
	Number  int `json:"page"`
	PerPage int `json:"per_page"`
}

// NewPage clamps out-of-range input: a page below 1 becomes 1 and a
// per-page size outside 1..MaxPerPage becomes DefaultPerPage.
func NewPage(number, perPage int) Page {
	if number < 1 {
		number = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

func (p Page) Limit() int {
	if p.PerPage < 1 {
		return DefaultPerPage
	}
	return p.PerPage
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit()
}
