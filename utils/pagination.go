package utils

// Page bounds a list query. List endpoints default to a screenful of rows
// and cap the limit so no single request can sweep a whole table.
type Page struct {
	Offset int
	Limit  int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ResolvePage normalizes optional offset and limit values from a request
// into concrete query bounds. Negative offsets and non-positive limits fall
// back to the defaults; the limit is capped at maxPageSize.
func ResolvePage(offset, limit *int) Page {
	page := Page{Offset: 0, Limit: defaultPageSize}

	if offset != nil && *offset >= 0 {
		page.Offset = *offset
	}
	if limit != nil && *limit > 0 {
		page.Limit = min(*limit, maxPageSize)
	}

	return page
}
