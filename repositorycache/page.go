package repositorycache

// DefaultPerPage is the page size used by Paginate when none is given.
const DefaultPerPage = 10

// Page is one page of records along with the totals needed to render a
// paginated table.
type Page[T any] struct {
	Data            []T `json:"data"`
	RecordsTotal    int `json:"recordsTotal"`
	RecordsFiltered int `json:"recordsFiltered"`
	TotalPages      int `json:"totalPages"`
	PerPage         int `json:"perPage"`
	CurrentPage     int `json:"currentPage"`
}

func newPage[T any](data []T, total, perPage, page int) Page[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Page[T]{
		Data:            data,
		RecordsTotal:    total,
		// no filter is applied, so every record passes it
		RecordsFiltered: total,
		TotalPages:      pages,
		PerPage:         perPage,
		CurrentPage:     page,
	}
}
