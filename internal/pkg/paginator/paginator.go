package paginator

type PaginatedResponse[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	PrevPage    *int `json:"prev_page"`
	NextPage    *int `json:"next_page"`
	TotalItems  int  `json:"total_items"`
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Paginate slices a snapshot. Collections are read whole from the store, so
// paging happens in memory rather than in a query.
func Paginate[T any](all []T, page, limit int) *PaginatedResponse[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	totalItems := len(all)
	totalPages := (totalItems + limit - 1) / limit

	// compare page counts first; (page-1)*limit overflows for huge pages
	offset := totalItems
	if page-1 <= totalItems/limit {
		offset = min((page-1)*limit, totalItems)
	}
	end := offset + limit
	if end > totalItems {
		end = totalItems
	}

	items := make([]T, end-offset)
	copy(items, all[offset:end])

	var prevPage, nextPage *int
	if page > 1 {
		p := page - 1
		prevPage = &p
	}
	if page < totalPages {
		p := page + 1
		nextPage = &p
	}

	return &PaginatedResponse[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  totalPages,
		PrevPage:    prevPage,
		NextPage:    nextPage,
		TotalItems:  totalItems,
	}
}
