package domain

// PageInfo describes the slice returned by Paginate.
type PageInfo struct {
	Page     int
	PageSize int // <= 0 means unlimited
	Total    int
}

// Paginate returns the 1-based page of items. A page size <= 0 returns
// everything; a page past the end returns an empty slice, never an error.
func Paginate[T any](items []T, page, size int) ([]T, PageInfo) {
	page = max(1, page)
	info := PageInfo{Page: page, PageSize: size, Total: len(items)}
	if size <= 0 {
		return items, info
	}

	// compared in pages so a huge page number cannot overflow the offset
	if len(items) == 0 || page-1 > (len(items)-1)/size {
		return []T{}, info
	}
	start := (page - 1) * size
	end := start + min(size, len(items)-start)
	return items[start:end], info
}

// TotalPages is 1 for unlimited page sizes and for empty listings.
func (p PageInfo) TotalPages() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
