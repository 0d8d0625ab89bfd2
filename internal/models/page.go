package models

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Paginate 截取第 page 页（从 1 开始），越界页返回空 Items
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return p
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Items = items[start:end]
	return p
}
