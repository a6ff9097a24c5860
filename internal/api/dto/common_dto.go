package dto

// PagedResponse wraps a list payload with pagination cursors.
type PagedResponse struct {
	Content any   `json:"content"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Prev    *int  `json:"prev"`
	Next    *int  `json:"next"`
}

// NewPaged builds the envelope, computing prev/next page numbers from the
// total count. Pages are 1-based.
func NewPaged(content any, total int64, page, limit int) PagedResponse {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	resp := PagedResponse{Content: content, Total: total, Page: page, Limit: limit}
	if page > 1 {
		prev := page - 1
		resp.Prev = &prev
	}
	if int64(page*limit) < total {
		next := page + 1
		resp.Next = &next
	}
	return resp
}
