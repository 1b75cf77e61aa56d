package query

import "github.com/noah-isme/library-console/internal/models"

// buttonWindow is the most numbered buttons shown around the current page.
const buttonWindow = 5

// Page is one slice of the visible roster.
type Page struct {
	Items      []models.Student
	Number     int
	Size       int
	TotalCount int
	TotalPages int
}

// Pagination converts p into the response metadata form.
func (p Page) Pagination() *models.Pagination {
	return &models.Pagination{
		Page:       p.Number,
		PageSize:   p.Size,
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
	}
}

// TotalPages is ceil(total/size) with a minimum of one page.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Paginate returns page number (1-based) of subset. It does not clamp: a page
// outside [1, TotalPages] yields no items. A non-positive size puts
// everything on one page.
func Paginate(subset []models.Student, size, number int) Page {
	total := len(subset)
	if size <= 0 {
		size = total
	}
	page := Page{
		Items:      []models.Student{},
		Number:     number,
		Size:       size,
		TotalCount: total,
		TotalPages: TotalPages(total, size),
	}
	if number < 1 || size == 0 {
		return page
	}
	start := (number - 1) * size
	if start >= total {
		return page
	}
	end := start + size
	if end > total {
		end = total
	}
	page.Items = append(page.Items, subset[start:end]...)
	return page
}

// PageButtons lays out the pager: up to five numbered buttons centred on
// current and shifted to stay inside [1, total], with the first and last page
// always present and an ellipsis wherever the window leaves a gap.
func PageButtons(current, total int) []models.PageButton {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	start := current - buttonWindow/2
	end := current + buttonWindow/2
	if start < 1 {
		end += 1 - start
		start = 1
	}
	if end > total {
		start -= end - total
		end = total
	}
	if start < 1 {
		start = 1
	}

	buttons := make([]models.PageButton, 0, buttonWindow+4)
	if start > 1 {
		buttons = append(buttons, models.PageButton{Number: 1})
		if start > 2 {
			buttons = append(buttons, models.PageButton{Ellipsis: true})
		}
	}
	for n := start; n <= end; n++ {
		buttons = append(buttons, models.PageButton{Number: n, Current: n == current})
	}
	if end < total {
		if end < total-1 {
			buttons = append(buttons, models.PageButton{Ellipsis: true})
		}
		buttons = append(buttons, models.PageButton{Number: total})
	}
	return buttons
}
