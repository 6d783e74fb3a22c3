package calendar

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T // элементы на текущей странице
	Page     int // номер страницы (с 1)
	PageSize int // количество элементов на странице
	HasNext  bool
	HasPrev  bool
	Total    int // общее количество элементов
}

// PageBounds нормализует номер и размер страницы и возвращает offset/limit
// для запроса к хранилищу. page нумеруется с 1.
func PageBounds(page, pageSize int) (normPage, normSize, offset int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize, (page - 1) * pageSize
}

// NewPage собирает страницу из уже выбранных элементов и общего числа
// записей, посчитанного хранилищем.
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	page, pageSize, offset := PageBounds(page, pageSize)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
		HasNext:  int64(offset+len(items)) < total,
		Total:    int(total),
	}
}

// Paginate режет уже загруженный список на страницу.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	page, pageSize, start := PageBounds(page, pageSize)
	total := len(items)
	if start > total {
		start = total
	}
	end := min(start+pageSize, total)
	return NewPage(items[start:end], page, pageSize, int64(total))
}
