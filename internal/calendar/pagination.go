package calendar

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T // элементы на текущей странице
	Page     int // номер страницы (с 1)
	PageSize int
	HasNext  bool
	HasPrev  bool
	Total    int
}

const (
	// DefaultPageSize используется, если размер страницы не задан.
	DefaultPageSize = 10
	// MaxPageSize: больший размер страницы урезается до него.
	MaxPageSize = 100
)

// NormalizePage подставляет значения по умолчанию и возвращает offset.
func NormalizePage(page, pageSize int) (int, int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)
	if page <= 0 {
		page = 1
	}
	return page, pageSize, (page - 1) * pageSize
}

// PageOf собирает метаданные страницы, уже выбранной из хранилища.
func PageOf[T any](items []T, page, pageSize int, total int64) Page[T] {
	page, pageSize, start := NormalizePage(page, pageSize)
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  int64(start+len(items)) < total,
		HasPrev:  page > 1,
		Total:    int(total),
	}
}
