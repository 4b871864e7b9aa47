package catalog

// DefaultPadding is the number of page links shown on each side of the current page.
const DefaultPadding = 3

// Pagination is the page window rendered under the result list.
type Pagination struct {
	Current  int   `json:"current"`
	NbPages  int   `json:"nbPages"`
	Pages    []int `json:"pages"`
	IsFirst  bool  `json:"isFirst"`
	IsLast   bool  `json:"isLast"`
	Ellipsis bool  `json:"ellipsis"`
}

// NewPagination computes a window of at most 2*padding+1 zero-based pages around current.
func NewPagination(current, nbPages, padding int) Pagination {
	if padding < 0 {
		padding = DefaultPadding
	}
	if nbPages < 0 {
		nbPages = 0
	}
	p := Pagination{
		Current: current,
		NbPages: nbPages,
		Pages:   []int{},
		IsFirst: current <= 0,
		IsLast:  current >= nbPages-1,
	}

	shown := min(2*padding+1, nbPages)
	if shown == 0 {
		return p
	}

	var left int
	switch {
	case current <= padding:
		left = current
	case current >= nbPages-padding:
		left = shown - (nbPages - current)
	default:
		left = padding
	}

	start := max(current-left, 0)
	for i := start; i < start+shown && i < nbPages; i++ {
		p.Pages = append(p.Pages, i)
	}
	p.Ellipsis = nbPages > p.Pages[len(p.Pages)-1]+1
	return p
}
