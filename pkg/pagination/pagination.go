package pagination

const (
	// DefaultSize is the standard page size when a size is not provided.
	DefaultSize = 10
	// MaxSize caps how many rows any page can request.
	MaxSize = 100
)

// Params holds zero-based page pagination inputs from controllers or services.
type Params struct {
	Page int
	Size int
}

// Normalize enforces a non-negative page and the default and maximum sizes.
func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	p.Size = NormalizeSize(p.Size)
	return p
}

// NormalizeSize enforces the configured default and maximum sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Meta describes a page of a larger result set.
type Meta struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	HasNext       bool  `json:"has_next"`
}

// NewMeta derives the page counters from the normalized params and the total.
func NewMeta(params Params, total int64) Meta {
	params = params.Normalize()
	if total < 0 {
		total = 0
	}
	pages := int((total + int64(params.Size) - 1) / int64(params.Size))
	return Meta{
		Page:          params.Page,
		Size:          params.Size,
		TotalElements: total,
		TotalPages:    pages,
		HasNext:       params.Page+1 < pages,
	}
}
