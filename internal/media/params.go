package media

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"djvu-viewer/internal/djvu"
)

// Params selects a rendition of one page.
type Params struct {
	Page  int `json:"page"`
	Width int `json:"width"`
}

// MaxWidth is the largest rendition width accepted, the widest page a DjVu
// INFO chunk can declare.
const MaxWidth = 65535

var paramStringExpr = regexp.MustCompile(`^(?:page(\d+)-)?(\d+)px$`)

// ValidateParam reports whether value is acceptable for the named
// parameter. Only page and width are recognized; both must be positive and
// width may not exceed MaxWidth.
func ValidateParam(name string, value int) bool {
	switch name {
	case "page":
		return value >= 1
	case "width":
		return value >= 1 && value <= MaxWidth
	default:
		return false
	}
}

// ParamString encodes p as "page{N}-{W}px". A missing page means page 1;
// a missing width cannot be encoded.
func ParamString(p Params) (string, bool) {
	if p.Width < 1 {
		return "", false
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("page%d-%dpx", page, p.Width), true
}

// ParseParamString decodes "page{N}-{W}px" or "{W}px" (page 1).
func ParseParamString(s string) (Params, bool) {
	m := paramStringExpr.FindStringSubmatch(s)
	if m == nil {
		return Params{}, false
	}

	p := Params{Page: 1}
	if m[1] != "" {
		page, err := strconv.Atoi(m[1])
		if err != nil || !ValidateParam("page", page) {
			return Params{}, false
		}
		p.Page = page
	}
	width, err := strconv.Atoi(m[2])
	if err != nil || !ValidateParam("width", width) {
		return Params{}, false
	}
	p.Width = width
	return p, true
}

// ScaleToWidth fits dims to width, keeping the aspect ratio. The height is
// rounded to the nearest pixel and never drops below 1. A non-positive
// width or a page without width returns dims unchanged.
func ScaleToWidth(dims djvu.Dimensions, width int) djvu.Dimensions {
	if width < 1 || dims.Width < 1 {
		return dims
	}
	height := math.Round(float64(dims.Height) * float64(width) / float64(dims.Width))
	return djvu.Dimensions{Width: width, Height: int(max(height, 1))}
}
