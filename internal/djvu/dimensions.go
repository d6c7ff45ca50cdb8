package djvu

import (
	"strconv"
	"strings"
)

// Dimensions is the pixel size of one page.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DimensionInfo is the page geometry derived from a metadata tree.
// DimensionsByPage has PageCount entries; a nil entry is a page whose
// geometry is missing from the metadata.
type DimensionInfo struct {
	PageCount        int           `json:"pageCount" yaml:"pageCount"`
	DimensionsByPage []*Dimensions `json:"dimensionsByPage" yaml:"dimensionsByPage"`
}

// Page returns the dimensions of a 1-indexed page.
func (d *DimensionInfo) Page(page int) (Dimensions, bool) {
	if d == nil || page < 1 || page > len(d.DimensionsByPage) {
		return Dimensions{}, false
	}
	dims := d.DimensionsByPage[page-1]
	if dims == nil {
		return Dimensions{}, false
	}
	return *dims, true
}

// ExtractDimensions derives page geometry from a DjVuXML tree.
//
// The page count is the number of OBJECT elements anywhere in the tree. Page
// i takes its size from the i-th OBJECT child of the tree's first BODY, with
// a missing width or height reading as 0. When BODY has fewer OBJECT
// children the page's entry is nil. A nil tree gives a nil result.
func ExtractDimensions(meta *Node) *DimensionInfo {
	if meta == nil {
		return nil
	}

	count := meta.Count("OBJECT")
	body := meta.Child("BODY")

	info := &DimensionInfo{
		PageCount:        count,
		DimensionsByPage: make([]*Dimensions, count),
	}
	for i := 0; i < count; i++ {
		obj := body.ChildAt("OBJECT", i)
		if obj == nil {
			continue
		}
		info.DimensionsByPage[i] = &Dimensions{
			Width:  intAttribute(obj, "width"),
			Height: intAttribute(obj, "height"),
		}
	}
	return info
}

// intAttribute reads the leading integer of an attribute value. Missing or
// non-numeric values read as 0.
func intAttribute(n *Node, name string) int {
	value, ok := n.Attribute(name)
	if !ok {
		return 0
	}
	value = strings.TrimSpace(value)

	end := 0
	if end < len(value) && (value[end] == '-' || value[end] == '+') {
		end++
	}
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0
	}
	return v
}
