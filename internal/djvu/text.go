package djvu

// PageText returns the OCR text of a 1-indexed page from a DjVuTxt tree.
// The text is the value attribute of the page's PAGE element under the
// tree's first BODY.
func PageText(text *Node, page int) (string, error) {
	if text == nil || page < 1 {
		return "", ErrMissingData
	}
	node := text.Child("BODY").ChildAt("PAGE", page-1)
	if node == nil {
		return "", ErrMissingData
	}
	value, _ := node.Attribute("value")
	return value, nil
}

// TextPageCount returns the number of PAGE entries in a DjVuTxt tree.
func TextPageCount(text *Node) int {
	n := 0
	for _, c := range text.Child("BODY").Children() {
		if c.TagName() == "PAGE" {
			n++
		}
	}
	return n
}
