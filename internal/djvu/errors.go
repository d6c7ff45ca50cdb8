package djvu

import (
	"encoding/xml"
	"errors"
	"fmt"
)

var (
	// ErrInvalid reports metadata that cannot produce a tree: malformed XML,
	// an empty blob, or a stored extraction failure.
	ErrInvalid = errors.New("djvu: invalid metadata")

	// ErrCorruptMetadata reports a storage wrapper that has neither an "xml"
	// nor an "error" key. Writers never produce one, so seeing it means the
	// blob was damaged or written by something else.
	ErrCorruptMetadata = errors.New("djvu: corrupt metadata wrapper")

	// ErrMissingData reports an absent tree, page or dimension.
	ErrMissingData = errors.New("djvu: data not found")

	// ErrNotDjVu is returned by ReadImageSize for files without a DjVu header.
	ErrNotDjVu = errors.New("djvu: not a DjVu file")

	// ErrNoPages is returned by ConvertDump when no page INFO chunk was found.
	ErrNoPages = errors.New("djvu: no pages found in dump")

	// ErrIndirectDocument is returned by ConvertDump for indirect multi-page
	// documents, whose pages live in separate files.
	ErrIndirectDocument = errors.New("djvu: indirect multi-page document")
)

// XMLError describes a metadata XML parse failure.
type XMLError struct {
	Line    int // 0 if unknown
	Message string
}

func (e *XMLError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("xml parse error at line %d: %s", e.Line, e.Message)
	}
	return "xml parse error: " + e.Message
}

// wrapXMLError converts encoding/xml errors into an *XMLError.
func wrapXMLError(err error) *XMLError {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &XMLError{Line: syntaxErr.Line, Message: syntaxErr.Msg}
	}
	return &XMLError{Message: err.Error()}
}
