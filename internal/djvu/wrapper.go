package djvu

import (
	"encoding/json"
	"errors"
	"strings"
)

// EmptyWrapper is the canonical encoding of a wrapper with no content.
const EmptyWrapper = "{}"

// WrapperKind identifies the variant held by a Wrapper.
type WrapperKind int

const (
	// WrapperXML holds extracted metadata XML.
	WrapperXML WrapperKind = iota + 1
	// WrapperError holds the message of a failed extraction.
	WrapperError
)

func (k WrapperKind) String() string {
	switch k {
	case WrapperXML:
		return "xml"
	case WrapperError:
		return "error"
	default:
		return "unknown"
	}
}

// Wrapper is the storage record for a file's metadata: either the XML
// produced by the extraction tools or the reason extraction failed.
type Wrapper struct {
	kind    WrapperKind
	payload string
}

// XMLWrapper returns a wrapper holding metadata XML.
func XMLWrapper(xml string) Wrapper {
	return Wrapper{kind: WrapperXML, payload: xml}
}

// ErrorWrapper returns a wrapper recording a failed extraction.
func ErrorWrapper(message string) Wrapper {
	return Wrapper{kind: WrapperError, payload: message}
}

// Kind returns the wrapper variant.
func (w Wrapper) Kind() WrapperKind { return w.kind }

// XML returns the metadata XML and true for WrapperXML.
func (w Wrapper) XML() (string, bool) {
	return w.payload, w.kind == WrapperXML
}

// Failure returns the failure message and true for WrapperError.
func (w Wrapper) Failure() (string, bool) {
	return w.payload, w.kind == WrapperError
}

// Encode serializes the wrapper into its storage form.
func (w Wrapper) Encode() (string, error) {
	var fields map[string]string
	switch w.kind {
	case WrapperXML:
		fields = map[string]string{"xml": w.payload}
	case WrapperError:
		fields = map[string]string{"error": w.payload}
	default:
		return EmptyWrapper, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// errNotWrapper reports a blob that does not decode as a wrapper record.
// Callers fall back to treating such blobs as raw XML.
var errNotWrapper = errors.New("djvu: blob is not a wrapper record")

// DecodeWrapper decodes a stored wrapper record. An "error" key takes
// precedence over an "xml" key. A record with neither, or with a non-string
// value, is ErrCorruptMetadata.
func DecodeWrapper(blob string) (Wrapper, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &fields); err != nil || fields == nil {
		return Wrapper{}, errNotWrapper
	}

	if raw, ok := fields["error"]; ok {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			return Wrapper{}, ErrCorruptMetadata
		}
		return ErrorWrapper(msg), nil
	}
	if raw, ok := fields["xml"]; ok {
		var doc string
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Wrapper{}, ErrCorruptMetadata
		}
		return XMLWrapper(doc), nil
	}
	return Wrapper{}, ErrCorruptMetadata
}

// IsMetadataValid reports whether a stored blob can describe a document:
// it must be non-empty, not the canonical empty wrapper, and not a stored
// extraction failure.
func IsMetadataValid(blob string) bool {
	if blob == "" || blob == EmptyWrapper {
		return false
	}
	if isLegacyXML(blob) {
		return true
	}
	w, err := DecodeWrapper(blob)
	if err != nil {
		return true
	}
	return w.Kind() != WrapperError
}

func isLegacyXML(blob string) bool {
	return strings.HasPrefix(blob, "<?xml")
}
