package djvu

import (
	"errors"
	"fmt"
	"strings"

	"djvu-viewer/internal/logging"
)

// Root and sub-tree tag names used by the metadata format.
const (
	TagCombined = "mw-djvu"
	TagMeta     = "DjVuXML"
	TagText     = "DjVuTxt"
)

// Document is a parsed metadata blob. Either tree may be nil.
type Document struct {
	Meta *Node // geometry tree, root DjVuXML
	Text *Node // OCR tree, root DjVuTxt
}

// Parse decodes a metadata blob into a Document.
//
// Blobs starting with an XML declaration are legacy raw XML. Anything else is
// decoded as a storage wrapper; blobs that are not wrapper records at all are
// again treated as raw XML. A stored extraction failure, an empty blob or
// malformed XML yields ErrInvalid. A wrapper without content keys yields
// ErrCorruptMetadata.
func Parse(blob string) (*Document, error) {
	if blob == "" || blob == EmptyWrapper {
		return nil, ErrInvalid
	}

	doc := blob
	if !isLegacyXML(blob) {
		w, err := DecodeWrapper(blob)
		switch {
		case errors.Is(err, errNotWrapper):
			// uncompressed or hand-written XML without a declaration
		case errors.Is(err, ErrCorruptMetadata):
			logging.Error("DjVu metadata wrapper has neither xml nor error key (%d bytes)", len(blob))
			return nil, err
		case err != nil:
			return nil, err
		default:
			if msg, failed := w.Failure(); failed {
				logging.Debug("DjVu metadata records a failed extraction: %s", msg)
				return nil, ErrInvalid
			}
			doc, _ = w.XML()
		}
	}

	root, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		logging.Warn("Failed to parse DjVu metadata: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return splitTrees(root), nil
}

// splitTrees dispatches on the root tag. A combined root contributes its
// first DjVuXML and first DjVuTxt children; any other root is a bare
// geometry tree.
func splitTrees(root *Node) *Document {
	if root.TagName() != TagCombined {
		return &Document{Meta: root}
	}

	doc := &Document{}
	for _, child := range root.Children() {
		switch child.TagName() {
		case TagText:
			if doc.Text == nil {
				doc.Text = child
			}
		case TagMeta:
			if doc.Meta == nil {
				doc.Meta = child
			}
		}
	}
	return doc
}
