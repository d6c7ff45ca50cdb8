package media

import (
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/filesystem"
)

// MimeType is the MIME type served for DjVu documents.
const MimeType = "image/vnd.djvu"

// Extensions maps file extensions recognized as DjVu documents.
var Extensions = map[string]bool{
	".djvu": true,
	".djv":  true,
}

// IsDjVu reports whether name has a DjVu extension.
func IsDjVu(name string) bool {
	return Extensions[strings.ToLower(filepath.Ext(name))]
}

// File is a DjVu document on disk identified by its content hash.
type File struct {
	Path string // local filesystem path
	sha  string
}

// NewFile returns a File with a known content hash.
func NewFile(path, sha string) *File {
	return &File{Path: path, sha: sha}
}

// OpenFile hashes the file at path.
func OpenFile(path string) (*File, error) {
	sha, err := HashFile(path)
	if err != nil {
		return nil, err
	}
	return NewFile(path, sha), nil
}

// SHA returns the hex BLAKE2b-256 digest of the file contents.
func (f *File) SHA() string { return f.sha }

// HashFile returns the hex BLAKE2b-256 digest of the file at path.
func HashFile(path string) (string, error) {
	fh, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	defer fh.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, fh); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReadImageSize reads the first page header straight from the file's IFF
// container without running any external tool.
func ReadImageSize(path string) (djvu.ImageInfo, error) {
	fh, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return djvu.ImageInfo{}, err
	}
	defer fh.Close()
	return djvu.ReadImageSize(fh)
}
