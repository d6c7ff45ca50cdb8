package djvu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ImageInfo is the page header of the first page of a DjVu file.
type ImageInfo struct {
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	Version    string  `json:"version" yaml:"version"`
	Resolution int     `json:"resolution" yaml:"resolution"`
	Gamma      float64 `json:"gamma" yaml:"gamma"`
}

// ReadImageSize reads the IFF container header of a DjVu file and returns
// the INFO chunk of its first page. Multi-page (DJVM) files are scanned
// for the first FORM:DJVU; other pages are assumed to be the same size.
func ReadImageSize(r io.ReadSeeker) (ImageInfo, error) {
	var header [16]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return ImageInfo{}, fmt.Errorf("%w: file header too short", ErrNotDjVu)
	}
	if string(header[0:4]) != "AT&T" {
		return ImageInfo{}, ErrNotDjVu
	}

	formLength := int64(binary.BigEndian.Uint32(header[8:12]))
	switch subtype := string(header[12:16]); subtype {
	case "DJVU":
		return readPageInfo(r)
	case "DJVM":
		return readMultiPageInfo(r, formLength)
	default:
		return ImageInfo{}, fmt.Errorf("%w: unrecognized form type %q", ErrNotDjVu, subtype)
	}
}

func readChunk(r io.Reader) (string, int64, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", 0, err
	}
	return string(hdr[0:4]), int64(binary.BigEndian.Uint32(hdr[4:8])), nil
}

// skipChunk seeks past a chunk body and its pad byte.
func skipChunk(r io.Seeker, length int64) error {
	if length&1 == 1 {
		length++
	}
	_, err := r.Seek(length, io.SeekCurrent)
	return err
}

func readMultiPageInfo(r io.ReadSeeker, formLength int64) (ImageInfo, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return ImageInfo{}, err
	}

	for {
		chunk, length, err := readChunk(r)
		if err != nil {
			break
		}
		skip := length
		if chunk == "FORM" {
			var subtype [4]byte
			if _, err := io.ReadFull(r, subtype[:]); err != nil {
				break
			}
			if string(subtype[:]) == "DJVU" {
				return readPageInfo(r)
			}
			skip -= 4
		}
		if err := skipChunk(r, skip); err != nil {
			return ImageInfo{}, err
		}

		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return ImageInfo{}, err
		}
		if length == 0 || pos-start >= formLength {
			break
		}
	}
	return ImageInfo{}, fmt.Errorf("%w: no page found in multi-page file", ErrMissingData)
}

func readPageInfo(r io.Reader) (ImageInfo, error) {
	chunk, length, err := readChunk(r)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: reading INFO chunk: %w", ErrMissingData, err)
	}
	if chunk != "INFO" {
		return ImageInfo{}, fmt.Errorf("%w: expected INFO chunk, found %q", ErrMissingData, chunk)
	}
	if length < 9 {
		return ImageInfo{}, fmt.Errorf("%w: INFO chunk too short", ErrMissingData)
	}

	data := make([]byte, min(length, 16))
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ImageInfo{}, fmt.Errorf("%w: truncated INFO chunk", ErrMissingData)
		}
		return ImageInfo{}, err
	}

	// width(be16) height(be16) minor(u8) major(u8) dpi(le16) gamma(u8); newer
	// files add a rotation byte that is not used here.
	return ImageInfo{
		Width:      int(binary.BigEndian.Uint16(data[0:2])),
		Height:     int(binary.BigEndian.Uint16(data[2:4])),
		Version:    fmt.Sprintf("%d.%d", data[5], data[4]),
		Resolution: int(binary.LittleEndian.Uint16(data[6:8])),
		Gamma:      float64(data[8]) / 10.0,
	}, nil
}
