package djvu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// infoChunk builds an INFO chunk: width/height big-endian, version bytes,
// resolution little-endian, gamma*10, rotation flags.
func infoChunk(width, height, dpi int, gamma byte) []byte {
	body := make([]byte, 10)
	binary.BigEndian.PutUint16(body[0:2], uint16(width))
	binary.BigEndian.PutUint16(body[2:4], uint16(height))
	body[4] = 24 // minor
	body[5] = 0  // major
	binary.LittleEndian.PutUint16(body[6:8], uint16(dpi))
	body[8] = gamma
	body[9] = 1
	return chunk("INFO", body)
}

func chunk(id string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	_ = binary.Write(&b, binary.BigEndian, uint32(len(body)))
	b.Write(body)
	if len(body)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func form(subtype string, children ...[]byte) []byte {
	body := []byte(subtype)
	for _, c := range children {
		body = append(body, c...)
	}
	return chunk("FORM", body)
}

func djvuFile(f []byte) []byte {
	return append([]byte("AT&T"), f...)
}

func TestReadImageSizeSinglePage(t *testing.T) {
	data := djvuFile(form("DJVU", infoChunk(2550, 3300, 300, 22), chunk("Sjbz", []byte{1, 2, 3})))

	info, err := ReadImageSize(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadImageSize() error: %v", err)
	}
	want := ImageInfo{Width: 2550, Height: 3300, Version: "0.24", Resolution: 300, Gamma: 2.2}
	if info != want {
		t.Errorf("ReadImageSize() = %+v, want %+v", info, want)
	}
}

func TestReadImageSizeMultiPage(t *testing.T) {
	data := djvuFile(form("DJVM",
		chunk("DIRM", []byte{0x81, 0, 2, 0, 0}),
		form("DJVI", chunk("ANTz", []byte{9, 9, 9})),
		form("DJVU", infoChunk(1275, 1650, 150, 22)),
		form("DJVU", infoChunk(10, 10, 72, 22)),
	))

	info, err := ReadImageSize(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadImageSize() error: %v", err)
	}
	if info.Width != 1275 || info.Height != 1650 || info.Resolution != 150 {
		t.Errorf("ReadImageSize() = %+v, want first page 1275x1650 @150dpi", info)
	}
}

func TestReadImageSizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "too short", data: []byte("AT&TFO"), wantErr: ErrNotDjVu},
		{name: "wrong magic", data: []byte("\x89PNG\r\n\x1a\n0000000000"), wantErr: ErrNotDjVu},
		{name: "unknown form", data: djvuFile(form("AIFF", chunk("COMM", []byte{1, 2}))), wantErr: ErrNotDjVu},
		{name: "page without INFO", data: djvuFile(form("DJVU", chunk("Sjbz", []byte{1, 2}))), wantErr: ErrMissingData},
		{name: "short INFO", data: djvuFile(form("DJVU", chunk("INFO", []byte{1, 2, 3, 4}))), wantErr: ErrMissingData},
		{name: "bundle without pages", data: djvuFile(form("DJVM", chunk("DIRM", []byte{1, 2}))), wantErr: ErrMissingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadImageSize(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadImageSize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
