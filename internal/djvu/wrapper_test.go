package djvu

import (
	"errors"
	"testing"
)

func TestWrapperEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		wrapper Wrapper
		kind    WrapperKind
		payload string
	}{
		{
			name:    "xml variant",
			wrapper: XMLWrapper("<mw-djvu></mw-djvu>"),
			kind:    WrapperXML,
			payload: "<mw-djvu></mw-djvu>",
		},
		{
			name:    "error variant",
			wrapper: ErrorWrapper("djvudump failed"),
			kind:    WrapperError,
			payload: "djvudump failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.wrapper.Encode()
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}

			decoded, err := DecodeWrapper(encoded)
			if err != nil {
				t.Fatalf("DecodeWrapper(%q) error: %v", encoded, err)
			}
			if decoded.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", decoded.Kind(), tt.kind)
			}
			if decoded != tt.wrapper {
				t.Errorf("decoded wrapper = %+v, want %+v", decoded, tt.wrapper)
			}
		})
	}
}

func TestEncodeZeroWrapper(t *testing.T) {
	encoded, err := Wrapper{}.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if encoded != EmptyWrapper {
		t.Errorf("Encode() = %q, want %q", encoded, EmptyWrapper)
	}
}

func TestDecodeWrapper(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		kind    WrapperKind
		wantErr error
	}{
		{name: "error wins over xml", blob: `{"xml":"<a/>","error":"boom"}`, kind: WrapperError},
		{name: "xml only", blob: `{"xml":"<a/>"}`, kind: WrapperXML},
		{name: "neither key", blob: `{"foo":"bar"}`, wantErr: ErrCorruptMetadata},
		{name: "empty object", blob: `{}`, wantErr: ErrCorruptMetadata},
		{name: "xml not a string", blob: `{"xml":42}`, wantErr: ErrCorruptMetadata},
		{name: "raw xml", blob: `<DjVuXML/>`, wantErr: errNotWrapper},
		{name: "json array", blob: `["xml"]`, wantErr: errNotWrapper},
		{name: "json null", blob: `null`, wantErr: errNotWrapper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := DecodeWrapper(tt.blob)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeWrapper() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeWrapper() unexpected error: %v", err)
			}
			if w.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", w.Kind(), tt.kind)
			}
		})
	}
}

func TestIsMetadataValid(t *testing.T) {
	errorBlob, _ := ErrorWrapper("x").Encode()
	xmlBlob, _ := XMLWrapper("<mw-djvu><DjVuXML></DjVuXML></mw-djvu>").Encode()

	tests := []struct {
		name string
		blob string
		want bool
	}{
		{"empty string", "", false},
		{"canonical empty wrapper", EmptyWrapper, false},
		{"stored extraction failure", errorBlob, false},
		{"xml wrapper", xmlBlob, true},
		{"legacy xml", metaXML, true},
		{"raw xml without declaration", "<DjVuXML/>", true},
		{"corrupt wrapper is left to Parse", `{"foo":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMetadataValid(tt.blob); got != tt.want {
				t.Errorf("IsMetadataValid(%q) = %v, want %v", tt.blob, got, tt.want)
			}
		})
	}
}

func TestWrapperKindString(t *testing.T) {
	tests := []struct {
		kind WrapperKind
		want string
	}{
		{WrapperXML, "xml"},
		{WrapperError, "error"},
		{WrapperKind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("WrapperKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
