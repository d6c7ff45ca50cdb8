package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"djvu-viewer/internal/djvu"
)

func TestExtract(t *testing.T) {
	w, err := newFakeExtractor(twoPageRunner()).Extract(context.Background(), "/books/a.djvu")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	xml, ok := w.XML()
	if !ok {
		t.Fatalf("Extract() kind = %v, want xml", w.Kind())
	}

	doc, err := djvu.Parse(xml)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if info := djvu.ExtractDimensions(doc.Meta); info.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", info.PageCount)
	}
	text, err := djvu.PageText(doc.Text, 2)
	if err != nil {
		t.Fatalf("PageText() error = %v", err)
	}
	if text != `café "quoted"` {
		t.Errorf("page 2 text = %q", text)
	}
}

func TestExtractWithoutText(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ExtractorConfig
		runner *fakeRunner
	}{
		{
			name:   "djvutxt not configured",
			cfg:    ExtractorConfig{DjvudumpPath: "djvudump"},
			runner: twoPageRunner(),
		},
		{
			name: "djvutxt fails",
			cfg:  ExtractorConfig{DjvudumpPath: "djvudump", DjvutxtPath: "djvutxt"},
			runner: &fakeRunner{
				output: map[string]string{"djvudump": twoPageDump},
				errs:   map[string]error{"djvutxt": errors.New("exit status 1")},
			},
		},
		{
			name:   "no text layer",
			cfg:    ExtractorConfig{DjvudumpPath: "djvudump", DjvutxtPath: "djvutxt"},
			runner: &fakeRunner{output: map[string]string{"djvudump": twoPageDump, "djvutxt": "\n"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewExtractor(tt.cfg).WithRunner(tt.runner.run).Extract(context.Background(), "a.djvu")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			xml, ok := w.XML()
			if !ok {
				t.Fatalf("Extract() kind = %v, want xml", w.Kind())
			}
			if strings.Contains(xml, djvu.TagCombined) {
				t.Error("geometry-only metadata should not be wrapped in a combined root")
			}
		})
	}
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ExtractorConfig
		runner  *fakeRunner
		wantMsg string
	}{
		{
			name:    "djvudump not configured",
			cfg:     ExtractorConfig{},
			runner:  &fakeRunner{},
			wantMsg: "not configured",
		},
		{
			name:    "djvudump fails",
			cfg:     ExtractorConfig{DjvudumpPath: "djvudump"},
			runner:  &fakeRunner{errs: map[string]error{"djvudump": errors.New("corrupt file")}},
			wantMsg: "corrupt file",
		},
		{
			name:    "indirect document",
			cfg:     ExtractorConfig{DjvudumpPath: "djvudump"},
			runner:  &fakeRunner{output: map[string]string{"djvudump": "  FORM:DJVM [10]\n    DIRM [5]   Document directory (indirect, 2 files 2 pages)\n"}},
			wantMsg: "indirect",
		},
		{
			name:    "garbage output",
			cfg:     ExtractorConfig{DjvudumpPath: "djvudump"},
			runner:  &fakeRunner{output: map[string]string{"djvudump": "hello\n"}},
			wantMsg: "no pages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewExtractor(tt.cfg).WithRunner(tt.runner.run).Extract(context.Background(), "a.djvu")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			msg, ok := w.Failure()
			if !ok {
				t.Fatalf("Extract() kind = %v, want error", w.Kind())
			}
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("failure message = %q, want it to contain %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{errs: map[string]error{"djvudump": errors.New("signal: killed")}}
	_, err := newFakeExtractor(runner).Extract(ctx, "a.djvu")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}

func TestRunToolTimeout(t *testing.T) {
	e := NewExtractor(ExtractorConfig{DjvudumpPath: "djvudump", Timeout: 10 * time.Millisecond})
	e.WithRunner(func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	w, err := e.Extract(context.Background(), "a.djvu")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if _, ok := w.Failure(); !ok {
		t.Error("a tool timeout should be recorded as a failed extraction")
	}
}

func TestNewExtractorDefaultTimeout(t *testing.T) {
	if e := NewExtractor(ExtractorConfig{}); e.cfg.Timeout != defaultShellTimeout {
		t.Errorf("Timeout = %v, want %v", e.cfg.Timeout, defaultShellTimeout)
	}
}

func TestLookupTool(t *testing.T) {
	if got := LookupTool(""); got != "" {
		t.Errorf("LookupTool(\"\") = %q", got)
	}
	if got := LookupTool("definitely-not-a-real-djvu-tool"); got != "" {
		t.Errorf("LookupTool(missing) = %q, want empty", got)
	}
}
