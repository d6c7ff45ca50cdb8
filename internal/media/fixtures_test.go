package media

import (
	"context"
	"errors"
	"sync/atomic"
)

const twoPageDump = `  FORM:DJVM [83913] 
    DIRM [53]         Document directory (bundled, 2 files 2 pages)
    FORM:DJVU [40163] {p0001.djvu} [P1]
      INFO [10]         DjVu 2550x3300, v24, 300 dpi, gamma=2.2
      Sjbz [11387]      JB2 bilevel data
    FORM:DJVU [43563] {p0002.djvu} [P2]
      INFO [10]         DjVu 1275x1650, v24, 150 dpi, gamma=2.2
      Sjbz [12001]      JB2 bilevel data
`

const twoPageText = `(page 0 0 2550 3300 "Chapter One\nIt was a dark night.")
(page 0 0 1275 1650 "caf\303\251 \"quoted\"")
`

// fakeRunner answers tool invocations from canned output.
type fakeRunner struct {
	calls  atomic.Int32
	output map[string]string
	errs   map[string]error
}

func (r *fakeRunner) run(_ context.Context, name string, _ ...string) ([]byte, error) {
	r.calls.Add(1)
	if err := r.errs[name]; err != nil {
		return nil, err
	}
	out, ok := r.output[name]
	if !ok {
		return nil, errors.New(name + ": not installed")
	}
	return []byte(out), nil
}

func newFakeExtractor(r *fakeRunner) *Extractor {
	return NewExtractor(ExtractorConfig{DjvudumpPath: "djvudump", DjvutxtPath: "djvutxt"}).WithRunner(r.run)
}

func twoPageRunner() *fakeRunner {
	return &fakeRunner{output: map[string]string{"djvudump": twoPageDump, "djvutxt": twoPageText}}
}
