package djvu

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const dumpXMLHeader = `<?xml version="1.0" ?>
<!DOCTYPE DjVuXML PUBLIC "-//W3C//DTD DjVuXML 1.1//EN" "pubtext/DjVuXML-s.dtd">
<DjVuXML>
<HEAD></HEAD>
<BODY>
`

var (
	formDjvuLine = regexp.MustCompile(`^ *FORM:DJVU`)
	formDjvmLine = regexp.MustCompile(`^ *FORM:DJVM`)
	indirectDirm = regexp.MustCompile(`^ *DIRM.*indirect`)
	infoLine     = regexp.MustCompile(`^ *INFO *\[\d*\] *DjVu *(\d+)x(\d+), *\w*, *(\d+) *dpi, *gamma=([0-9.-]+)`)

	// djvutxt --detail=page prints one s-expression per page:
	//   (page 0 0 2550 3300 "escaped text")
	// or () for a page without text.
	pageTextExpr  = regexp.MustCompile(`(?s)\(page\s[\d-]*\s[\d-]*\s[\d-]*\s[\d-]*\s*"((?:\\.|[^"\\]+)*?)"\s*\)|\(\s*()\)`)
	textCtrlChars = strings.NewReplacer("\v", "", "\x1d", "", "\x1f", "")

	// Attribute values are whitespace-normalized by XML parsers unless the
	// characters are written as references.
	attrWhitespace = strings.NewReplacer("\n", "&#10;", "\r", "&#13;", "\t", "&#9;")
)

// dumpLines iterates over the non-empty lines of djvudump output.
type dumpLines struct {
	lines []string
	pos   int
}

func newDumpLines(dump string) *dumpLines {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(dump, "\r", ""), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return &dumpLines{lines: lines}
}

func (d *dumpLines) next() (string, bool) {
	if d.pos >= len(d.lines) {
		return "", false
	}
	line := d.lines[d.pos]
	d.pos++
	return line, true
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// ConvertDump converts djvudump output into a DjVuXML document with one
// OBJECT per page. Single-page files start with FORM:DJVU; bundled multi-page
// files start with FORM:DJVM and list one FORM:DJVU per page.
func ConvertDump(dump string) (string, error) {
	var b strings.Builder
	b.WriteString(dumpXMLHeader)

	lines := newDumpLines(dump)
	first, ok := lines.next()
	if !ok {
		return "", ErrNoPages
	}

	pages := 0
	switch {
	case formDjvuLine.MatchString(first):
		if err := convertPage(lines, first, &b); err != nil {
			return "", err
		}
		pages++
	case formDjvmLine.MatchString(first):
		parent := indentOf(first)
		for line, ok := lines.next(); ok; line, ok = lines.next() {
			if indentOf(line) <= parent {
				break
			}
			if indirectDirm.MatchString(line) {
				return "", ErrIndirectDocument
			}
			if formDjvuLine.MatchString(line) {
				if err := convertPage(lines, line, &b); err != nil {
					return "", err
				}
				pages++
			}
		}
	}
	if pages == 0 {
		return "", ErrNoPages
	}

	b.WriteString("</BODY>\n</DjVuXML>\n")
	return b.String(), nil
}

// convertPage consumes the chunks of one FORM:DJVU up to its INFO line and
// writes the page's OBJECT element.
func convertPage(lines *dumpLines, form string, b *strings.Builder) error {
	parent := indentOf(form)
	for line, ok := lines.next(); ok; line, ok = lines.next() {
		if indentOf(line) <= parent {
			break
		}
		m := infoLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fmt.Fprintf(b, `<OBJECT height="%s" width="%s">`, m[2], m[1])
		fmt.Fprintf(b, `<PARAM name="DPI" value="%s"/>`, m[3])
		fmt.Fprintf(b, `<PARAM name="GAMMA" value="%s"/>`, m[4])
		b.WriteString("</OBJECT>\n")
		return nil
	}
	return fmt.Errorf("%w: page without INFO chunk", ErrNoPages)
}

// ConvertText converts djvutxt --detail=page output into a DjVuTxt document
// with one PAGE element per page.
func ConvertText(txt string) string {
	txt = textCtrlChars.Replace(txt)
	txt = pageTextExpr.ReplaceAllStringFunc(txt, func(match string) string {
		sub := pageTextExpr.FindStringSubmatch(match)
		return `<PAGE value="` + escapePageText(unescapeC(sub[1])) + `" />`
	})
	return "<DjVuTxt>\n<HEAD></HEAD>\n<BODY>\n" + txt + "</BODY>\n</DjVuTxt>\n"
}

// CombineXML wraps geometry and text documents into one mw-djvu document.
// Without text the geometry document is returned unchanged.
func CombineXML(meta, text string) string {
	if text == "" {
		return meta
	}
	return strings.Replace(meta, "<"+TagMeta+">", "<"+TagCombined+"><"+TagMeta+">", 1) +
		text + "</" + TagCombined + ">"
}

// escapePageText makes unescaped OCR text safe for an XML attribute. Invalid
// UTF-8 and characters XML 1.0 cannot carry are dropped.
func escapePageText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r < 0x20, r == '\uFFFD', r == '\uFFFE', r == '\uFFFF':
			return -1
		}
		return r
	}, s)
	return attrWhitespace.Replace(html.EscapeString(s))
}

// unescapeC resolves the C-style escapes djvutxt uses for quotes, control
// characters and non-ASCII bytes (octal).
func unescapeC(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'v':
			out = append(out, '\v')
		case 'x':
			v, n := 0, 0
			for n < 2 && i+1 < len(s) && isHex(s[i+1]) {
				i++
				v = v*16 + hexVal(s[i])
				n++
			}
			if n == 0 {
				out = append(out, 'x')
			} else {
				out = append(out, byte(v))
			}
		default:
			if e >= '0' && e <= '7' {
				v := int(e - '0')
				for n := 1; n < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
					i++
					v = v*8 + int(s[i]-'0')
				}
				out = append(out, byte(v))
			} else {
				out = append(out, e)
			}
		}
	}
	return string(out)
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
