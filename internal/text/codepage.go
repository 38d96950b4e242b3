package text

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultCodepage is used when a drawing declares no usable $DWGCODEPAGE.
const DefaultCodepage = "ANSI_1252"

// codepages maps $DWGCODEPAGE values to single-byte charsets
var codepages = map[string]*charmap.Charmap{
	"ANSI_874":  charmap.Windows874,
	"ANSI_1250": charmap.Windows1250,
	"ANSI_1251": charmap.Windows1251,
	"ANSI_1252": charmap.Windows1252,
	"ANSI_1253": charmap.Windows1253,
	"ANSI_1254": charmap.Windows1254,
	"ANSI_1255": charmap.Windows1255,
	"ANSI_1256": charmap.Windows1256,
	"ANSI_1257": charmap.Windows1257,
	"ANSI_1258": charmap.Windows1258,
	"DOS437":    charmap.CodePage437,
	"DOS850":    charmap.CodePage850,
	"DOS852":    charmap.CodePage852,
	"DOS866":    charmap.CodePage866,
	"ISO8859_1": charmap.ISO8859_1,
	"ISO8859_2": charmap.ISO8859_2,
}

// isUTF8 reports whether a codepage name denotes UTF-8 text
func isUTF8(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "UTF8", "UTF-8", "UTF_8":
		return true
	}
	return false
}

// lookupCharmap returns the charset for a $DWGCODEPAGE value
func lookupCharmap(name string) (*charmap.Charmap, bool) {
	cm, ok := codepages[strings.ToUpper(strings.TrimSpace(name))]
	return cm, ok
}

// newDecoder returns a decoder for name, or nil for UTF-8 input. ok is false
// when name is not a known codepage.
func newDecoder(name string) (dec *encoding.Decoder, ok bool) {
	if isUTF8(name) {
		return nil, true
	}
	cm, ok := lookupCharmap(name)
	if !ok {
		return nil, false
	}
	return cm.NewDecoder(), true
}

// newEncoder returns an encoder for name that replaces unsupported runes, or
// nil for UTF-8 output.
func newEncoder(name string) *encoding.Encoder {
	if isUTF8(name) {
		return nil
	}
	cm, ok := lookupCharmap(name)
	if !ok {
		cm = charmap.Windows1252
	}
	return encoding.ReplaceUnsupported(cm.NewEncoder())
}

// utf8Version reports whether an $ACADVER value denotes a release whose DXF
// text is always UTF-8 (AutoCAD 2007 and later).
func utf8Version(acadver string) bool {
	v := strings.ToUpper(strings.TrimSpace(acadver))
	return strings.HasPrefix(v, "AC") && v >= "AC1021"
}
