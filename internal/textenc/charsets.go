package textenc

import (
	"errors"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

var errInvalidUTF8 = errors.New("invalid utf-8 sequence")

// charsets maps detector labels to decoders. A nil value selects strict UTF-8.
var charsets = map[string]encoding.Encoding{
	"utf-8":        nil,
	"ascii":        nil,
	"us-ascii":     nil,
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"utf-32le":     utf32.UTF32(utf32.LittleEndian, utf32.UseBOM),
	"utf-32be":     utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-5":   charmap.ISO8859_5,
	"iso-8859-6":   charmap.ISO8859_6,
	"iso-8859-7":   charmap.ISO8859_7,
	"iso-8859-8":   charmap.ISO8859_8,
	"iso-8859-8-i": charmap.ISO8859_8I,
	"iso-8859-9":   charmap.ISO8859_9,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"windows-1253": charmap.Windows1253,
	"windows-1254": charmap.Windows1254,
	"windows-1255": charmap.Windows1255,
	"windows-1256": charmap.Windows1256,
	"windows-1257": charmap.Windows1257,
	"windows-1258": charmap.Windows1258,
	"koi8-r":       charmap.KOI8R,
	"shift_jis":    japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"iso-2022-jp":  japanese.ISO2022JP,
	"euc-kr":       korean.EUCKR,
	"gb18030":      simplifiedchinese.GB18030,
	"gb-18030":     simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
}

// lookupEncoding resolves a lowercased label. Unknown labels fall back to UTF-8.
func lookupEncoding(label string) encoding.Encoding {
	if enc, ok := charsets[label]; ok {
		return enc
	}
	return nil
}

// supported reports whether label has a dedicated decoder; other labels are
// decoded as strict UTF-8.
func supported(label string) bool {
	_, ok := charsets[label]
	return ok
}
