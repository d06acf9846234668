package gate

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

var errInvalidText = errors.New("request body is not valid UTF-8, UTF-16 or UTF-32 text")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
)

// jsonText converts a raw request body into UTF-8 JSON text. The encoding is
// detected from a byte order mark or, failing that, from the pattern of zero
// bytes in the first four octets (JSON text always starts with two ASCII
// characters). Anything else must be valid UTF-8.
func jsonText(body []byte) ([]byte, error) {
	var enc encoding.Encoding
	switch {
	// UTF-32 LE's BOM starts with UTF-16 LE's, so test it first.
	case bytes.HasPrefix(body, bomUTF32BE), bytes.HasPrefix(body, bomUTF32LE):
		enc = utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	case bytes.HasPrefix(body, bomUTF16BE), bytes.HasPrefix(body, bomUTF16LE):
		enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(body, bomUTF8):
		body = body[len(bomUTF8):]
	case len(body) >= 4 && body[0] == 0:
		if body[1] != 0 {
			enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		} else {
			enc = utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
		}
	case len(body) >= 4 && body[1] == 0:
		if body[2] != 0 || body[3] != 0 {
			enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		} else {
			enc = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
		}
	case len(body) == 2 && body[0] == 0:
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case len(body) == 2 && body[1] == 0:
		enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	}

	if enc == nil {
		if !utf8.Valid(body) {
			return nil, errInvalidText
		}
		return body, nil
	}

	text, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, errInvalidText
	}
	return text, nil
}
