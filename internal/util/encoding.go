// Package util holds small cross-cutting helpers with no home of their
// own in the domain packages.
package util

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// legacyEncodings lists the non-UTF-8 encodings seen in the wild on device
// CLI output (router hostnames, interface descriptions, banners set by a
// non-English-speaking operator), tried in order until one decodes cleanly.
var legacyEncodings = []encoding.Encoding{
	simplifiedchinese.GB18030,
	simplifiedchinese.GBK,
	simplifiedchinese.HZGB2312,
	traditionalchinese.Big5,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// NormalizeDeviceOutput returns b re-encoded as UTF-8 if it is not already
// valid UTF-8, trying legacyEncodings in turn; it returns b unchanged if it
// is already valid UTF-8 or if none of legacyEncodings decodes it cleanly
// (the driver still gets the bytes either way, just not retranscoded).
func NormalizeDeviceOutput(b []byte) []byte {
	if len(b) == 0 || utf8.Valid(b) {
		return b
	}
	for _, enc := range legacyEncodings {
		if decoded, ok := decodeWith(enc, b); ok {
			return decoded
		}
	}
	return b
}

func decodeWith(enc encoding.Encoding, b []byte) ([]byte, bool) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), enc.NewDecoder()))
	if err != nil || !utf8.Valid(decoded) {
		return nil, false
	}
	return decoded, true
}
