// Package encoding turns raw file bytes into the UTF-8 text the classifiers
// read, and tells binary files apart from source files.
package encoding

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

const (
	// sniffLen is the number of bytes used by http.DetectContentType.
	sniffLen = 512
	// checkLen is the prefix inspected for null bytes.
	checkLen = 1024
	// nullThreshold is the share of null bytes above which content is binary.
	nullThreshold = 0.15
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Text-based application/* MIME types accepted by IsBinary.
var knownTextMIMETypes = map[string]bool{
	"application/json":         true,
	"application/xml":          true,
	"application/javascript":   true,
	"application/ecmascript":   true,
	"application/x-php":        true,
	"application/x-python":     true,
	"application/octet-stream": true, // decided by the null-byte check
}

// Decoder converts file content to UTF-8 and detects binary files.
type Decoder interface {
	// Decode returns the content as UTF-8 text with any byte order mark
	// removed, plus the name of the encoding it was read as. On a conversion
	// error the raw bytes are returned as text together with the error.
	Decode(content []byte) (text string, encodingName string, err error)
	// IsBinary reports whether content looks like binary data.
	IsBinary(content []byte) bool
}

type charsetDecoder struct {
	defaultEncoding string
}

// NewCharsetDecoder returns a Decoder backed by golang.org/x/net/html/charset.
// defaultEncoding is used for content that is not valid UTF-8 and carries no
// byte order mark; when empty, charset's own guess is kept.
func NewCharsetDecoder(defaultEncoding string) Decoder {
	return &charsetDecoder{defaultEncoding: defaultEncoding}
}

// Decode implements Decoder.
func (d *charsetDecoder) Decode(content []byte) (string, string, error) {
	if bytes.HasPrefix(content, bomUTF8) {
		content = content[len(bomUTF8):]
	}
	if utf8.Valid(content) {
		return string(content), "utf-8", nil
	}

	enc, name, certain := charset.DetermineEncoding(content, "text/plain")
	if !certain && d.defaultEncoding != "" {
		if fallback, fallbackName := charset.Lookup(d.defaultEncoding); fallback != nil {
			enc, name = fallback, fallbackName
		}
	}
	if name == "" {
		name = "unknown"
	}
	if enc == nil {
		return string(content), name, nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return string(content), name, fmt.Errorf("failed to convert from '%s': %w", name, err)
	}
	return strings.TrimPrefix(string(out), "\uFEFF"), name, nil
}

// IsBinary implements Decoder. Content with a UTF-16 byte order mark is text;
// otherwise the MIME sniff and the null-byte share decide.
func (d *charsetDecoder) IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	if bytes.HasPrefix(content, bomUTF16LE) || bytes.HasPrefix(content, bomUTF16BE) {
		return false
	}

	contentType := http.DetectContentType(content[:min(len(content), sniffLen)])
	if !isMIMETextBased(contentType) {
		return true
	}

	limit := min(len(content), checkLen)
	nullCount := bytes.Count(content[:limit], []byte{0x00})
	return float64(nullCount)/float64(limit) > nullThreshold
}

func isMIMETextBased(contentType string) bool {
	mimeType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	if strings.HasSuffix(mimeType, "+xml") || strings.HasSuffix(mimeType, "+json") {
		return true
	}
	return knownTextMIMETypes[mimeType]
}
