package upload

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
)

// MatchesSignature checks the magic number for mime and confirms it with
// content sniffing.
func MatchesSignature(mime string, data []byte) bool {
	var ok bool
	switch mime {
	case MimeJPEG:
		ok = bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF})
	case MimePNG:
		ok = bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	case MimeGIF:
		ok = bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))
	case MimeWEBP:
		ok = len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
	}
	if !ok {
		return false
	}
	return detectedAs(mimetype.Detect(data), mime)
}

// detectedAs reports whether m or one of its parents is mime, so that
// subtypes such as animated PNG count as their base format.
func detectedAs(m *mimetype.MIME, mime string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}
