package contenttype

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const sniffLength = 512

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// Detect sniffs a short prefix of the body. JSON object/array openers and `<` are
// recognised first; UTF byte order marks mark the body as text. Anything else is handed
// to mimetype. Inconclusive input yields application/octet-stream and
// ErrContentTypeUnresolved.
func Detect(body []byte) (ContentType, error) {
	unknown := ContentType{MainType: "application", SubType: "octet-stream"}
	if len(body) == 0 {
		return unknown, errors.Wrap(ErrContentTypeUnresolved, "empty body")
	}

	prefix := body
	if len(prefix) > sniffLength {
		prefix = prefix[:sniffLength]
	}

	hasBOM := false
	for _, bom := range [][]byte{bomUTF8, bomUTF16BE, bomUTF16LE} {
		if bytes.HasPrefix(prefix, bom) {
			prefix = prefix[len(bom):]
			hasBOM = true
			break
		}
	}

	trimmed := bytes.TrimLeft(prefix, " \t\r\n")
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '{', '[':
			return MustParse(JSON), nil
		case '<':
			lower := bytes.ToLower(trimmed)
			if bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html")) {
				return MustParse(HTML), nil
			}
			return MustParse(XML), nil
		}
	}
	if hasBOM {
		return MustParse(Text), nil
	}

	detected := mimetype.Detect(body)
	if detected == nil || detected.Is(OctetStream) {
		log.Debugf("unable to sniff content type from %d bytes", len(body))
		return unknown, errors.WithStack(ErrContentTypeUnresolved)
	}
	ct, err := Parse(detected.String())
	if err != nil {
		return unknown, errors.Wrap(ErrContentTypeUnresolved, err.Error())
	}
	return ct, nil
}
