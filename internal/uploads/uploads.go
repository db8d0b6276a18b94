package uploads

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"mime"
	"strings"
)

var (
	ErrMalformedDataURI = errors.New("malformed data URI")
)

// File is a decoded upload ready for storage.
type File struct {
	Name string
	Data []byte
}

// FromDataURI decodes a "data:<mime>;base64,<payload>" string into a File
// with a random hex name carrying the mime-derived extension.
func FromDataURI(uri string) (*File, error) {
	head, payload, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, ErrMalformedDataURI
	}
	_, mimeType, ok := strings.Cut(head, ":")
	if !ok || mimeType == "" {
		return nil, ErrMalformedDataURI
	}

	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return nil, ErrMalformedDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// tolerate stripped padding, clients are sloppy about it
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, ErrMalformedDataURI
		}
	}

	name := make([]byte, 16)
	if _, err := rand.Read(name); err != nil {
		return nil, err
	}

	return &File{
		Name: hex.EncodeToString(name) + exts[0],
		Data: data,
	}, nil
}
