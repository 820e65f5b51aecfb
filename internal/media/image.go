package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	_ "golang.org/x/image/webp"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
	MIMEWEBP = "image/webp"

	// DefaultMIMEType is assumed when a data URI does not carry a readable type.
	DefaultMIMEType = MIMEJPEG
)

var (
	ErrEmptyImage        = errors.New("media: image data cannot be empty")
	ErrUnsupportedFormat = errors.New("media: unsupported image format")
	ErrInvalidDataURI    = errors.New("media: invalid data uri")

	dataURIMIME = regexp.MustCompile(`^data:(image/.+?);`)
)

// Image is an encoded still image plus its MIME type. Values are immutable
// once constructed; accessors hand out copies of the payload.
type Image struct {
	data     []byte
	mimeType string
}

// New wraps already-encoded bytes. An empty mimeType is sniffed from the data.
func New(data []byte, mimeType string) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if mimeType == "" {
		sniffed, err := DetectMIMEType(data)
		if err != nil {
			return nil, err
		}
		mimeType = sniffed
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Image{data: buf, mimeType: mimeType}, nil
}

// FromBytes builds an Image from raw file bytes, rejecting anything that is
// not a decodable jpeg, png, gif or webp.
func FromBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	mimeType, err := DetectMIMEType(data)
	if err != nil {
		return nil, err
	}
	return New(data, mimeType)
}

// ParseDataURI reads a "data:<mime>;base64,<payload>" blob.
func ParseDataURI(uri string) (*Image, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "data:") {
		return nil, ErrInvalidDataURI
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, ErrInvalidDataURI
	}
	header, payload := uri[:comma], uri[comma+1:]
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	mimeType := DefaultMIMEType
	if m := dataURIMIME.FindStringSubmatch(header + ";"); len(m) == 2 {
		mimeType = m[1]
	}
	return New(data, mimeType)
}

// DetectMIMEType sniffs the encoding of data using the registered decoders.
func DetectMIMEType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	switch format {
	case "jpeg":
		return MIMEJPEG, nil
	case "png":
		return MIMEPNG, nil
	case "gif":
		return MIMEGIF, nil
	case "webp":
		return MIMEWEBP, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func (i *Image) Data() []byte {
	out := make([]byte, len(i.data))
	copy(out, i.data)
	return out
}

func (i *Image) MIMEType() string {
	return i.mimeType
}

func (i *Image) Len() int {
	return len(i.data)
}

func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.data)
}

// DataURI renders the image as a self-describing data blob.
func (i *Image) DataURI() string {
	return "data:" + i.mimeType + ";base64," + i.Base64()
}

// Decode returns the pixel data.
func (i *Image) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(i.data))
	if err != nil {
		return nil, fmt.Errorf("media: decode image: %w", err)
	}
	return img, nil
}

// Extension returns a file extension suitable for saving the image.
func (i *Image) Extension() string {
	switch i.mimeType {
	case MIMEPNG:
		return ".png"
	case MIMEGIF:
		return ".gif"
	case MIMEWEBP:
		return ".webp"
	default:
		return ".jpg"
	}
}
