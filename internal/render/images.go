package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultMaxImageBytes caps a single logo or signature image
const DefaultMaxImageBytes = 5 << 20

var (
	ErrImageTooLarge     = errors.New("image exceeds size limit")
	ErrImageSource       = errors.New("unsupported image source")
	ErrLocalFilesBlocked = errors.New("local image files are not allowed")
)

// Image is a decoded image reference ready to be embedded
type Image struct {
	Data   []byte
	Type   string // PNG, JPEG or GIF
	Width  int
	Height int
}

// DataURI returns the image as an inline data: URI
func (img *Image) DataURI() string {
	return "data:image/" + strings.ToLower(img.Type) + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ImageLoader fetches logo and signature images referenced by a document.
// References may be data: URIs, http(s) URLs or, when enabled, local paths.
type ImageLoader struct {
	client     *http.Client
	maxBytes   int64
	allowFiles bool
}

// ImageOption configures an ImageLoader
type ImageOption func(*ImageLoader)

// WithHTTPClient sets the client used for http(s) image URLs
func WithHTTPClient(c *http.Client) ImageOption {
	return func(l *ImageLoader) {
		l.client = c
	}
}

// WithMaxImageBytes sets the largest accepted image
func WithMaxImageBytes(n int64) ImageOption {
	return func(l *ImageLoader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithLocalFiles allows file paths and file:// URLs as image references
func WithLocalFiles(allow bool) ImageOption {
	return func(l *ImageLoader) {
		l.allowFiles = allow
	}
}

// NewImageLoader creates a loader with a 10 second HTTP timeout
func NewImageLoader(opts ...ImageOption) *ImageLoader {
	l := &ImageLoader{
		client:   &http.Client{Timeout: 10 * time.Second},
		maxBytes: DefaultMaxImageBytes,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load resolves ref and decodes the image header to find its type
func (l *ImageLoader) Load(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrImageSource)
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "data:"):
		data, err = l.decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err = l.fetch(ctx, ref)
	default:
		data, err = l.readFile(ref)
	}
	if err != nil {
		return nil, err
	}

	return decodeImage(data)
}

func decodeImage(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}
	return &Image{
		Data:   data,
		Type:   strings.ToUpper(format),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func (l *ImageLoader) decodeDataURI(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URI", ErrImageSource)
	}
	if int64(len(payload)) > l.maxBytes*4/3+4 {
		return nil, ErrImageTooLarge
	}

	if !strings.HasSuffix(header, ";base64") {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape data URI: %w", err)
		}
		return []byte(decoded), nil
	}

	payload = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}

func (l *ImageLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}
	return l.readLimited(resp.Body)
}

func (l *ImageLoader) readFile(ref string) ([]byte, error) {
	if !l.allowFiles {
		return nil, ErrLocalFilesBlocked
	}
	path := ref
	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImageSource, err)
		}
		path = u.Path
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *ImageLoader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}
