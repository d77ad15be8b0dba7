package partsreader

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/mazrean/partsreader/internal/mpstream"
)

const boundaryMarker = "boundary="

type PartsReader struct {
	boundary       []byte
	streamHandlers map[string]streamListener
	textHandlers   map[string]textListener
	readerConfig
}

// NewPartsReader creates a PartsReader for a body whose Content-Type is contentType.
// The boundary is everything after the first "boundary=" in contentType, taken verbatim.
func NewPartsReader(contentType string, options ...ReaderOption) (*PartsReader, error) {
	i := strings.Index(contentType, boundaryMarker)
	if i < 0 {
		return nil, ErrMissingBoundary
	}
	boundary := contentType[i+len(boundaryMarker):]
	if boundary == "" {
		return nil, ErrMissingBoundary
	}

	c := readerConfig{
		logger:        zap.NewNop(),
		textEncoding:  unicode.UTF8,
		maxHeaderSize: mpstream.DefaultMaxHeaderSize,
		legacyFilter:  true,
	}
	for _, opt := range options {
		opt(&c)
	}

	return &PartsReader{
		boundary:       []byte(boundary),
		streamHandlers: make(map[string]streamListener),
		textHandlers:   make(map[string]textListener),
		readerConfig:   c,
	}, nil
}

type readerConfig struct {
	logger        *zap.Logger
	userAgent     string
	hasUserAgent  bool
	textEncoding  encoding.Encoding
	maxHeaderSize int
	legacyFilter  bool
}

type ReaderOption func(*readerConfig)

// WithUserAgent sets the User-Agent of the request the body belongs to.
// default: none
func WithUserAgent(userAgent string) ReaderOption {
	return func(c *readerConfig) {
		c.userAgent = userAgent
		c.hasUserAgent = true
	}
}

// WithLogger sets the logger used to trace dispatched parts.
// default: zap.NewNop()
func WithLogger(logger *zap.Logger) ReaderOption {
	return func(c *readerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTextEncoding sets the encoding text parts are decoded from.
// default: UTF-8
func WithTextEncoding(enc encoding.Encoding) ReaderOption {
	return func(c *readerConfig) {
		if enc != nil {
			c.textEncoding = enc
		}
	}
}

// WithMaxHeaderSize sets the maximum size of the header block of a single part.
// Non-positive sizes are ignored.
// default: 10KB
func WithMaxHeaderSize(size int) ReaderOption {
	return func(c *readerConfig) {
		if size > 0 {
			c.maxHeaderSize = size
		}
	}
}

// WithoutLegacyUploaderFilter disables dropping of the duplicate text parts sent by
// Flash based uploaders, so that every text part needs a listener.
func WithoutLegacyUploaderFilter() ReaderOption {
	return func(c *readerConfig) {
		c.legacyFilter = false
	}
}

// StreamListener receives file parts.
// r is only valid until OnFilePart returns; unread bytes are discarded.
type StreamListener interface {
	OnFilePart(r io.Reader, header Header) error
}

// TextListener receives text parts.
type TextListener interface {
	OnTextPart(content string, header Header) error
}

type StreamListenerFunc func(r io.Reader, header Header) error

func (f StreamListenerFunc) OnFilePart(r io.Reader, header Header) error {
	return f(r, header)
}

type TextListenerFunc func(content string, header Header) error

func (f TextListenerFunc) OnTextPart(content string, header Header) error {
	return f(content, header)
}
