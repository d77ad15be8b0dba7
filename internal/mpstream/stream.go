package mpstream

//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMalformedStream is returned when the byte stream does not follow the multipart framing.
	ErrMalformedStream = errors.New("malformed multipart stream")
	// ErrHeaderTooLarge is returned when a part's header block exceeds the configured limit.
	ErrHeaderTooLarge = errors.New("header block too large")
	// ErrTransport wraps every error returned by the underlying reader other than io.EOF.
	ErrTransport = errors.New("transport error")
)

const (
	// DefaultMaxHeaderSize is the maximum header block size of a single part.
	DefaultMaxHeaderSize = 10 * 1024

	defaultBufferSize = 4096
)

// IStream walks the parts of a multipart body.
type IStream interface {
	// SkipPreamble discards everything up to the first boundary and reports whether a part follows it.
	SkipPreamble() (bool, error)
	// ReadHeaders returns the raw header block of the current part, including its terminating empty line.
	ReadHeaders() (string, error)
	// Body returns a reader over the current part's body.
	Body() io.Reader
	// ReadBodyData copies the rest of the current part's body to w.
	ReadBodyData(w io.Writer) (int64, error)
	// ReadBoundary moves past the boundary that ends the current part and reports whether another part follows.
	ReadBoundary() (bool, error)
}

type Stream struct {
	br            *bufio.Reader
	delimiter     []byte
	maxHeaderSize int
	body          *bodyReader
}

type Option func(*Stream)

// WithMaxHeaderSize sets the maximum size of a part's header block.
// Non-positive sizes are ignored.
// default: 10KB
func WithMaxHeaderSize(size int) Option {
	return func(s *Stream) {
		if size > 0 {
			s.maxHeaderSize = size
		}
	}
}

// New creates a Stream reading parts separated by boundary from r.
func New(r io.Reader, boundary []byte, options ...Option) *Stream {
	delimiter := make([]byte, 0, len(boundary)+4)
	delimiter = append(delimiter, "\r\n--"...)
	delimiter = append(delimiter, boundary...)

	bufSize := max(defaultBufferSize, 2*len(delimiter))

	s := &Stream{
		br:            bufio.NewReaderSize(r, bufSize),
		delimiter:     delimiter,
		maxHeaderSize: DefaultMaxHeaderSize,
	}
	for _, opt := range options {
		opt(s)
	}

	return s
}

func (s *Stream) SkipPreamble() (bool, error) {
	// the first boundary is not preceded by a line break
	preamble := &bodyReader{
		s:         s,
		delimiter: s.delimiter[2:],
	}
	_, err := io.Copy(io.Discard, preamble)
	if err != nil {
		if errors.Is(err, ErrMalformedStream) {
			return false, fmt.Errorf("no boundary found: %w", err)
		}
		return false, fmt.Errorf("failed to skip preamble: %w", err)
	}

	return s.readBoundary()
}

func (s *Stream) ReadHeaders() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := s.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: header block: %w", ErrMalformedStream, io.ErrUnexpectedEOF)
			}
			return "", fmt.Errorf("%w: failed to read headers: %w", ErrTransport, err)
		}

		if buf.Len() >= s.maxHeaderSize {
			return "", ErrHeaderTooLarge
		}
		buf.WriteByte(b)

		// a part without any header
		if buf.Len() == 2 && bytes.Equal(buf.Bytes(), []byte("\r\n")) {
			break
		}
		if bytes.HasSuffix(buf.Bytes(), []byte("\r\n\r\n")) {
			break
		}
	}

	s.body = &bodyReader{
		s:         s,
		delimiter: s.delimiter,
	}

	return buf.String(), nil
}

func (s *Stream) Body() io.Reader {
	if s.body == nil {
		s.body = &bodyReader{
			s:         s,
			delimiter: s.delimiter,
		}
	}

	return s.body
}

func (s *Stream) ReadBodyData(w io.Writer) (int64, error) {
	n, err := io.Copy(w, s.Body())
	if err != nil {
		return n, fmt.Errorf("failed to copy body: %w", err)
	}

	return n, nil
}

func (s *Stream) ReadBoundary() (bool, error) {
	_, err := io.Copy(io.Discard, s.Body())
	if err != nil {
		return false, fmt.Errorf("failed to discard body: %w", err)
	}

	return s.readBoundary()
}

// readBoundary reads the two bytes following a delimiter.
func (s *Stream) readBoundary() (bool, error) {
	s.body = nil

	var marker [2]byte
	_, err := io.ReadFull(s.br, marker[:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, fmt.Errorf("%w: boundary: %w", ErrMalformedStream, io.ErrUnexpectedEOF)
		}
		return false, fmt.Errorf("%w: failed to read boundary: %w", ErrTransport, err)
	}

	switch string(marker[:]) {
	case "\r\n":
		return true, nil
	case "--":
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected characters %q after boundary", ErrMalformedStream, marker[:])
	}
}

type bodyReader struct {
	s         *Stream
	delimiter []byte
	done      bool
}

func (br *bodyReader) Read(p []byte) (int, error) {
	if br.done {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	r := br.s.br
	want := min(len(p)+len(br.delimiter), r.Size())
	buf, err := r.Peek(want)

	if i := bytes.Index(buf, br.delimiter); i >= 0 {
		if i == 0 {
			br.done = true
			_, _ = r.Discard(len(br.delimiter))
			return 0, io.EOF
		}

		n := copy(p, buf[:i])
		_, _ = r.Discard(n)
		return n, nil
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: body: %w", ErrMalformedStream, io.ErrUnexpectedEOF)
		}
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	// no delimiter can start before this offset
	safe := len(buf) - len(br.delimiter) + 1
	n := copy(p, buf[:safe])
	_, _ = r.Discard(n)

	return n, nil
}
