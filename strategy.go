package partsreader

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/mazrean/partsreader/internal/myio"
)

// CaptureStrategy decides where StreamCapture keeps the content of a file part.
// Capture must consume r before returning; r is invalid afterwards.
type CaptureStrategy interface {
	Capture(r io.Reader) (io.ReadCloser, error)
}

// MemoryStrategy keeps the whole part in memory.
// Not suitable for very large uploads.
type MemoryStrategy struct{}

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func (MemoryStrategy) Capture(r io.Reader) (io.ReadCloser, error) {
	buf, ok := bufPool.Get().(*bytes.Buffer)
	if !ok {
		buf = new(bytes.Buffer)
	}
	buf.Reset()

	_, err := io.Copy(buf, r)
	if err != nil {
		bufPool.Put(buf)
		return nil, fmt.Errorf("failed to copy: %w", err)
	}

	return myio.ReadCloser(buf, func() error {
		buf.Reset()
		bufPool.Put(buf)
		return nil
	}), nil
}
