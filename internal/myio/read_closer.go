package myio

import (
	"io"
	"sync"
)

type readCloser struct {
	io.Reader
	once      sync.Once
	closeFunc func() error
	err       error
}

// ReadCloser returns an io.ReadCloser reading from r whose Close calls closeFunc once.
// Later calls of Close return the result of the first one.
func ReadCloser(r io.Reader, closeFunc func() error) io.ReadCloser {
	return &readCloser{
		Reader:    r,
		closeFunc: closeFunc,
	}
}

func (rc *readCloser) Close() error {
	rc.once.Do(func() {
		rc.err = rc.closeFunc()
	})

	return rc.err
}
