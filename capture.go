package partsreader

import (
	"fmt"
	"io"
)

// StreamCapture is a StreamListener keeping the content of a file part for later use.
//
// With the default MemoryStrategy the whole part is held in memory, because the
// listener is only allowed to read the part while ReadParts is running.
type StreamCapture struct {
	strategy    CaptureStrategy
	content     io.ReadCloser
	fileName    string
	hasFileName bool
	contentType string
}

type CaptureOption func(*StreamCapture)

// WithCaptureStrategy sets where the captured content is kept.
// default: MemoryStrategy
func WithCaptureStrategy(strategy CaptureStrategy) CaptureOption {
	return func(c *StreamCapture) {
		if strategy != nil {
			c.strategy = strategy
		}
	}
}

func NewStreamCapture(options ...CaptureOption) *StreamCapture {
	c := &StreamCapture{
		strategy: MemoryStrategy{},
	}
	for _, opt := range options {
		opt(c)
	}

	return c
}

func (c *StreamCapture) OnFilePart(r io.Reader, header Header) error {
	content, err := c.strategy.Capture(r)
	if err != nil {
		return fmt.Errorf("failed to capture file part: %w", err)
	}

	if c.content != nil {
		// a repeated part replaces the previous one
		_ = c.content.Close()
	}

	c.content = content
	c.fileName, c.hasFileName = header.FileName()
	c.contentType = header.ContentType()

	return nil
}

// HasStream reports whether a file part has been captured.
func (c *StreamCapture) HasStream() bool {
	return c.content != nil
}

// Reader returns the captured content, or nil when nothing was captured.
// It must not be used after Close.
func (c *StreamCapture) Reader() io.Reader {
	if c.content == nil {
		return nil
	}

	return c.content
}

func (c *StreamCapture) FileName() (string, bool) {
	return c.fileName, c.hasFileName
}

func (c *StreamCapture) ContentType() string {
	return c.contentType
}

// Close releases the captured content. It is safe to call Close more than once.
func (c *StreamCapture) Close() error {
	if c.content == nil {
		return nil
	}

	return c.content.Close()
}

// TextCapture is a TextListener keeping the content of a text part.
type TextCapture struct {
	content  string
	captured bool
}

func NewTextCapture() *TextCapture {
	return &TextCapture{}
}

func (c *TextCapture) OnTextPart(content string, _ Header) error {
	c.content = content
	c.captured = true

	return nil
}

func (c *TextCapture) Content() string {
	return c.content
}

// Captured reports whether a text part has been received.
func (c *TextCapture) Captured() bool {
	return c.captured
}
