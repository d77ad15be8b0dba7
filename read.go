package partsreader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/mazrean/partsreader/internal/mpstream"
)

const (
	// sent as User-Agent by Flash based upload widgets
	legacyUploaderAgent = "Shockwave Flash"
	legacyPlatformToken = "windows"
)

// ReadParts reads the multipart body from body and passes every part to its registered listener.
// Parts are delivered in the order they appear in body.
func (r *PartsReader) ReadParts(body io.Reader) error {
	reg := r.freeze()
	if reg.empty() {
		return ErrNoListeners
	}

	s := mpstream.New(body, r.boundary, mpstream.WithMaxHeaderSize(r.maxHeaderSize))

	return r.readParts(s, reg)
}

func (r *PartsReader) readParts(s mpstream.IStream, reg *registry) error {
	invoked := invokedListeners{
		files: make(map[string]struct{}),
		texts: make(map[string]struct{}),
	}

	next, err := s.SkipPreamble()
	if err != nil {
		return streamError("failed to skip preamble", err)
	}

	for next {
		header, err := r.readHeader(s)
		if err != nil {
			return err
		}

		if _, ok := header.Lookup("content-type"); ok {
			err = r.dispatchFile(s, reg, header)
			if err != nil {
				return err
			}
			invoked.files[header.Name()] = struct{}{}
		} else {
			err = r.dispatchText(s, reg, header)
			if err != nil {
				return err
			}
			// a part dropped for a legacy uploader still counts as present
			invoked.texts[header.Name()] = struct{}{}
		}

		next, err = s.ReadBoundary()
		if err != nil {
			return streamError("failed to read boundary", err)
		}
	}

	return invoked.checkMandatory(reg)
}

func (r *PartsReader) readHeader(s mpstream.IStream) (Header, error) {
	raw, err := s.ReadHeaders()
	if err != nil {
		return Header{}, streamError("failed to read headers", err)
	}

	fields, err := parseHeaderBlock(raw)
	if err != nil {
		return Header{}, fmt.Errorf("failed to parse headers: %w", err)
	}

	disposition, ok := fields.Lookup("content-disposition")
	if !ok {
		return Header{}, ErrNoContentDisposition
	}

	params, err := parseDisposition(disposition)
	if err != nil {
		return Header{}, fmt.Errorf("failed to parse content-disposition: %w", err)
	}

	if _, ok := params.Lookup("name"); !ok {
		return Header{}, ErrNoPartName
	}

	return Header{
		fields: fields,
		params: params,
	}, nil
}

func (r *PartsReader) dispatchFile(s mpstream.IStream, reg *registry, header Header) error {
	name := header.Name()

	l, ok := reg.streams[name]
	if !ok {
		return MissingListenerError{Name: name, Kind: FilePart}
	}

	fileName, _ := header.FileName()
	r.logger.Debug("dispatching file part",
		zap.String("name", name),
		zap.String("filename", fileName),
		zap.String("content_type", header.ContentType()),
	)

	err := l.listener.OnFilePart(s.Body(), header)
	if err != nil {
		return &ListenerError{Name: name, Err: err}
	}

	return nil
}

func (r *PartsReader) dispatchText(s mpstream.IStream, reg *registry, header Header) error {
	name := header.Name()

	var buf bytes.Buffer
	_, err := s.ReadBodyData(&buf)
	if err != nil {
		return streamError("failed to read text part", err)
	}

	content, err := r.textEncoding.NewDecoder().Bytes(buf.Bytes())
	if err != nil {
		return fmt.Errorf("%w: failed to decode text part [%s]: %w", ErrMalformedBody, name, err)
	}

	if r.isLegacyUploader() {
		r.logger.Debug("dropping text part sent by legacy uploader",
			zap.String("name", name),
			zap.String("user_agent", r.userAgent),
		)
		return nil
	}

	l, ok := reg.texts[name]
	if !ok {
		return MissingListenerError{Name: name, Kind: TextPart}
	}

	r.logger.Debug("dispatching text part",
		zap.String("name", name),
		zap.Int("size", len(content)),
	)

	err = l.listener.OnTextPart(string(content), header)
	if err != nil {
		return &ListenerError{Name: name, Err: err}
	}

	return nil
}

// isLegacyUploader reports whether the request comes from an uploader that sends
// a spurious text part next to every file part.
func (c *readerConfig) isLegacyUploader() bool {
	if !c.legacyFilter || !c.hasUserAgent {
		return false
	}

	return c.userAgent == legacyUploaderAgent || strings.Contains(c.userAgent, legacyPlatformToken)
}

type invokedListeners struct {
	files map[string]struct{}
	texts map[string]struct{}
}

func (il invokedListeners) checkMandatory(reg *registry) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(reg.streams)) {
		if _, ok := il.files[name]; reg.streams[name].mandatory && !ok {
			errs = append(errs, MissingPartError{Name: name})
		}
	}
	for _, name := range slices.Sorted(maps.Keys(reg.texts)) {
		if _, ok := il.texts[name]; reg.texts[name].mandatory && !ok {
			errs = append(errs, MissingPartError{Name: name})
		}
	}

	return errors.Join(errs...)
}

func streamError(msg string, err error) error {
	if errors.Is(err, mpstream.ErrMalformedStream) || errors.Is(err, mpstream.ErrHeaderTooLarge) {
		return fmt.Errorf("%s: %w: %w", msg, ErrMalformedBody, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
