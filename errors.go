package partsreader

import (
	"errors"
	"fmt"

	"github.com/mazrean/partsreader/internal/mpstream"
)

var (
	// ErrConfiguration is matched by every error caused by the listener registration of the caller.
	ErrConfiguration = errors.New("configuration error")
	// ErrMalformedBody is matched by every error caused by a request body that is not valid multipart/form-data.
	ErrMalformedBody = errors.New("malformed multipart body")
	// ErrTransport is matched by every error caused by reading the request body, even when
	// the read happened inside a listener.
	ErrTransport = mpstream.ErrTransport
)

var (
	// ErrNoListeners is returned when ReadParts is called without any registered listener.
	ErrNoListeners = fmt.Errorf("%w: ReadParts called without registering part listeners", ErrConfiguration)

	// ErrMissingBoundary is returned when the Content-Type has no boundary parameter.
	ErrMissingBoundary = fmt.Errorf("%w: no boundary in content type", ErrMalformedBody)
	// ErrHeadersNotTerminated is returned when a header block does not end with an empty line.
	ErrHeadersNotTerminated = fmt.Errorf("%w: headers not properly terminated", ErrMalformedBody)
	// ErrNoContentDisposition is returned when a part has no Content-Disposition header.
	ErrNoContentDisposition = fmt.Errorf("%w: no content-disposition on one of the parts", ErrMalformedBody)
	// ErrNotFormData is returned when a Content-Disposition does not start with form-data.
	ErrNotFormData = fmt.Errorf("%w: a content-disposition does not start with form-data", ErrMalformedBody)
	// ErrNoPartName is returned when a Content-Disposition has no name parameter.
	ErrNoPartName = fmt.Errorf("%w: a part has no 'name'", ErrMalformedBody)
	// ErrUnquotedParameter is returned when a Content-Disposition parameter is not of the form key="value".
	ErrUnquotedParameter = fmt.Errorf("%w: content-disposition parameter is not a quoted key=value pair", ErrMalformedBody)
)

// PartKind tells file parts from text parts.
type PartKind int

const (
	// FilePart is a part carrying a Content-Type header.
	FilePart PartKind = iota + 1
	// TextPart is a part without a Content-Type header.
	TextPart
)

func (k PartKind) String() string {
	switch k {
	case FilePart:
		return "file"
	case TextPart:
		return "text"
	default:
		return "unknown"
	}
}

type MissingListenerError struct {
	Name string
	Kind PartKind
}

func (e MissingListenerError) Error() string {
	return fmt.Sprintf("%s part listener declaration missing for part with name [%s]", e.Kind, e.Name)
}

func (e MissingListenerError) Is(target error) bool {
	return target == ErrConfiguration
}

type DuplicateListenerError struct {
	Name string
	Kind PartKind
}

func (e DuplicateListenerError) Error() string {
	return fmt.Sprintf("duplicate %s part listener name: %s", e.Kind, e.Name)
}

func (e DuplicateListenerError) Is(target error) bool {
	return target == ErrConfiguration
}

// MissingPartError is returned when a listener registered with WithMandatory never received its part.
type MissingPartError struct {
	Name string
}

func (e MissingPartError) Error() string {
	return fmt.Sprintf("mandatory part [%s] is missing", e.Name)
}

func (e MissingPartError) Is(target error) bool {
	return target == ErrMalformedBody
}

// ListenerError wraps an error returned by a listener.
type ListenerError struct {
	Name string
	Err  error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener for part [%s] failed: %v", e.Name, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Kind classifies the errors returned by ReadParts.
type Kind int

const (
	KindNone Kind = iota
	// KindConfiguration means the caller's registration is wrong.
	KindConfiguration
	// KindMalformedBody means the request body is wrong.
	KindMalformedBody
	// KindListener means a listener returned an error.
	KindListener
	// KindTransport means reading the underlying stream failed, also while a listener was reading it.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfiguration:
		return "configuration"
	case KindMalformedBody:
		return "malformed body"
	case KindListener:
		return "listener"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of an error returned by ReadParts.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var listenerErr *ListenerError
	switch {
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrMalformedBody),
		errors.Is(err, mpstream.ErrMalformedStream),
		errors.Is(err, mpstream.ErrHeaderTooLarge):
		return KindMalformedBody
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.As(err, &listenerErr):
		return KindListener
	default:
		return KindTransport
	}
}
