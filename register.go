package partsreader

import "maps"

// OnFilePart registers the listener of the file part named name.
func (r *PartsReader) OnFilePart(name string, listener StreamListener, options ...RegisterOption) error {
	if _, ok := r.streamHandlers[name]; ok {
		return DuplicateListenerError{Name: name, Kind: FilePart}
	}

	c := &registerConfig{}
	for _, opt := range options {
		opt(c)
	}

	r.streamHandlers[name] = streamListener{
		listener:  listener,
		mandatory: c.mandatory,
	}

	return nil
}

// OnTextPart registers the listener of the text part named name.
func (r *PartsReader) OnTextPart(name string, listener TextListener, options ...RegisterOption) error {
	if _, ok := r.textHandlers[name]; ok {
		return DuplicateListenerError{Name: name, Kind: TextPart}
	}

	c := &registerConfig{}
	for _, opt := range options {
		opt(c)
	}

	r.textHandlers[name] = textListener{
		listener:  listener,
		mandatory: c.mandatory,
	}

	return nil
}

type streamListener struct {
	listener  StreamListener
	mandatory bool
}

type textListener struct {
	listener  TextListener
	mandatory bool
}

type registerConfig struct {
	mandatory bool
}

type RegisterOption func(*registerConfig)

// WithMandatory makes ReadParts fail with MissingPartError when the body has no part for the listener.
func WithMandatory() RegisterOption {
	return func(c *registerConfig) {
		c.mandatory = true
	}
}

// registry is the frozen set of listeners used by one ReadParts call.
type registry struct {
	streams map[string]streamListener
	texts   map[string]textListener
}

func (r *PartsReader) freeze() *registry {
	return &registry{
		streams: maps.Clone(r.streamHandlers),
		texts:   maps.Clone(r.textHandlers),
	}
}

func (reg *registry) empty() bool {
	return len(reg.streams) == 0 && len(reg.texts) == 0
}
