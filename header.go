package partsreader

import (
	"strings"
)

// Fields is an ordered string to string mapping.
type Fields struct {
	keys   []string
	values map[string]string
}

func newFields() Fields {
	return Fields{
		values: make(map[string]string),
	}
}

// set keeps the position of an existing key and replaces its value.
func (f *Fields) set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value associated with key, or "" when there is none.
func (f Fields) Get(key string) string {
	return f.values[key]
}

// Lookup returns the value associated with key and whether it is present.
func (f Fields) Lookup(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in the order they were first seen.
func (f Fields) Keys() []string {
	keys := make([]string, len(f.keys))
	copy(keys, f.keys)

	return keys
}

func (f Fields) Len() int {
	return len(f.keys)
}

// Header is the header of one part together with its Content-Disposition parameters.
type Header struct {
	fields Fields
	params Fields
}

// Get returns the value of the header field key. The lookup is case-insensitive.
// If there are no values associated with the key, Get returns "".
func (h Header) Get(key string) string {
	return h.fields.Get(strings.ToLower(key))
}

// Lookup is like Get but also reports whether the header field is present.
func (h Header) Lookup(key string) (string, bool) {
	return h.fields.Lookup(strings.ToLower(key))
}

// Fields returns all header fields. Keys are lower-cased.
func (h Header) Fields() Fields {
	return h.fields
}

// Params returns the parameters of the "Content-Disposition" header field.
func (h Header) Params() Fields {
	return h.params
}

// Name returns the value of the "name" parameter in the "Content-Disposition" header field.
func (h Header) Name() string {
	return h.params.Get("name")
}

// FileName returns the value of the "filename" parameter in the "Content-Disposition" header field
// and whether the parameter is present.
func (h Header) FileName() (string, bool) {
	return h.params.Lookup("filename")
}

// ContentType returns the value of the "Content-Type" header field.
// If there are no values associated with the key, ContentType returns "".
func (h Header) ContentType() string {
	return h.fields.Get("content-type")
}

// parseHeaderBlock parses a CRLF delimited header block terminated by an empty line.
// Lines starting with a space or a tab continue the previous line.
func parseHeaderBlock(block string) (Fields, error) {
	fields := newFields()

	start := 0
	for {
		end, err := endOfLine(block, start)
		if err != nil {
			return Fields{}, err
		}
		if end == start {
			break
		}

		var line strings.Builder
		line.WriteString(block[start:end])
		start = end + 2

		for start < len(block) {
			nonWS := start
			for nonWS < len(block) && (block[nonWS] == ' ' || block[nonWS] == '\t') {
				nonWS++
			}
			if nonWS == start {
				break
			}

			end, err = endOfLine(block, nonWS)
			if err != nil {
				return Fields{}, err
			}
			line.WriteByte(' ')
			line.WriteString(block[nonWS:end])
			start = end + 2
		}

		parseHeaderLine(&fields, line.String())
	}

	return fields, nil
}

// endOfLine returns the index of the first CRLF at or after from.
func endOfLine(block string, from int) (int, error) {
	i := strings.Index(block[from:], "\r\n")
	if i < 0 {
		return 0, ErrHeadersNotTerminated
	}

	return from + i, nil
}

func parseHeaderLine(fields *Fields, line string) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		// malformed line, skip it
		return
	}

	fields.set(strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value))
}
