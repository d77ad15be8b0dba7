package partsreader

import (
	"fmt"
	"strings"
)

const formDataPrefix = "form-data;"

// parseDisposition parses the parameters of a `form-data; key="value"; ...` header value.
// Values must be double-quoted and are taken verbatim, escapes included.
func parseDisposition(value string) (Fields, error) {
	rest, ok := strings.CutPrefix(value, formDataPrefix)
	if !ok {
		return Fields{}, ErrNotFormData
	}

	params := newFields()
	for segment := range strings.SplitSeq(rest, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		key, quoted, ok := strings.Cut(segment, "=")
		if !ok {
			return Fields{}, fmt.Errorf("%w: %q", ErrUnquotedParameter, segment)
		}

		key, quoted = strings.TrimSpace(key), strings.TrimSpace(quoted)
		if len(quoted) < 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
			return Fields{}, fmt.Errorf("%w: %q", ErrUnquotedParameter, segment)
		}

		params.set(key, quoted[1:len(quoted)-1])
	}

	return params, nil
}
