package partsreader_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/mazrean/partsreader"
)

func ExampleNewPartsReader() {
	body := strings.NewReader("--boundary\r\n" +
		"Content-Disposition: form-data; name=\"field\"\r\n" +
		"\r\n" +
		"value\r\n" +
		"--boundary\r\n" +
		"Content-Disposition: form-data; name=\"stream\"; filename=\"file.txt\"\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"large file contents\r\n" +
		"--boundary--\r\n")

	reader, err := partsreader.NewPartsReader("multipart/form-data; boundary=boundary")
	if err != nil {
		log.Fatal(err)
	}

	field := partsreader.NewTextCapture()
	err = reader.OnTextPart("field", field)
	if err != nil {
		log.Fatal(err)
	}

	err = reader.OnFilePart("stream", partsreader.StreamListenerFunc(func(r io.Reader, header partsreader.Header) error {
		fileName, _ := header.FileName()

		fmt.Println("---stream---")
		fmt.Printf("file name: %s\n", fileName)
		fmt.Printf("Content-Type: %s\n", header.ContentType())
		fmt.Printf("field: %s\n", field.Content())
		fmt.Println()

		_, err := io.Copy(os.Stdout, r)
		if err != nil {
			return fmt.Errorf("failed to copy: %w", err)
		}

		return nil
	}))
	if err != nil {
		log.Fatal(err)
	}

	err = reader.ReadParts(body)
	if err != nil {
		log.Fatal(err)
	}

	// Output:
	// ---stream---
	// file name: file.txt
	// Content-Type: text/plain
	// field: value
	//
	// large file contents
}

const boundary = "boundary"

type formPart struct {
	name        string
	content     string
	fileName    string
	contentType string
}

func encodeForm(t testing.TB, parts []formPart) io.Reader {
	t.Helper()

	b := new(bytes.Buffer)

	mw := multipart.NewWriter(b)
	require.NoError(t, mw.SetBoundary(boundary))

	for _, p := range parts {
		if p.contentType == "" {
			require.NoError(t, mw.WriteField(p.name, p.content))
			continue
		}

		mh := make(textproto.MIMEHeader)
		mh.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, p.name, p.fileName))
		mh.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(mh)
		require.NoError(t, err)

		_, err = io.WriteString(w, p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return b
}

func TestReadParts_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := map[string][]formPart{
		"ascii": {
			{name: "title", content: "hello world"},
			{name: "file", content: "plain file\r\nwith two lines", fileName: "a.txt", contentType: "text/plain"},
			{name: "empty", content: ""},
		},
		"utf-8": {
			{name: "title", content: "こんにちは世界"},
			{name: "comment", content: "héllo wörld ✓"},
			{name: "file", content: "données binaires \x00\x01\x02", fileName: "données.bin", contentType: "application/octet-stream"},
		},
		"content looking like a boundary": {
			{name: "title", content: "x--boundary\r\n-boundary"},
			{name: "file", content: strings.Repeat("--boundary", 1000), fileName: "big.txt", contentType: "text/plain"},
		},
	}

	for name, parts := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reader, err := partsreader.NewPartsReader("multipart/form-data; boundary=" + boundary)
			require.NoError(t, err)

			texts := map[string]*partsreader.TextCapture{}
			streams := map[string]*partsreader.StreamCapture{}
			for _, p := range parts {
				if p.contentType == "" {
					texts[p.name] = partsreader.NewTextCapture()
					require.NoError(t, reader.OnTextPart(p.name, texts[p.name], partsreader.WithMandatory()))
					continue
				}

				streams[p.name] = partsreader.NewStreamCapture()
				require.NoError(t, reader.OnFilePart(p.name, streams[p.name], partsreader.WithMandatory()))
			}

			require.NoError(t, reader.ReadParts(encodeForm(t, parts)))

			for _, p := range parts {
				if p.contentType == "" {
					assert.True(t, texts[p.name].Captured())
					assert.Equal(t, p.content, texts[p.name].Content())
					continue
				}

				capture := streams[p.name]
				require.True(t, capture.HasStream())

				b, err := io.ReadAll(capture.Reader())
				require.NoError(t, err)
				assert.Equal(t, p.content, string(b))

				fileName, ok := capture.FileName()
				assert.True(t, ok)
				assert.Equal(t, p.fileName, fileName)
				assert.Equal(t, p.contentType, capture.ContentType())

				assert.NoError(t, capture.Close())
			}
		})
	}
}

func TestReadParts_MissingListenerStopsProcessing(t *testing.T) {
	t.Parallel()

	body := encodeForm(t, []formPart{
		{name: "first", content: "1"},
		{name: "unknown", content: "?"},
		{name: "last", content: "3"},
	})

	reader, err := partsreader.NewPartsReader("multipart/form-data; boundary=" + boundary)
	require.NoError(t, err)

	first := partsreader.NewTextCapture()
	last := partsreader.NewTextCapture()
	require.NoError(t, reader.OnTextPart("first", first))
	require.NoError(t, reader.OnTextPart("last", last))

	err = reader.ReadParts(body)

	var missing partsreader.MissingListenerError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "unknown", missing.Name)
	assert.Equal(t, partsreader.TextPart, missing.Kind)
	assert.ErrorIs(t, err, partsreader.ErrConfiguration)
	assert.NotErrorIs(t, err, partsreader.ErrMalformedBody)

	assert.True(t, first.Captured())
	assert.False(t, last.Captured())
}

func TestReadParts_TextEncoding(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content  string
		options  []partsreader.ReaderOption
		expected string
	}{
		"invalid utf-8 is replaced": {
			content:  "ab\xffcd",
			expected: "ab�cd",
		},
		"latin-1": {
			content:  "caf\xe9",
			options:  []partsreader.ReaderOption{partsreader.WithTextEncoding(charmap.ISO8859_1)},
			expected: "café",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reader, err := partsreader.NewPartsReader("multipart/form-data; boundary="+boundary, test.options...)
			require.NoError(t, err)

			capture := partsreader.NewTextCapture()
			require.NoError(t, reader.OnTextPart("field", capture))

			require.NoError(t, reader.ReadParts(encodeForm(t, []formPart{{name: "field", content: test.content}})))
			assert.Equal(t, test.expected, capture.Content())
		})
	}
}

func TestReadParts_MalformedBody(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"truncated": "--boundary\r\n" +
			"Content-Disposition: form-data; name=\"field\"\r\n" +
			"\r\n" +
			"val",
		"line feeds only": "--boundary\n" +
			"Content-Disposition: form-data; name=\"field\"\n" +
			"\n" +
			"value\n" +
			"--boundary--\n",
		"no boundary": "field=value",
		"unquoted name": "--boundary\r\n" +
			"Content-Disposition: form-data; name=field\r\n" +
			"\r\n" +
			"value\r\n" +
			"--boundary--\r\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reader, err := partsreader.NewPartsReader("multipart/form-data; boundary=" + boundary)
			require.NoError(t, err)
			require.NoError(t, reader.OnTextPart("field", partsreader.NewTextCapture()))

			err = reader.ReadParts(strings.NewReader(body))
			require.Error(t, err)
			assert.Equal(t, partsreader.KindMalformedBody, partsreader.KindOf(err), err.Error())
		})
	}
}

func TestReadParts_TransportError(t *testing.T) {
	t.Parallel()

	errRead := errors.New("connection reset")

	reader, err := partsreader.NewPartsReader("multipart/form-data; boundary=" + boundary)
	require.NoError(t, err)
	require.NoError(t, reader.OnTextPart("field", partsreader.NewTextCapture()))

	body := io.MultiReader(strings.NewReader("--boundary\r\nContent-Disp"), &failingReader{err: errRead})

	err = reader.ReadParts(body)
	require.ErrorIs(t, err, errRead)
	assert.Equal(t, partsreader.KindTransport, partsreader.KindOf(err))
}

func TestReadParts_TransportErrorInFileBody(t *testing.T) {
	t.Parallel()

	errRead := errors.New("connection reset")

	reader, err := partsreader.NewPartsReader("multipart/form-data; boundary=" + boundary)
	require.NoError(t, err)

	capture := partsreader.NewStreamCapture()
	require.NoError(t, reader.OnFilePart("file", capture))

	body := io.MultiReader(strings.NewReader(
		"--boundary\r\n"+
			"Content-Disposition: form-data; name=\"file\"; filename=\"a.bin\"\r\n"+
			"Content-Type: application/octet-stream\r\n"+
			"\r\n"+
			"partial content",
	), &failingReader{err: errRead})

	err = reader.ReadParts(body)
	require.ErrorIs(t, err, errRead)
	assert.ErrorIs(t, err, partsreader.ErrTransport)
	assert.Equal(t, partsreader.KindTransport, partsreader.KindOf(err))

	var listenerErr *partsreader.ListenerError
	assert.ErrorAs(t, err, &listenerErr)
	assert.False(t, capture.HasStream())
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

func BenchmarkReadParts(b *testing.B) {
	b.Run("1MB", func(b *testing.B) {
		benchmarkReadParts(b, 1<<20)
	})
	b.Run("10MB", func(b *testing.B) {
		benchmarkReadParts(b, 10<<20)
	})
	b.Run("100MB", func(b *testing.B) {
		benchmarkReadParts(b, 100<<20)
	})
}

func benchmarkReadParts(b *testing.B, fileSize int) {
	parts := []formPart{
		{name: "field", content: "value"},
		{name: "stream", content: strings.Repeat("a", fileSize), fileName: "file.txt", contentType: "text/plain"},
	}

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		r := encodeForm(b, parts)
		b.StartTimer()

		reader, err := partsreader.NewPartsReader("multipart/form-data; boundary=" + boundary)
		if err != nil {
			b.Fatal(err)
		}

		err = reader.OnTextPart("field", partsreader.NewTextCapture())
		if err != nil {
			b.Fatal(err)
		}
		err = reader.OnFilePart("stream", partsreader.StreamListenerFunc(func(r io.Reader, _ partsreader.Header) error {
			_, err := io.Copy(io.Discard, r)
			return err
		}))
		if err != nil {
			b.Fatal(err)
		}

		err = reader.ReadParts(r)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func TestWithMaxHeaderSize(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		size int
		kind partsreader.Kind
	}{
		"zero is ignored":     {size: 0, kind: partsreader.KindNone},
		"negative is ignored": {size: -1, kind: partsreader.KindNone},
		"large enough":        {size: 1024, kind: partsreader.KindNone},
		"too small":           {size: 10, kind: partsreader.KindMalformedBody},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reader, err := partsreader.NewPartsReader(
				"multipart/form-data; boundary="+boundary,
				partsreader.WithMaxHeaderSize(test.size),
			)
			require.NoError(t, err)

			field := partsreader.NewTextCapture()
			require.NoError(t, reader.OnTextPart("field", field))

			err = reader.ReadParts(encodeForm(t, []formPart{{name: "field", content: "value"}}))
			assert.Equal(t, test.kind, partsreader.KindOf(err))
			if test.kind == partsreader.KindNone {
				assert.Equal(t, "value", field.Content())
			}
		})
	}
}
