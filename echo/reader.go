package echoform

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mazrean/partsreader"
)

const formDataContentType = "multipart/form-data"

type PartsReader struct {
	*partsreader.PartsReader
	reader io.Reader
}

func NewPartsReader(c echo.Context, options ...partsreader.ReaderOption) (*PartsReader, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(strings.ToLower(contentType), formDataContentType) {
		return nil, http.ErrNotMultipart
	}

	if ua := c.Request().Header.Values("User-Agent"); len(ua) > 0 {
		options = append([]partsreader.ReaderOption{partsreader.WithUserAgent(ua[0])}, options...)
	}

	pr, err := partsreader.NewPartsReader(contentType, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", http.ErrMissingBoundary, err)
	}

	return &PartsReader{
		PartsReader: pr,
		reader:      c.Request().Body,
	}, nil
}

func (p *PartsReader) ReadParts() error {
	return p.PartsReader.ReadParts(p.reader)
}
