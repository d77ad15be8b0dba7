package dump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mazrean/partsreader"
	"github.com/mazrean/partsreader/internal/config"
)

// ErrOutputConflict is returned by Run when two bodies would be written to the same directory.
var ErrOutputConflict = errors.New("output directory conflict")

// Dumper decodes multipart bodies stored in files and writes every part to the output directory.
type Dumper struct {
	cfg     *config.Config
	logger  *zap.Logger
	options []partsreader.ReaderOption
}

func New(cfg *config.Config, logger *zap.Logger) (*Dumper, error) {
	enc, err := cfg.Encoding()
	if err != nil {
		return nil, err
	}

	options := []partsreader.ReaderOption{
		partsreader.WithLogger(logger),
		partsreader.WithTextEncoding(enc),
		partsreader.WithMaxHeaderSize(cfg.MaxHeaderSize),
	}
	if cfg.UserAgent != "" {
		options = append(options, partsreader.WithUserAgent(cfg.UserAgent))
	}

	return &Dumper{
		cfg:     cfg,
		logger:  logger,
		options: options,
	}, nil
}

// Run dumps every body in paths. Each body gets its own PartsReader.
// Bodies whose output directories would collide are rejected before anything is written.
func (d *Dumper) Run(ctx context.Context, paths []string) error {
	outDirs := make(map[string]string, len(paths))
	for _, path := range paths {
		outDir := d.outDir(path)
		if other, ok := outDirs[outDir]; ok {
			return fmt.Errorf("%w: %s and %s both write to %s", ErrOutputConflict, other, path, outDir)
		}
		outDirs[outDir] = path
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.cfg.Concurrency)

	for outDir, path := range outDirs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			return d.dumpFile(path, outDir)
		})
	}

	return eg.Wait()
}

// outDir returns the directory the parts of the body stored at path are written to.
func (d *Dumper) outDir(path string) string {
	return filepath.Join(d.cfg.OutputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

func (d *Dumper) dumpFile(path, outDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	err = os.MkdirAll(outDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	err = d.Dump(f, outDir)
	if err != nil {
		return fmt.Errorf("failed to dump %s: %w", path, err)
	}

	return nil
}

// Dump decodes body and writes its parts into outDir.
func (d *Dumper) Dump(body io.Reader, outDir string) error {
	reader, err := partsreader.NewPartsReader(d.cfg.ContentTypeHeader(), d.options...)
	if err != nil {
		return fmt.Errorf("failed to create parts reader: %w", err)
	}

	for _, name := range d.cfg.FileParts {
		err := reader.OnFilePart(name, d.fileWriter(outDir), d.registerOptions(name)...)
		if err != nil {
			return fmt.Errorf("failed to register file part %s: %w", name, err)
		}
	}

	texts := make(map[string]*partsreader.TextCapture, len(d.cfg.TextParts))
	for _, name := range d.cfg.TextParts {
		texts[name] = partsreader.NewTextCapture()
		err := reader.OnTextPart(name, texts[name], d.registerOptions(name)...)
		if err != nil {
			return fmt.Errorf("failed to register text part %s: %w", name, err)
		}
	}

	err = reader.ReadParts(body)
	if err != nil {
		d.logger.Error("failed to read parts",
			zap.String("kind", partsreader.KindOf(err).String()),
			zap.Error(err),
		)
		return err
	}

	for name, capture := range texts {
		if !capture.Captured() {
			continue
		}

		d.logger.Info("text part", zap.String("name", name), zap.String("content", capture.Content()))

		err := os.WriteFile(filepath.Join(outDir, safeName(name)+".txt"), []byte(capture.Content()), 0o644)
		if err != nil {
			return fmt.Errorf("failed to write text part %s: %w", name, err)
		}
	}

	return nil
}

func (d *Dumper) registerOptions(name string) []partsreader.RegisterOption {
	if d.cfg.IsMandatory(name) {
		return []partsreader.RegisterOption{partsreader.WithMandatory()}
	}

	return nil
}

func (d *Dumper) fileWriter(outDir string) partsreader.StreamListener {
	return partsreader.StreamListenerFunc(func(r io.Reader, header partsreader.Header) error {
		fileName, _ := header.FileName()
		path := filepath.Join(outDir, safeName(fileName))

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer f.Close()

		n, err := io.Copy(f, r)
		if err != nil {
			return fmt.Errorf("failed to copy: %w", err)
		}

		d.logger.Info("file part",
			zap.String("name", header.Name()),
			zap.String("path", path),
			zap.String("content_type", header.ContentType()),
			zap.Int64("size", n),
		)

		return nil
	})
}

// safeName strips directories from a client supplied name and falls back to a random one.
func safeName(name string) string {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if base == "/" || base == "." || base == ".." {
		return uuid.NewString()
	}

	return base
}
