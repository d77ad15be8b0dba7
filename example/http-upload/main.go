package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mazrean/partsreader"
	httpform "github.com/mazrean/partsreader/http"
)

type config struct {
	Addr    string `env:"ADDR" envDefault:":8080"`
	IconDir string `env:"ICON_DIR" envDefault:"icons"`
	// TmpDir holds icons while they are uploaded. It must not be served and must be on
	// the same file system as IconDir.
	TmpDir string `env:"TMP_DIR" envDefault:"icons-tmp"`
}

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icon_uploads_total",
			Help: "Total number of icon uploads by result",
		},
		[]string{"result"},
	)
	uploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "icon_uploaded_bytes_total",
			Help: "Total number of icon bytes stored",
		},
	)
)

var errUnsupportedContentType = errors.New("content type is not supported")

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	for _, dir := range []string{cfg.IconDir, cfg.TmpDir} {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			logger.Fatal("failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	h := &iconHandler{
		dir:    cfg.IconDir,
		tmpDir: cfg.TmpDir,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Post("/submit", h.submit)
	r.Handle("/icons/*", http.StripPrefix("/icons/", http.FileServer(http.Dir(cfg.IconDir))))
	r.Handle("/metrics", promhttp.Handler())

	logger.Info("listening", zap.String("addr", cfg.Addr))
	err = http.ListenAndServe(cfg.Addr, r)
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

type iconHandler struct {
	dir    string
	tmpDir string
	logger *zap.Logger
}

func (h *iconHandler) submit(w http.ResponseWriter, r *http.Request) {
	reader, err := httpform.NewPartsReader(r, partsreader.WithLogger(h.logger))
	if err != nil {
		uploadsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := partsreader.NewTextCapture()
	err = reader.OnTextPart("id", id, partsreader.WithMandatory())
	if err != nil {
		http.Error(w, "failed to register listener", http.StatusInternalServerError)
		return
	}

	// the id part may come after the icon, so the icon is stored under a temporary name first
	tmpPath := filepath.Join(h.tmpDir, uuid.NewString())
	defer os.Remove(tmpPath)

	err = reader.OnFilePart("icon", partsreader.StreamListenerFunc(func(r io.Reader, header partsreader.Header) error {
		if header.ContentType() != "image/png" {
			return errUnsupportedContentType
		}

		file, err := os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()

		n, err := io.Copy(file, r)
		if err != nil {
			return fmt.Errorf("failed to copy: %w", err)
		}
		uploadedBytes.Add(float64(n))

		return nil
	}), partsreader.WithMandatory())
	if err != nil {
		http.Error(w, "failed to register listener", http.StatusInternalServerError)
		return
	}

	err = reader.ReadParts()
	if err != nil {
		h.logger.Info("rejected upload",
			zap.Stringer("kind", partsreader.KindOf(err)),
			zap.Error(err),
		)

		switch {
		case errors.Is(err, errUnsupportedContentType):
			uploadsTotal.WithLabelValues("unsupported").Inc()
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		case partsreader.KindOf(err) == partsreader.KindTransport:
			uploadsTotal.WithLabelValues("aborted").Inc()
			http.Error(w, "failed to read request body", http.StatusBadRequest)
		case partsreader.KindOf(err) == partsreader.KindMalformedBody:
			uploadsTotal.WithLabelValues("bad_request").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			uploadsTotal.WithLabelValues("error").Inc()
			http.Error(w, "failed to read upload", http.StatusInternalServerError)
		}
		return
	}

	// legacy uploaders never deliver text parts
	idValue := id.Content()
	if !id.Captured() {
		idValue = uuid.NewString()
	}

	name := filepath.Base(filepath.Clean("/" + idValue))
	if name == "/" || name == "." {
		uploadsTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	iconPath := filepath.Join(h.dir, name)

	_, err = os.Stat(iconPath)
	if err == nil {
		uploadsTotal.WithLabelValues("conflict").Inc()
		http.Error(w, "user already exists", http.StatusConflict)
		return
	}
	if !os.IsNotExist(err) {
		uploadsTotal.WithLabelValues("error").Inc()
		http.Error(w, "failed to check file existence", http.StatusInternalServerError)
		return
	}

	err = os.Rename(tmpPath, iconPath)
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		http.Error(w, "failed to store icon", http.StatusInternalServerError)
		return
	}

	uploadsTotal.WithLabelValues("created").Inc()
	w.WriteHeader(http.StatusCreated)
}
