package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mazrean/partsreader/internal/config"
	"github.com/mazrean/partsreader/internal/dump"
)

var (
	// Build information injected at build time
	version = "dev"

	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "partsdump [flags] BODY...",
		Short: "partsdump decodes multipart/form-data bodies stored in files",
		Long: `partsdump reads raw multipart/form-data request bodies from files and writes
every part into the output directory, one sub directory per body.

Only the parts named with --file and --text are accepted; any other part makes
the decoding fail. Settings can also be given in a YAML file (--config) or through
PARTSDUMP_* environment variables.`,
		Args:    cobra.MinimumNArgs(1),
		Version: version,
		RunE:    runDump,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to configuration file (YAML format)")
	flags.String("content-type", "", "Content-Type header the bodies were sent with")
	flags.String("boundary", "", "multipart boundary, used when --content-type is not set")
	flags.String("user-agent", "", "User-Agent header the bodies were sent with")
	flags.StringSlice("file", nil, "name of a file part to accept")
	flags.StringSlice("text", nil, "name of a text part to accept")
	flags.StringSlice("mandatory", nil, "name of a part that must be present")
	flags.StringP("output", "o", "parts", "output directory")
	flags.Int("concurrency", 4, "number of bodies decoded at the same time")
	flags.String("text-encoding", "utf-8", "encoding of text parts")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "console", "log format (console or json)")

	for key, flag := range map[string]string{
		"content_type":  "content-type",
		"boundary":      "boundary",
		"user_agent":    "user-agent",
		"file_parts":    "file",
		"text_parts":    "text",
		"mandatory":     "mandatory",
		"output_dir":    "output",
		"concurrency":   "concurrency",
		"text_encoding": "text-encoding",
		"log_level":     "log-level",
		"log_format":    "log-format",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	config.InitConfig(cfgFile)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var zc zap.Config
	if cfg.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Debug("partsdump build information", zap.String("version", version))

	d, err := dump.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx, args)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
