package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/djmix/config"
	"github.com/xeptore/djmix/constant"
	"github.com/xeptore/djmix/errutil"
	"github.com/xeptore/djmix/log"
)

const (
	flagConfigFilePath = "config"
	flagLibraryPath    = "library"
	flagFlawReport     = "flaw-report"
	flagLogFormat      = "log-format"

	envConfig = "DJMIX_CONFIG"
)

func main() {
	logger := log.NewPretty(os.Stderr).Level(zerolog.TraceLevel)
	defer func() {
		if r := recover(); nil != r {
			logger.Fatal().Func(log.Panic(r)).Msg("Application panicked")
		}
	}()

	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Trace().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	//nolint:exhaustruct
	app := &cli.App{
		Name:     "djmix",
		Version:  constant.Version,
		Compiled: constant.CompileTime,
		Suggest:  true,
		Usage:    "DJ mixing compatibility engine",
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagConfigFilePath,
				Aliases: []string{"c"},
				Usage:   "Config file path. Mutually exclusive with the " + envConfig + " environment variable",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagLibraryPath,
				Aliases: []string{"l"},
				Usage:   "Track library JSON file. Overrides the library config value",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagFlawReport,
				Usage: "Write a YAML report of unexpected failures to this file",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagLogFormat,
				Value: "pretty",
				Usage: "Log format: pretty or json",
			},
		},
		Commands: []*cli.Command{
			bpmCommand(),
			keyCommand(),
			transitionCommand(),
			planCommand(),
			sessionCommand(),
			recommendCommand(),
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			return
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			logger.Fatal().Func(log.Flaw(flawErr)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

// action wraps a command with signal handling, config loading and flaw
// reporting.
func action(run func(ctx context.Context, cliCtx *cli.Context, cfg *config.Config, logger zerolog.Logger) error) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, err := loadConfig(cliCtx)
		if nil != err {
			return err
		}
		if p := cliCtx.String(flagLibraryPath); p != "" {
			cfg.Library = p
		}

		logger := newLogger(cliCtx.String(flagLogFormat)).Level(log.ParseLevel(cfg.LogLevel))
		if err := run(ctx, cliCtx, cfg, logger); nil != err {
			if errutil.IsFlaw(err) {
				writeFlawReport(cliCtx.String(flagFlawReport), errutil.AsFlaw(err), logger)
			}
			return err
		}
		return nil
	}
}

func newLogger(format string) zerolog.Logger {
	if format == "json" {
		return log.NewPacked(os.Stderr)
	}
	return log.NewPretty(os.Stderr)
}

func loadConfig(cliCtx *cli.Context) (*config.Config, error) {
	var (
		cfgFilePath = cliCtx.String(flagConfigFilePath)
		cfgEnv      = os.Getenv(envConfig)
	)
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and " + envConfig + " environment variable are both set. specify only one")
	case cfgFilePath != "":
		cfg, err := config.FromFile(cfgFilePath)
		if nil != err {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
		return cfg, nil
	case cfgEnv != "":
		cfg, err := config.FromString(cfgEnv)
		if nil != err {
			return nil, fmt.Errorf("failed to load config from environment variable: %v", err)
		}
		return cfg, nil
	default:
		cfg := config.Default()
		return &cfg, nil
	}
}

func writeFlawReport(filePath string, f *flaw.Flaw, logger zerolog.Logger) {
	if filePath == "" {
		return
	}
	data, err := errutil.FlawToYAML(f)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to convert flaw to YAML")
		return
	}
	if err := os.WriteFile(filePath, data, 0o0644); nil != err {
		logger.Error().Err(err).Str("file_path", filePath).Msg("Failed to write flaw report")
		return
	}
	logger.Info().Str("file_path", filePath).Msg("Flaw report written")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); nil != err {
		return fmt.Errorf("failed to encode output: %v", err)
	}
	return nil
}
