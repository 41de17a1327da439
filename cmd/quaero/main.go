// -----------------------------------------------------------------------
// Last Modified: Friday, 8th November 2025 4:00:00 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/jobhunter/internal/app"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("jobhunter version %s\n", common.GetVersion())
		os.Exit(0)
	}

	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("jobhunter.toml"); err == nil {
			configFiles = append(configFiles, "jobhunter.toml")
		} else if _, err := os.Stat("deployments/local/jobhunter.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/jobhunter.toml")
		}
	}

	// Config is loaded with no KV storage yet: the KV-backed secret
	// substitution pass needs an open database connection, which app.New
	// creates from this very config. Startup only needs file/env/flag
	// values to reach that point.
	config, err := common.LoadFromFiles(nil, configFiles...)
	if err != nil {
		tempLogger := common.SetupLogger(common.NewDefaultConfig())
		if len(configFiles) == 0 {
			tempLogger.Fatal().Err(err).Msg("failed to load configuration: no config file found")
		} else {
			tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("failed to load configuration files")
		}
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, finalPort, *serverHost)

	logger := common.SetupLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Str("storage_type", "sqlite").
		Str("sqlite_path", config.Storage.SQLite.Path).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Msg("resolved configuration")

	logger.Info().
		Strs("config_files", configFiles).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("starting jobhunter server")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	srv := server.New(application)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Fatal().Str("panic", fmt.Sprintf("%v", r)).Msg("server goroutine panicked")
			}
		}()

		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	time.Sleep(100 * time.Millisecond)

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("server ready - press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("interrupt signal received, shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
