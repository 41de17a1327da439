package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := GetVersion()
	build := GetBuild()

	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("JOBHUNTER")
	b.PrintCenteredText("Job Scraping and Recommendation Engine")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Environment", config.Environment, 15)
	b.PrintKeyValue("Service URL", serviceURL, 15)
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("config_file", "jobhunter.toml").
		Msg("Application started")

	fmt.Printf("Configuration:\n")
	fmt.Printf("   - Config File: jobhunter.toml\n")
	fmt.Printf("   - API: %s\n", serviceURL)

	logFilePath := ""
	if loggerWithPath, ok := interface{}(logger).(interface{ GetLogFilePath() string }); ok {
		logFilePath = loggerWithPath.GetLogFilePath()
		if logFilePath != "" {
			fmt.Printf("   - Log File: %s\n", logFilePath)
		}
	}
	fmt.Printf("\n")

	logger.Info().
		Str("log_file", logFilePath).
		Bool("remotive_enabled", config.Sources.Remotive.Enabled).
		Bool("remoteok_enabled", config.Sources.RemoteOK.Enabled).
		Bool("adzuna_enabled", config.Sources.Adzuna.Enabled).
		Bool("external_enabled", config.Sources.External.Enabled).
		Str("claude_model", config.Claude.Model).
		Str("sqlite_path", config.Storage.SQLite.Path).
		Msg("Configuration loaded")

	printCapabilities(config, logger)
	fmt.Printf("\n")
}

// printCapabilities displays the enabled source adapters and capability flags.
func printCapabilities(config *Config, logger arbor.ILogger) {
	fmt.Printf("Enabled Sources:\n")

	enabledSources := []string{}
	if config.Sources.Remotive.Enabled {
		fmt.Printf("   - Remotive (remote job board API)\n")
		enabledSources = append(enabledSources, "remotive")
	}
	if config.Sources.RemoteOK.Enabled {
		fmt.Printf("   - RemoteOK (remote job board API)\n")
		enabledSources = append(enabledSources, "remoteok")
	}
	if config.Sources.Adzuna.Enabled {
		fmt.Printf("   - Adzuna (requires app_id/app_key)\n")
		enabledSources = append(enabledSources, "adzuna")
	}
	if config.Sources.External.Enabled {
		fmt.Printf("   - External (LLM-backed URL/text extraction)\n")
		enabledSources = append(enabledSources, "external")
	}
	if len(enabledSources) == 0 {
		fmt.Printf("   - No source adapters enabled (configure in jobhunter.toml)\n")
	}

	fmt.Printf("   - Local SQLite job store\n")

	embeddingDescription := "not configured, Matcher will degrade gracefully"
	if config.Embedding.BaseURL != "" {
		embeddingDescription = "embedding-backed matching enabled"
	}
	fmt.Printf("   - Embedding matcher: %s\n", embeddingDescription)

	logger.Info().
		Strs("enabled_sources", enabledSources).
		Str("storage", "sqlite").
		Str("embedding", embeddingDescription).
		Msg("System capabilities")
}

// PrintShutdownBanner displays the application shutdown banner
func PrintShutdownBanner(logger arbor.ILogger) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("JOBHUNTER")
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Msg("Application shutting down")
}

// PrintColorizedMessage prints a message in the specified color to stdout; the logger argument is not used
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green and logs it
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("[OK] %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("[ERROR] %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("[WARN] %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints an info message in cyan and logs it
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("[INFO] %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
