package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds parsed command-line flags
type CLIConfig struct {
	InputPath   string
	InputDir    string
	Workers     int
	ConfigPath  string
	ShowVersion bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cliCfg := &CLIConfig{}

	flag.StringVar(&cliCfg.InputPath, "input", "", "Path to the extracted flow document (JSON)")
	flag.StringVar(&cliCfg.InputDir, "input-dir", "", "Directory of flow documents to process as a batch")
	flag.IntVar(&cliCfg.Workers, "workers", 4, "Concurrent jobs in batch mode")
	flag.StringVar(&cliCfg.ConfigPath, "config", "", "Path to the configuration file (YAML, optional)")
	flag.BoolVar(&cliCfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cliCfg.Validate, "validate", false, "Validate the configuration and exit")

	flag.Parse()

	// Environment variable fallback for containerized runs
	if envConfig := os.Getenv("FLOWBRIDGE_CONFIG"); envConfig != "" && cliCfg.ConfigPath == "" {
		cliCfg.ConfigPath = envConfig
	}
	return cliCfg
}

func validateFlags(cliCfg *CLIConfig) error {
	if cliCfg.ShowVersion || cliCfg.Validate {
		return nil
	}
	if cliCfg.InputPath == "" && cliCfg.InputDir == "" {
		return fmt.Errorf("one of -input or -input-dir is required")
	}
	if cliCfg.InputPath != "" && cliCfg.InputDir != "" {
		return fmt.Errorf("-input and -input-dir are mutually exclusive")
	}
	if cliCfg.Workers <= 0 {
		return fmt.Errorf("-workers must be positive")
	}

	path := cliCfg.InputPath
	if path == "" {
		path = cliCfg.InputDir
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("input %s: %w", path, err)
	}
	return nil
}
