// Package config provides centralized configuration management for TrendLens.
// It loads settings from the environment and an optional YAML file, validates
// them, and exposes a typed Config to the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern TRENDLENS_<SECTION>_<FIELD>:
//
//	TRENDLENS_SERVER_PORT=8080
//	TRENDLENS_LOGGING_LEVEL=debug
//	TRENDLENS_ANALYSIS_DEFAULT_K=4
//	TRENDLENS_ANALYSIS_SEED=42
//	TRENDLENS_STORE_TTL=30m
//
// TRENDLENS_CONFIG_FILE points at an explicit YAML file. Otherwise
// config.yaml and configs/config.yaml are searched.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// config.Default() returns a fully populated configuration that needs no
// environment variables or files.
package config
