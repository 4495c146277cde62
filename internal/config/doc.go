// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for dagan.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Chat backend endpoint settings
//   - ServerConfig: Proxy server settings (serve mode)
//   - StorageConfig: Conversation persistence settings
//   - UIConfig: Terminal UI settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DAGAN_*, OPENAI_API_KEY)
//   - ~/.dagan/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	endpoint := cfg.Backend.URL
//	prompt := cfg.Backend.SystemPrompt
package config
