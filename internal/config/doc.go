// Package config handles loading the Skillfinite client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. Load an optional .env file from the working directory
//  2. If a path is explicitly provided, use it
//  3. Otherwise, use ~/.config/skillfinite/config.toml (default)
//  4. If the config file doesn't exist, fall back to hardcoded defaults
//  5. If the file exists but fields are missing/empty, use defaults
//  6. SKILLFINITE_API_URL, when set, wins over api_url
//
// # Default Values
//
//   - Config file: ~/.config/skillfinite/config.toml
//   - API base URL: https://api.skillfinite.com
//   - Data directory: ~/.local/share/skillfinite
//   - Cache file: <data_dir>/cache.toml
//   - Log file: <data_dir>/skillfinite.log
//   - Poll interval: 30s, request timeout: 15s, retry attempts: 3
//
// # TOML Format
//
//	api_url = "https://api.skillfinite.com"
//	data_dir = "~/.local/share/skillfinite"
//	log_file = "~/.local/share/skillfinite/skillfinite.log"
//	poll_seconds = 30
//	request_timeout_seconds = 15
//	retry_attempts = 3
//	theme = "Dracula"
//
// All fields are optional. Tilde expansion is performed for data_dir and log_file.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parse errors
//
// A missing .env file is not an error.
package config
