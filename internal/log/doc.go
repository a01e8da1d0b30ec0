// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - attributes whose key names a secret (api_key, token, password, dsn)
//   - values that look like a secret (OpenAI keys, JWTs, bearer tokens)
//   - API keys, bearer tokens and connection string passwords embedded in
//     messages and error values
//
// Even in verbose mode, sensitive values are masked so that build logs
// can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Info("connecting", "source", "postgres://crawler:hunter2@db/crawler")
//	// source=postgres://crawler:***REDACTED***@db/crawler
package log
