// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, X-Api-Key) configured for probes
//   - Secret values detected by pattern matching (bearer tokens, JWTs, keys)
//   - Credentials inside stream links: userinfo passwords and token-like
//     query parameters such as ?token= or ?sig=
//
// Even in verbose mode, sensitive values are masked so that logs of a scan
// over a private playlist can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Debug("probe failed",
//	    "link", "http://user:pw@cdn.example.com/live.m3u8?token=abc", // password and token masked
//	)
//	slog.SetDefault(logger)
package log
