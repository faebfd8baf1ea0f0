// Package log builds the slog loggers used by tripctl.
//
// Every logger it returns wraps its handler in a SecureHandler, which
// masks bearer tokens, JWTs, email addresses, Firebase ids and join codes
// even at debug level. Seeds and request payloads are logged while
// debugging a flow, and those carry all of the above.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("calling endpoint", "email", "a@b.co") // email=***REDACTED***
package log
