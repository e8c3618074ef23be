package logger

import (
	"log/slog"
	"time"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
)

// Attribute helpers return an empty Attr for zero values, which slog
// drops, so callers can pass them unconditionally.

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// KeyID creates a "kid" attribute.
func KeyID(kid string) slog.Attr {
	if kid == "" {
		return slog.Attr{}
	}
	return slog.String("kid", kid)
}

// Algorithm creates an "alg" attribute.
func Algorithm(alg jwa.Algorithm) slog.Attr {
	if alg == "" {
		return slog.Attr{}
	}
	return slog.String("alg", alg.String())
}

// URL creates a "url" attribute.
func URL(url string) slog.Attr {
	if url == "" {
		return slog.Attr{}
	}
	return slog.String("url", url)
}

// Path creates a "path" attribute.
func Path(path string) slog.Attr {
	if path == "" {
		return slog.Attr{}
	}
	return slog.String("path", path)
}

// Count creates a "count" attribute.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Duration creates a "duration" attribute.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
