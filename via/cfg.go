package via

import (
	"fmt"
	"strings"
	"time"
)

type LogLevel int

const (
	undefined LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// ParseLogLevel maps "error", "warn", "info" or "debug" to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	}
	return undefined, fmt.Errorf("unknown log level %q", s)
}

// Options defines configuration options for the via application
type Options struct {
	// The http server address. e.g. ':3000'
	ServerAddress string

	// Level of the logs to write to stdout.
	// Options: Error, Warn, Info, Debug.
	LogLvl LogLevel

	// The title of the HTML document.
	DocumentTitle string

	// Where the browser loads the datastar client from.
	DatastarURL string

	// ContextTTL is how long a page context waits for its SSE stream
	// before it is dropped. Default is 30 minutes. A negative value
	// disables the cleanup.
	ContextTTL time.Duration
}
