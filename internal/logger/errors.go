package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty rejects a logger setup without Log.AppName; every log
	// line is tagged with it.
	ErrAppNameIsEmpty = errors.New("logger: Log.AppName must be set")

	// ErrServiceNameIsEmpty rejects a logger setup without Log.ServiceName,
	// which labels the per-level log statement metrics.
	ErrServiceNameIsEmpty = errors.New("logger: Log.ServiceName must be set")
)

// WriteErrorHandler reports events the sink could not take. It goes straight
// to stderr: the logger itself is the thing that failed here.
func WriteErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "zerolog: dropped log event: %v\n", err)
}
