// Package logger configures the global zerolog logger. Output goes to
// stdout and, when a path is configured, a rotating-friendly append-only
// file as well.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var once sync.Once

// Init configures the global logger. Safe to call more than once; only
// the first call takes effect.
func Init(logFilePath string) {
	once.Do(func() {
		writers := []io.Writer{os.Stdout}

		if logFilePath != "" {
			file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
			if err != nil {
				// Can't use the logger yet, so stderr it is.
				os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
			} else {
				writers = append(writers, file)
			}
		}

		multi := zerolog.MultiLevelWriter(writers...)
		log.Logger = zerolog.New(multi).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	})
}
