package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"hexa-arcade/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
)

// Init configures the global zerolog logger and the shared sink returned by Writer.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var sink io.Writer = os.Stdout
	if path := strings.TrimSpace(cfg.File); path != "" {
		fw, err := newSizeLimitedWriter(path, cfg.MaxMB)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("open log file failed, using stdout")
		} else {
			sink = io.MultiWriter(os.Stdout, fw)
		}
	}
	writerMu.Lock()
	writer = sink
	writerMu.Unlock()

	var output io.Writer = sink
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: sink}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer is the raw sink used by non-zerolog loggers such as the HTTP request logger.
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}
