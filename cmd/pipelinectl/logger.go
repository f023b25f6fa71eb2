package main

import (
	"log/slog"

	"github.com/smartxaudio/rtpipeline/internal/logging"
)

// logger is pipelinectl's own service logger, falling back to slog's
// default the same way every internal package does before logging.Init
// has run (internal/logging.ForService's documented nil case).
var logger = func() *slog.Logger {
	l := logging.ForService("pipelinectl")
	if l == nil {
		l = slog.Default()
	}
	return l
}()
