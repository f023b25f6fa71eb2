package main

import (
	"log/slog"

	"github.com/smartxaudio/rtpipeline/internal/logging"
)

var logger = func() *slog.Logger {
	l := logging.ForService("pipelinetop")
	if l == nil {
		l = slog.Default()
	}
	return l
}()
