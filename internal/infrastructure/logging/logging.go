// Package logging 設定全域 zerolog logger。
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup 依等級與輸出格式設定全域 logger；無法解析的等級退回 info。
func Setup(level string, pretty bool) zerolog.Logger {
	return SetupWriter(os.Stderr, level, pretty)
}

// SetupWriter 同 Setup，但可指定輸出目的地（測試用）。
func SetupWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	logger := zerolog.New(out).With().Timestamp().Str("service", "losers-alert").Logger()
	log.Logger = logger
	return logger
}
