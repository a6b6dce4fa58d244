package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupWriter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := SetupWriter(&buf, "warn", false)
	logger.Info().Msg("hidden")
	logger.Warn().Str("symbol", "AAA").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"symbol":"AAA"`) || !strings.Contains(out, `"service":"losers-alert"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestSetupWriter_BadLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	SetupWriter(&buf, "loud", false)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", zerolog.GlobalLevel())
	}
}
