package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		conf Config
		want zerolog.Level
	}{
		{conf: Config{}, want: zerolog.InfoLevel},
		{conf: Config{Debug: true}, want: zerolog.DebugLevel},
		{conf: Config{Level: "WARN"}, want: zerolog.WarnLevel},
		{conf: Config{Level: "nonsense", Debug: true}, want: zerolog.DebugLevel},
	}
	for _, tc := range tests {
		if got := level(&tc.conf); got != tc.want {
			t.Fatalf("level(%+v) = %s, want %s", tc.conf, got, tc.want)
		}
	}
}

func TestInitWriterFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(func() { Init() })

	log.Debug().Msg("hidden")
	log.Info().Str("thread_id", "t1").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %s", out)
	}
	if !strings.Contains(out, `"thread_id":"t1"`) {
		t.Fatalf("expected structured field, got %s", out)
	}
}
