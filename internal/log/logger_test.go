package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInit_JSONOutsideDev(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	initTo(&buf, "prod", "")

	log.Debug().Msg("hidden")
	log.Info().Uint("booking_id", 9).Msg("booking confirmed")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %v (%q)", err, buf.String())
	}
	if entry["message"] != "booking confirmed" || entry["env"] != "prod" || entry["booking_id"] != float64(9) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestInit_Levels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	tests := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"dev", "", zerolog.DebugLevel},
		{"prod", "", zerolog.InfoLevel},
		{"prod", "warn", zerolog.WarnLevel},
		{"prod", "loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			initTo(&bytes.Buffer{}, tt.env, tt.level)
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}
