package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/academy/internal/config"
	"github.com/xraph/academy/internal/logging"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "JSON"})
	logger.Info("hello", "user_id", 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["user_id"] != float64(7) {
		t.Errorf("record = %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		warnSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"", false, true},
		{"error", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewWithWriter(&buf, config.LoggingConfig{Level: tt.level})
			logger.Debug("dbg")
			logger.Warn("wrn")
			out := buf.String()
			if got := strings.Contains(out, "msg=dbg"); got != tt.debugSeen {
				t.Errorf("debug seen = %v, want %v", got, tt.debugSeen)
			}
			if got := strings.Contains(out, "msg=wrn"); got != tt.warnSeen {
				t.Errorf("warn seen = %v, want %v", got, tt.warnSeen)
			}
		})
	}
}
