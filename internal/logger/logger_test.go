package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf)

	l.Warn("page skipped", Fields{"source": "Moshtix", "page": 3})

	var e struct {
		Timestamp string                 `json:"timestamp"`
		Level     string                 `json:"level"`
		Message   string                 `json:"message"`
		Fields    map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("log line is not JSON: %v\ngot: %s", err, buf.String())
	}
	if e.Level != "WARN" || e.Message != "page skipped" {
		t.Errorf("entry = %+v", e)
	}
	if e.Fields["source"] != "Moshtix" {
		t.Errorf("fields = %v", e.Fields)
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		t.Errorf("timestamp %q not RFC3339", e.Timestamp)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Debug("dropped", nil)
	l.Info("dropped", nil)
	l.Warn("kept", nil)
	l.Error("kept", nil, errors.New("boom"))

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Errorf("got %d lines, want 2:\n%s", lines, buf.String())
	}
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("error field missing:\n%s", buf.String())
	}
}

func TestMetricsCountersAndTimings(t *testing.T) {
	m := NewMetrics()

	m.Add("records", 3)
	m.Add("records", 2)
	m.RecordTiming("crawl", 10*time.Millisecond)
	m.RecordTiming("crawl", 30*time.Millisecond)

	if got := m.Counter("records"); got != 5 {
		t.Errorf("Counter = %d, want 5", got)
	}

	snap := m.Snapshot()
	counters := snap["counters"].(map[string]int64)
	if counters["records"] != 5 {
		t.Errorf("snapshot counters = %v", counters)
	}
	timings := snap["timings"].(map[string]map[string]string)
	if timings["crawl"]["count"] != "2" {
		t.Errorf("snapshot timings = %v", timings)
	}
	if timings["crawl"]["average"] != "20ms" {
		t.Errorf("average = %q, want 20ms", timings["crawl"]["average"])
	}
}

func TestCounterUnknownNameIsZero(t *testing.T) {
	if got := NewMetrics().Counter("nope"); got != 0 {
		t.Errorf("Counter = %d, want 0", got)
	}
}
