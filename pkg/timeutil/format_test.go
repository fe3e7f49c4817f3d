package timeutil

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:      "0ms",
		450:    "450ms",
		1200:   "1.2s",
		10000:  "10.0s",
		135300: "2m 15.3s",
	}
	for ms, want := range cases {
		if got := FormatDuration(ms); got != want {
			t.Errorf("FormatDuration(%d): expected %q, got %q", ms, want, got)
		}
	}
}

func TestFramesToDuration(t *testing.T) {
	if got := FramesToDuration(600, 60); got != 10*time.Second {
		t.Errorf("600 frames at 60fps: expected 10s, got %s", got)
	}
	if got := FramesToDuration(30, 60); got != 500*time.Millisecond {
		t.Errorf("30 frames at 60fps: expected 500ms, got %s", got)
	}
	if got := FramesToDuration(10, 0); got != 0 {
		t.Errorf("zero rate: expected 0, got %s", got)
	}
}

func TestFormatFrames(t *testing.T) {
	if got := FormatFrames(600, 60); got != "600 frames (10.0s)" {
		t.Errorf("FormatFrames(600): got %q", got)
	}
	if got := FormatFrames(1, 60); got != "1 frame (16ms)" {
		t.Errorf("FormatFrames(1): got %q", got)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{5 * time.Second, "5s ago"},
		{3 * time.Minute, "3m ago"},
		{2 * time.Hour, "2h ago"},
		{49 * time.Hour, "2d ago"},
	}
	for _, c := range cases {
		if got := RelativeTime(now.Add(-c.ago).UnixNano()); got != c.want {
			t.Errorf("RelativeTime(-%s): expected %q, got %q", c.ago, c.want, got)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 5, 9, 123_000_000, time.Local).UnixNano()
	if got := FormatTimestamp(ts); got != "14:05:09.123" {
		t.Errorf("FormatTimestamp: got %q", got)
	}
	if got := FormatTimestampFull(ts); got != "2024-03-01 14:05:09.123" {
		t.Errorf("FormatTimestampFull: got %q", got)
	}
}
