package entity

import (
	"path/filepath"
	"testing"
	"time"
)

const wikimediaTemplate = "https://dumps.wikimedia.org/other/pageviews/#{year}/#{year}-#{month}/pageviews-#{isoDate}-#{hhmmss}.gz"

func TestHourWindowPaths(t *testing.T) {
	w := NewHourWindow(time.Date(2020, 3, 7, 9, 30, 0, 0, time.UTC))

	if got, want := w.Key(), "20200307-09"; got != want {
		t.Errorf("Key = %q, want %q", got, want)
	}
	if got, want := w.DumpURL(wikimediaTemplate), "https://dumps.wikimedia.org/other/pageviews/2020/2020-03/pageviews-20200307-090000.gz"; got != want {
		t.Errorf("DumpURL = %q, want %q", got, want)
	}
	if got, want := w.TempPath("temp"), filepath.Join("temp", "20200307-09.gz"); got != want {
		t.Errorf("TempPath = %q, want %q", got, want)
	}
	if got, want := w.OutputPath("output"), filepath.Join("output", "20200307-09"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestNewHourWindowTruncates(t *testing.T) {
	w := NewHourWindow(time.Date(2020, 3, 7, 23, 59, 59, 1, time.UTC))
	if w.Hour.Minute() != 0 || w.Hour.Second() != 0 || w.Hour.Nanosecond() != 0 {
		t.Errorf("Hour not truncated: %v", w.Hour)
	}
	if w.Hour.Hour() != 23 {
		t.Errorf("Hour = %d, want 23", w.Hour.Hour())
	}
}
