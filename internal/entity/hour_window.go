package entity

import (
	"path/filepath"
	"strings"
	"time"
)

const hourKeyLayout = "20060102-15"

// HourWindow is the unit of work of one pipeline iteration.
type HourWindow struct {
	Hour time.Time
}

func NewHourWindow(t time.Time) HourWindow {
	return HourWindow{Hour: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())}
}

// Key is the yyyyMMdd-HH name shared by the temp file, the output and storage keys.
func (w HourWindow) Key() string {
	return w.Hour.Format(hourKeyLayout)
}

// DumpURL fills the #{year}, #{month}, #{isoDate} and #{hhmmss} placeholders of tmpl.
func (w HourWindow) DumpURL(tmpl string) string {
	return strings.NewReplacer(
		"#{year}", w.Hour.Format("2006"),
		"#{month}", w.Hour.Format("01"),
		"#{isoDate}", w.Hour.Format("20060102"),
		"#{hhmmss}", w.Hour.Format("150405"),
	).Replace(tmpl)
}

func (w HourWindow) TempPath(tempDir string) string {
	return filepath.Join(tempDir, w.Key()+".gz")
}

func (w HourWindow) OutputPath(outputDir string) string {
	return filepath.Join(outputDir, w.Key())
}
