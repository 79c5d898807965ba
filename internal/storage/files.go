package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportFileName is the file name a report for username generated at t is
// saved under.
func ReportFileName(username string, t time.Time) string {
	return fmt.Sprintf("reddit_analysis_%s_%s.txt", filepath.Base(username), t.Format("20060102_150405"))
}

// WriteReportFile writes body to dir and returns the file path.
func WriteReportFile(dir, username, body string, t time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFileName(username, t))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
