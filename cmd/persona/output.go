package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/persona/internal/persona"
)

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorBold    = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

func banner(w io.Writer, color, title string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Fprintln(w, colorize(color, rule))
	fmt.Fprintln(w, colorize(color, title))
	fmt.Fprintln(w, colorize(color, rule))
}

// printPerformance writes the timing summary shown after an analysis.
// It is kept out of the report so saved reports stay reproducible.
func printPerformance(w io.Writer, res persona.Result, cacheHits int64) {
	total := res.FetchTime + res.AnalysisTime
	lines := []string{
		"",
		"⚡ PERFORMANCE SUMMARY:",
		fmt.Sprintf("   Total Time: %.2f seconds", total.Seconds()),
		fmt.Sprintf("   Analysis Time: %.2f seconds", res.AnalysisTime.Seconds()),
		fmt.Sprintf("   Data Points: %d posts, %d comments", res.Profile.PostCount, res.Profile.CommentCount),
		fmt.Sprintf("   Cache Hits: %d", cacheHits),
	}
	fmt.Fprintln(w, colorize(colorCyan, strings.Join(lines, "\n")))
}
