package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kalambet/persona/internal/batch"
	"github.com/kalambet/persona/internal/persona"
)

const menu = `
🎯 ANALYSIS OPTIONS:
   1. Analyze a Reddit user
   2. Batch analyze multiple users
   3. View cache statistics
   4. Clear cache
   5. Exit`

// runInteractive drives the numbered menu until the user exits, input ends
// or ctx is cancelled. Failed analyses are reported and the loop continues.
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, an analyzer, cc cacheController) error {
	banner(out, colorMagenta, "🧠 REDDIT PERSONA ANALYZER", 80)
	fmt.Fprintln(out, colorize(colorMagenta, "⚡ Analysis Engine: Rule-based keyword analysis"))
	fmt.Fprintln(out, colorize(colorMagenta, "🛡️ Privacy: All processing done locally"))

	sc := bufio.NewScanner(in)
	prompt := func(text string) (string, bool) {
		fmt.Fprint(out, colorize(colorYellow, text))
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	for ctx.Err() == nil {
		fmt.Fprintln(out, colorize(colorCyan, menu))
		choice, ok := prompt("\nEnter your choice (1-5): ")
		if !ok {
			break
		}

		switch choice {
		case "1":
			username, ok := prompt("Enter Reddit username (without u/): ")
			if !ok {
				return sc.Err()
			}
			if username == "" {
				fmt.Fprintln(out, colorize(colorRed, "❌ Please enter a valid username"))
				continue
			}
			_ = analyzeUser(ctx, out, an, cc, username, persona.Options{})

		case "2":
			line, ok := prompt("Enter usernames separated by commas: ")
			if !ok {
				return sc.Err()
			}
			names := batch.ParseUsernames(line)
			if len(names) == 0 {
				fmt.Fprintln(out, colorize(colorRed, "❌ Please enter valid usernames"))
				continue
			}
			for _, name := range names {
				if ctx.Err() != nil {
					break
				}
				fmt.Fprintln(out, colorize(colorBlue, "\nAnalyzing: "+name))
				_ = analyzeUser(ctx, out, an, cc, name, persona.Options{})
				fmt.Fprintln(out, "\n"+strings.Repeat("-", 60))
			}

		case "3":
			printCacheStats(out, cc.Stats())

		case "4":
			n := cc.ClearCache()
			fmt.Fprintln(out, colorize(colorGreen, fmt.Sprintf("✅ Cache cleared successfully (%d entries removed)", n)))

		case "5":
			fmt.Fprintln(out, colorize(colorGreen, "👋 Thanks for using Reddit Persona Analyzer!"))
			return nil

		default:
			fmt.Fprintln(out, colorize(colorRed, "❌ Invalid choice. Please enter 1-5"))
		}
	}

	if ctx.Err() != nil {
		fmt.Fprintln(out, colorize(colorYellow, "\n⚠️ Analysis interrupted by user"))
		return nil
	}
	return sc.Err()
}
