package main

/*
liscan — scanner for registrable .li domain labels
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/x-stp/liscan/internal/candidate"
	"github.com/x-stp/liscan/internal/config"
	"github.com/x-stp/liscan/internal/core"
	"github.com/x-stp/liscan/internal/whois"
)

// ANSI colours for console output.
const (
	green  = "\033[92m"
	yellow = "\033[93m"
	red    = "\033[91m"
	reset  = "\033[0m"
)

// previewLength bounds the raw response excerpt printed for error results.
const previewLength = 100

var colorOutput = isTerminal(os.Stdout)

func isTerminal(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func colorize(color, text string) string {
	if !colorOutput {
		return text
	}
	return color + text + reset
}

// reporter prints one block per result. Registered domains are only shown
// in verbose mode.
type reporter struct {
	verbose bool
	pacer   *core.Pacer
	count   atomic.Int64
}

func newReporter(verbose bool) *reporter {
	return &reporter{verbose: verbose}
}

// Handle implements core.Sink.
func (r *reporter) Handle(res whois.Result) error {
	n := r.count.Add(1)

	if r.verbose || res.Status != whois.Unavailable {
		fmt.Printf("[%d] %-25s ... %s\n", n, res.Domain, res.Description)
		if res.Status.IsError() || res.Status == whois.RateLimited {
			fmt.Printf("    raw response/error: %s\n", res.Preview(previewLength))
		}
		if res.Attempts > 1 {
			fmt.Printf("    attempts: %d\n", res.Attempts)
		}
	}

	switch res.Status {
	case whois.Available:
		fmt.Println(colorize(green, "  -> available: "+res.Domain))
	case whois.RateLimited:
		fmt.Println(colorize(yellow, fmt.Sprintf("  -> rate limited! pausing %.1f seconds...", r.penalty(res.Status))))
	case whois.ServerError:
		fmt.Println(colorize(yellow, fmt.Sprintf("  -> temporary server error, pausing %.1f seconds...", r.penalty(res.Status))))
	}
	return nil
}

func (r *reporter) penalty(s whois.Status) float64 {
	if r.pacer == nil {
		return 0
	}
	return r.pacer.Penalty(s).Seconds()
}

// printScanConfig shows the effective configuration before scanning.
func printScanConfig(cfg *config.ScanConfig, p *candidate.Pipeline) {
	fmt.Printf("\n--- Scan configuration ---\n")
	fmt.Printf("  Label length: %d\n", cfg.Length)
	fmt.Printf("       Charset: %s (alphabet: '%s')\n", cfg.Charset, p.Alphabet())
	fmt.Printf("       Hyphens: %s\n", hyphenRule(p.HyphenAllowed()))
	fmt.Printf("       Methods: %s\n", joinMethods(cfg.Methods))
	if cfg.Enabled(candidate.MethodRepeats) {
		fmt.Printf("   Min repeats: %d\n", cfg.MinRepeats)
	}
	if cfg.Enabled(candidate.MethodDict) {
		fmt.Printf("     Word list: %s\n", cfg.DictFile)
	}
	if cfg.Enabled(candidate.MethodPinyin) {
		fmt.Printf("   Pinyin list: %s\n", cfg.PinyinDictFile)
	}
	if cfg.DelaySeconds > 0 {
		fmt.Printf("   Query delay: %g seconds\n", cfg.DelaySeconds)
	} else {
		fmt.Println(colorize(yellow, "Warning: query delay is 0, the server will rate limit quickly!"))
	}
	if cfg.MaxPerMinute > 0 {
		fmt.Printf("  Rate ceiling: %d queries/minute\n", cfg.MaxPerMinute)
	}
	fmt.Printf("   Max retries: %d\n", cfg.MaxRetries)
	fmt.Printf("        Server: %s:%d (.%s)\n", cfg.Server.Host, cfg.Server.Port, strings.TrimPrefix(cfg.Server.TLD, "."))
	fmt.Println(strings.Repeat("-", 26))
}

func hyphenRule(allowed bool) string {
	if allowed {
		return "allowed, not at the start or end"
	}
	return "not allowed"
}

func joinMethods(ms []candidate.Method) string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, string(m))
	}
	return strings.Join(names, ",")
}

// displayFinalScanStats shows the summary after a scan ends or is
// interrupted.
func displayFinalScanStats(cfg *config.ScanConfig, snap core.Snapshot, gen candidate.PipelineStats) {
	fmt.Println()
	fmt.Printf("--- Final Scan Statistics ---\n")
	fmt.Printf("            Run: %s\n", snap.RunID)
	fmt.Printf("  Configuration: length=%d, charset=%s, methods=%s\n", cfg.Length, cfg.Charset, joinMethods(cfg.Methods))
	fmt.Println(strings.Repeat("-", 20))
	displayCounters(snap)
	fmt.Printf("     Candidates: %d generated, %d invalid, %d duplicate\n", gen.Produced, gen.Invalid, gen.Duplicate)

	if cfg.Output != "" {
		fmt.Printf("Available domains saved to: %s\n", cfg.Output)
	}
	if cfg.LiveLog != "" {
		fmt.Printf("Live log saved to: %s\n", cfg.LiveLog)
	}
	if snap.Queried > 0 {
		fmt.Printf("   Success rate: %.2f%%\n", snap.SuccessRate())
	}
	fmt.Printf("-----------------------------\n")
}

// displayFinalCheckStats shows the summary of a check run.
func displayFinalCheckStats(snap core.Snapshot) {
	fmt.Println()
	fmt.Printf("--- Final Check Statistics ---\n")
	displayCounters(snap)
	fmt.Printf("------------------------------\n")
}

func displayCounters(snap core.Snapshot) {
	fmt.Printf("        Checked: %d\n", snap.Queried)
	fmt.Printf("      Available: %s\n", colorize(green, fmt.Sprint(snap.Available)))
	fmt.Printf("   Rate limited: %s\n", colorize(yellow, fmt.Sprint(snap.RateLimited)))
	fmt.Printf("   Other errors: %s\n", colorize(red, fmt.Sprint(snap.Errored)))
	fmt.Printf("        Retries: %d\n", snap.Retries)
	fmt.Printf("   Elapsed time: %v\n", snap.Elapsed.Round(10*time.Millisecond))
	if rate, ok := snap.Rate(); ok {
		fmt.Printf("  Average speed: %.2f domains/sec (including delays)\n", rate)
	} else if snap.Queried > 0 {
		fmt.Printf("  Average speed: N/A (elapsed time too short)\n")
	}
}
