package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Compose joins the non-empty parts with a single blank line. Each part is
// tidied first, so runs of blank lines inside a part collapse to one.
func Compose(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := tidy(part); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n\n")
}

// tidy trims trailing whitespace on every line, collapses consecutive blank
// lines, and trims the result.
func tidy(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// Blockquote prefixes every non-empty line with "> " and separates lines with
// a quoted blank line, the way chat clients expect multi-line quotes.
func Blockquote(s string) string {
	var lines []string
	for _, line := range strings.Split(tidy(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, "> "+line)
		}
	}
	return strings.Join(lines, "\n>\n")
}

// Elapsed renders a duration rounded to whole seconds.
func Elapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}

// Percent renders a completed fraction as a percentage.
func Percent(fraction float64) string {
	pct := math.Round(fraction*1000) / 10
	if pct == math.Trunc(pct) {
		return strconv.FormatInt(int64(pct), 10) + "%"
	}
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// HostLabel combines a configured host alias with the machine hostname.
func HostLabel(custom, machine string) string {
	custom = strings.TrimSpace(custom)
	machine = strings.TrimSpace(machine)
	switch {
	case custom == "" || custom == machine:
		return machine
	case machine == "":
		return custom
	default:
		return fmt.Sprintf("%s(%s)", custom, machine)
	}
}
