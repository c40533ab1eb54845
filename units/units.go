// Package units converts the time and memory limits judges publish into the
// milliseconds and megabytes a task stores.
//
// Conversions return float64 values; the task builder floors them so a limit
// is never overstated.
package units

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeToMs converts value, expressed in unit, to milliseconds.
// Accepted units: ms, s/sec/second(s), min/minute(s). An empty unit means seconds.
func TimeToMs(value float64, unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "ms", "msec", "millisecond", "milliseconds":
		return value, nil
	case "", "s", "sec", "secs", "second", "seconds":
		return value * 1000, nil
	case "min", "mins", "minute", "minutes":
		return value * 60 * 1000, nil
	}
	return 0, fmt.Errorf("unknown time unit %q", unit)
}

// MemoryToMB converts value, expressed in unit, to megabytes.
// Binary and decimal spellings are treated alike (1 MB = 1 MiB = 1024 KB).
// An empty unit means megabytes.
func MemoryToMB(value float64, unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "b", "byte", "bytes":
		return value / 1024 / 1024, nil
	case "k", "kb", "kib", "kilobyte", "kilobytes":
		return value / 1024, nil
	case "", "m", "mb", "mib", "megabyte", "megabytes":
		return value, nil
	case "g", "gb", "gib", "gigabyte", "gigabytes":
		return value * 1024, nil
	}
	return 0, fmt.Errorf("unknown memory unit %q", unit)
}

var quantityRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*([A-Za-z]*)`)

// ParseQuantity reads a leading number and its unit suffix, e.g. "1.50s",
// "128MB" or "256 megabytes". Trailing text after the unit is ignored.
func ParseQuantity(s string) (float64, string, error) {
	m := quantityRe.FindStringSubmatch(s)
	if m == nil {
		return 0, "", fmt.Errorf("no quantity in %q", s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", fmt.Errorf("parsing %q: %w", m[1], err)
	}
	return v, m[2], nil
}

// ParseTime parses text like "2s" or "1000 ms" into milliseconds.
func ParseTime(s string) (float64, error) {
	v, unit, err := ParseQuantity(s)
	if err != nil {
		return 0, err
	}
	return TimeToMs(v, unit)
}

// ParseMemory parses text like "256MB" or "1.00GB" into megabytes.
func ParseMemory(s string) (float64, error) {
	v, unit, err := ParseQuantity(s)
	if err != nil {
		return 0, err
	}
	return MemoryToMB(v, unit)
}

// Max returns the largest of values, the binding limit when a judge lists
// several (per-language overrides, per-subtask limits). It fails on an empty list.
func Max(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("no values")
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}
