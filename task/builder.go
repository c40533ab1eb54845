package task

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// ValidationError is returned by Build when the accumulated fields cannot
// form a valid task.
type ValidationError struct {
	Judge  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s task: invalid %s: %s", e.Judge, e.Field, e.Reason)
}

// floorSlack absorbs binary floating point noise so that values like
// 2.3*1000 floor to 2300 rather than 2299.
const floorSlack = 1e-6

// Builder accumulates task fields for a single parse call.
// It is not safe for concurrent use and must not be reused after Build.
type Builder struct {
	judge    string
	category string
	url      string
	name     string
	nameSet  bool
	timeMs   float64
	timeSet  bool
	memoryMb float64
	memSet   bool
	tests    []Test
}

// NewBuilder starts an empty task for the given judge.
func NewBuilder(judge string) *Builder {
	return &Builder{judge: judge, tests: []Test{}}
}

// SetURL records the page the task comes from.
func (b *Builder) SetURL(url string) *Builder {
	b.url = url
	return b
}

// SetName records the task title, trimmed of surrounding whitespace.
func (b *Builder) SetName(name string) *Builder {
	b.name = strings.TrimSpace(name)
	b.nameSet = true
	return b
}

// SetCategory refines the task group, e.g. with a contest name.
func (b *Builder) SetCategory(category string) *Builder {
	b.category = strings.TrimSpace(category)
	return b
}

// SetTimeLimit records the time limit in milliseconds. Callers convert units
// before calling; fractional milliseconds are floored at Build.
func (b *Builder) SetTimeLimit(ms float64) *Builder {
	b.timeMs = ms
	b.timeSet = true
	return b
}

// SetMemoryLimit records the memory limit in megabytes. Fractional megabytes
// are floored at Build.
func (b *Builder) SetMemoryLimit(mb float64) *Builder {
	b.memoryMb = mb
	b.memSet = true
	return b
}

// AddTest appends a sample. Surrounding whitespace is trimmed and CRLF line
// endings are folded to LF on both sides.
func (b *Builder) AddTest(input, output string) *Builder {
	b.tests = append(b.tests, Test{
		Input:  normalizeSample(input),
		Output: normalizeSample(output),
	})
	return b
}

// Build validates the fields and returns an immutable Task.
func (b *Builder) Build() (*Task, error) {
	if !b.nameSet || b.name == "" {
		return nil, b.invalid("name", "missing or blank")
	}
	if !b.timeSet {
		return nil, b.invalid("time limit", "not set")
	}
	timeMs, err := normalizeLimit(b.timeMs)
	if err != nil {
		return nil, b.invalid("time limit", err.Error())
	}
	if !b.memSet {
		return nil, b.invalid("memory limit", "not set")
	}
	memoryMb, err := normalizeLimit(b.memoryMb)
	if err != nil {
		return nil, b.invalid("memory limit", err.Error())
	}

	group := b.judge
	if b.category != "" {
		group = b.judge + " - " + b.category
	}

	tests := make([]Test, len(b.tests))
	copy(tests, b.tests)

	return &Task{
		name:          b.name,
		group:         group,
		url:           b.url,
		timeLimitMs:   timeMs,
		memoryLimitMb: memoryMb,
		tests:         tests,
		batch:         Batch{ID: uuid.NewString(), Size: 1},
	}, nil
}

func (b *Builder) invalid(field, reason string) error {
	return &ValidationError{Judge: b.judge, Field: field, Reason: reason}
}

func normalizeLimit(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%v is not finite", v)
	}
	n := math.Floor(v + floorSlack)
	if n <= 0 {
		return 0, fmt.Errorf("%v is not positive", v)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%v is out of range", v)
	}
	return int(n), nil
}

func normalizeSample(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}
