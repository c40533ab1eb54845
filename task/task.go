// Package task holds the normalized description of a programming task and the
// builder that judges use to assemble one from extracted page fragments.
package task

import "encoding/json"

// Test is one sample published by a judge.
type Test struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Batch identifies a group of tasks sent together to a receiving tool.
type Batch struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
}

// Task is a validated, immutable task record. Create one with a Builder.
type Task struct {
	name          string
	group         string
	url           string
	timeLimitMs   int
	memoryLimitMb int
	tests         []Test
	batch         Batch
}

// Name returns the task title without judge numbering.
func (t *Task) Name() string { return t.name }

// Group returns the judge name, followed by " - <category>" when one was set.
func (t *Task) Group() string { return t.group }

// URL returns the page the task was extracted from.
func (t *Task) URL() string { return t.url }

// TimeLimitMs returns the time limit in whole milliseconds.
func (t *Task) TimeLimitMs() int { return t.timeLimitMs }

// MemoryLimitMb returns the memory limit in whole megabytes.
func (t *Task) MemoryLimitMb() int { return t.memoryLimitMb }

// Batch returns the batch the task was built in.
func (t *Task) Batch() Batch { return t.batch }

// Tests returns a copy of the samples in page order.
func (t *Task) Tests() []Test {
	out := make([]Test, len(t.tests))
	copy(out, t.tests)
	return out
}

// Equivalent reports whether two tasks describe the same problem:
// same name, limits and samples. URL, group and batch are ignored.
func (t *Task) Equivalent(o *Task) bool {
	if t.name != o.name || t.timeLimitMs != o.timeLimitMs || t.memoryLimitMb != o.memoryLimitMb {
		return false
	}
	if len(t.tests) != len(o.tests) {
		return false
	}
	for i := range t.tests {
		if t.tests[i] != o.tests[i] {
			return false
		}
	}
	return true
}

type ioSpec struct {
	Type string `json:"type"`
}

// wireTask is the JSON shape receiving tools expect.
type wireTask struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	URL         string `json:"url"`
	Interactive bool   `json:"interactive"`
	MemoryLimit int    `json:"memoryLimit"`
	TimeLimit   int    `json:"timeLimit"`
	Tests       []Test `json:"tests"`
	TestType    string `json:"testType"`
	Input       ioSpec `json:"input"`
	Output      ioSpec `json:"output"`
	Batch       Batch  `json:"batch"`
}

// MarshalJSON encodes the task in the format understood by receiving tools.
func (t *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTask{
		Name:        t.name,
		Group:       t.group,
		URL:         t.url,
		MemoryLimit: t.memoryLimitMb,
		TimeLimit:   t.timeLimitMs,
		Tests:       t.Tests(),
		TestType:    "single",
		Input:       ioSpec{Type: "stdin"},
		Output:      ioSpec{Type: "stdout"},
		Batch:       t.batch,
	})
}
