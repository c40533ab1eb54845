package judges

import (
	"context"
	"errors"
	"testing"

	"companion/dom"
	"companion/task"
)

const codeforcesPage = `<!DOCTYPE html>
<html>
<body>
<div id="sidebar">
	<table class="rtable "><tbody>
		<tr><th class="left" style="width:100%;"><a style="color: black" href="/contest/4">Codeforces Beta Round 4 (Div. 2 Only)</a></th></tr>
	</tbody></table>
</div>
<div class="problemindexholder" problemindex="A">
<div class="ttypography">
<div class="problem-statement">
	<div class="header">
		<div class="title">A. Watermelon</div>
		<div class="time-limit"><div class="property-title">time limit per test</div>1 second</div>
		<div class="memory-limit"><div class="property-title">memory limit per test</div>64 megabytes</div>
		<div class="input-file"><div class="property-title">input</div>standard input</div>
		<div class="output-file"><div class="property-title">output</div>standard output</div>
	</div>
	<div><p>One hot summer day Pete and his friend Billy decided to buy a watermelon.</p></div>
	<div class="sample-tests">
		<div class="section-title">Examples</div>
		<div class="sample-test">
			<div class="input"><div class="title">Input</div><pre>
<div class="test-example-line test-example-line-even test-example-line-0">3</div><div class="test-example-line test-example-line-odd test-example-line-1">1 2 3</div></pre></div>
			<div class="output"><div class="title">Output</div><pre>
YES
</pre></div>
			<div class="input"><div class="title">Input</div><pre>1<br />5<br /></pre></div>
			<div class="output"><div class="title">Output</div><pre>NO<br /></pre></div>
		</div>
	</div>
</div>
</div>
</div>
</body>
</html>`

func TestCodeforcesParse(t *testing.T) {
	url := "https://codeforces.com/contest/4/problem/A"
	tk, err := NewCodeforces().Parse(context.Background(), url, codeforcesPage)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if tk.Name() != "A. Watermelon" {
		t.Errorf("Name() = %q, expected 'A. Watermelon'", tk.Name())
	}
	if tk.Group() != "Codeforces - Codeforces Beta Round 4 (Div. 2 Only)" {
		t.Errorf("Group() = %q", tk.Group())
	}
	if tk.TimeLimitMs() != 1000 {
		t.Errorf("TimeLimitMs() = %d, expected 1000", tk.TimeLimitMs())
	}
	if tk.MemoryLimitMb() != 64 {
		t.Errorf("MemoryLimitMb() = %d, expected 64", tk.MemoryLimitMb())
	}

	tests := tk.Tests()
	if len(tests) != 2 {
		t.Fatalf("expected 2 tests, got %d", len(tests))
	}
	if tests[0] != (task.Test{Input: "3\n1 2 3", Output: "YES"}) {
		t.Errorf("tests[0] = %+v", tests[0])
	}
	if tests[1] != (task.Test{Input: "1\n5", Output: "NO"}) {
		t.Errorf("tests[1] = %+v", tests[1])
	}
}

func TestCodeforcesWithoutContestName(t *testing.T) {
	page := `<div class="problem-statement"><div class="header">
<div class="title">B. Gym Task</div>
<div class="time-limit">time limit per test2.5 seconds</div>
<div class="memory-limit">memory limit per test262144 kilobytes</div>
</div></div>`

	tk, err := NewCodeforces().Parse(context.Background(), "https://codeforces.com/gym/100001/problem/B", page)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tk.Group() != "Codeforces" {
		t.Errorf("Group() = %q, expected 'Codeforces'", tk.Group())
	}
	if tk.TimeLimitMs() != 2500 || tk.MemoryLimitMb() != 256 {
		t.Errorf("limits = %d ms / %d MB, expected 2500 / 256", tk.TimeLimitMs(), tk.MemoryLimitMb())
	}
}

func TestCodeforcesFailures(t *testing.T) {
	cases := map[string]string{
		"no statement": `<div class="main"></div>`,
		"no time limit": `<div class="problem-statement"><div class="header">
<div class="title">A. X</div><div class="memory-limit">256 megabytes</div></div></div>`,
		"unreadable memory": `<div class="problem-statement"><div class="header">
<div class="title">A. X</div><div class="time-limit">1 second</div>
<div class="memory-limit">a lot</div></div></div>`,
	}
	for name, page := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCodeforces().Parse(context.Background(), "https://codeforces.com/contest/1/problem/A", page)
			var xerr *dom.ExtractionError
			if !errors.As(err, &xerr) {
				t.Errorf("expected ExtractionError, got %v", err)
			}
		})
	}
}
