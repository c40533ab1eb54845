package judges

import (
	"context"
	"errors"
	"testing"

	"companion/dom"
)

const acwingPage = `<!DOCTYPE html>
<html>
<body>
<div class="problem-content-title">3. Sum Problem</div>
<table class="table table-striped">
	<tr><td>时/空限制：2s / 64MB</td></tr>
	<tr><td>总通过数：100</td></tr>
</table>
<div class="martor-preview">
	<h4>输入样例：</h4>
	<pre><code>1 2
</code></pre>
	<h4>输出样例：</h4>
	<pre><code>3
</code></pre>
</div>
</body>
</html>`

func TestAcWingParse(t *testing.T) {
	url := "https://www.acwing.com/problem/content/3/"
	tk, err := NewAcWing().Parse(context.Background(), url, acwingPage)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if tk.Name() != "Sum Problem" {
		t.Errorf("Name() = %q, expected 'Sum Problem'", tk.Name())
	}
	if tk.URL() != url {
		t.Errorf("URL() = %q", tk.URL())
	}
	if tk.Group() != "AcWing" {
		t.Errorf("Group() = %q", tk.Group())
	}
	if tk.TimeLimitMs() != 2000 {
		t.Errorf("TimeLimitMs() = %d, expected 2000", tk.TimeLimitMs())
	}
	if tk.MemoryLimitMb() != 64 {
		t.Errorf("MemoryLimitMb() = %d, expected 64", tk.MemoryLimitMb())
	}

	tests := tk.Tests()
	if len(tests) != 1 {
		t.Fatalf("expected 1 test, got %d", len(tests))
	}
	if tests[0].Input != "1 2" || tests[0].Output != "3" {
		t.Errorf("tests[0] = %+v", tests[0])
	}
}

func TestAcWingKeepsLastTitleSegment(t *testing.T) {
	page := `<div class="problem-content-title">12. Ver. 2. Sum</div>
<table class="table table-striped"><tr><td>1s / 256MB</td></tr></table>`
	tk, err := NewAcWing().Parse(context.Background(), "https://www.acwing.com/problem/content/12/", page)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tk.Name() != "Sum" {
		t.Errorf("Name() = %q, expected 'Sum'", tk.Name())
	}
	if len(tk.Tests()) != 0 {
		t.Errorf("expected no tests, got %d", len(tk.Tests()))
	}
}

func TestAcWingFractionalLimits(t *testing.T) {
	page := `<div class="problem-content-title">7. Half</div>
<table class="table table-striped"><tr><td>时/空限制：1.5s / 64MB</td></tr></table>`
	tk, err := NewAcWing().Parse(context.Background(), "https://www.acwing.com/problem/content/7/", page)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tk.TimeLimitMs() != 1500 {
		t.Errorf("TimeLimitMs() = %d, expected 1500", tk.TimeLimitMs())
	}
	if tk.MemoryLimitMb() != 64 {
		t.Errorf("MemoryLimitMb() = %d, expected 64", tk.MemoryLimitMb())
	}
}

func TestAcWingOddBlocks(t *testing.T) {
	page := `<div class="problem-content-title">1. A</div>
<table class="table table-striped"><tr><td>1s / 256MB</td></tr></table>
<div class="martor-preview"><pre>in1</pre><pre>out1</pre><pre>in2</pre><pre>out2</pre><pre>extra</pre></div>`
	tk, err := NewAcWing().Parse(context.Background(), "https://www.acwing.com/problem/content/1/", page)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := tk.Tests()
	if len(tests) != 2 {
		t.Fatalf("expected 2 tests, got %d", len(tests))
	}
	if tests[0].Input != "in1" || tests[0].Output != "out1" ||
		tests[1].Input != "in2" || tests[1].Output != "out2" {
		t.Errorf("unexpected tests %+v", tests)
	}
}

func TestAcWingFailures(t *testing.T) {
	cases := map[string]string{
		"missing title": `<table class="table table-striped"><tr><td>1s / 256MB</td></tr></table>`,
		"missing table": `<div class="problem-content-title">1. A</div>`,
		"different table": `<div class="problem-content-title">1. A</div>
<table class="table table-striped"><tr><td>Time: one second</td></tr></table>`,
		"no memory": `<div class="problem-content-title">1. A</div>
<table class="table table-striped"><tr><td>1s / unlimited</td></tr></table>`,
	}

	for name, page := range cases {
		t.Run(name, func(t *testing.T) {
			tk, err := NewAcWing().Parse(context.Background(), "https://www.acwing.com/problem/content/1/", page)
			if tk != nil {
				t.Errorf("expected no task, got %q", tk.Name())
			}
			var xerr *dom.ExtractionError
			if !errors.As(err, &xerr) {
				t.Errorf("expected ExtractionError, got %v", err)
			}
		})
	}
}
