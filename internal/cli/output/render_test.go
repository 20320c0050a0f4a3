package output

import (
	"bytes"
	"strings"
	"testing"
)

type listStub struct {
	headers []string
	rows    [][]string
}

func (l listStub) Headers() []string { return l.headers }
func (l listStub) Rows() [][]string  { return l.rows }

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	err := PrintTable(&buf, listStub{
		headers: []string{"id", "state"},
		rows:    [][]string{{"0", "open"}, {"1", "sealed"}},
	})
	if err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}

	out := buf.String()
	// Headers are upper-cased by the renderer.
	if !strings.Contains(out, "ID") || !strings.Contains(out, "STATE") {
		t.Errorf("table misses headers:\n%s", out)
	}
	if !strings.Contains(out, "sealed") {
		t.Errorf("table misses row data:\n%s", out)
	}
	if strings.Contains(out, "|") || strings.Contains(out, "+") {
		t.Errorf("table should be borderless:\n%s", out)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]int{"blobs": 4}); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}
	want := "{\n  \"blobs\": 4\n}\n"
	if buf.String() != want {
		t.Errorf("PrintJSON = %q, want %q", buf.String(), want)
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintYAML(&buf, []string{"a", "b"}); err != nil {
		t.Fatalf("PrintYAML failed: %v", err)
	}
	want := "- a\n- b\n"
	if buf.String() != want {
		t.Errorf("PrintYAML = %q, want %q", buf.String(), want)
	}
}
