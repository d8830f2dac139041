package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
)

func TestEncodeBulk(t *testing.T) {
	ops := []bulkOp{
		{action: "delete", id: "old-1"},
		{action: "delete", id: "old-2"},
		{action: "index", id: "new-1", doc: []byte(`{"id":"new-1","text":"hello"}`)},
	}

	body := encodeBulk(ops)

	// Every line must be valid JSON (NDJSON contract of the bulk API).
	scanner := bufio.NewScanner(bytes.NewReader(body))
	var lines []json.RawMessage
	for scanner.Scan() {
		var line json.RawMessage
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, line)
	}

	// 2 delete actions + 1 index action + 1 index document
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}

	var deleteAction map[string]map[string]string
	if err := json.Unmarshal(lines[0], &deleteAction); err != nil {
		t.Fatalf("failed to parse delete action: %v", err)
	}
	if deleteAction["delete"]["_id"] != "old-1" {
		t.Errorf("first delete id = %q, want %q", deleteAction["delete"]["_id"], "old-1")
	}

	var indexAction map[string]map[string]string
	if err := json.Unmarshal(lines[2], &indexAction); err != nil {
		t.Fatalf("failed to parse index action: %v", err)
	}
	if indexAction["index"]["_id"] != "new-1" {
		t.Errorf("index id = %q, want %q", indexAction["index"]["_id"], "new-1")
	}
}

func TestEncodeBulk_Empty(t *testing.T) {
	if body := encodeBulk(nil); len(body) != 0 {
		t.Errorf("encodeBulk(nil) = %q, want empty", body)
	}
}

func TestSplitOps(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		max       int
		wantSizes []int
	}{
		{"under the cap", 3, 500, []int{3}},
		{"exactly the cap", 500, 500, []int{500}},
		{"one over", 501, 500, []int{500, 1}},
		{"multiple batches", 12, 5, []int{5, 5, 2}},
		{"empty", 0, 500, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := make([]bulkOp, tt.total)
			for i := range ops {
				ops[i] = bulkOp{action: "delete", id: fmt.Sprintf("id-%d", i)}
			}

			batches := splitOps(ops, tt.max)
			if len(batches) != len(tt.wantSizes) {
				t.Fatalf("got %d batches, want %d", len(batches), len(tt.wantSizes))
			}

			seen := 0
			for i, batch := range batches {
				if len(batch) != tt.wantSizes[i] {
					t.Errorf("batch %d size = %d, want %d", i, len(batch), tt.wantSizes[i])
				}
				seen += len(batch)
			}
			if seen != tt.total {
				t.Errorf("batches cover %d ops, want %d", seen, tt.total)
			}
		})
	}
}
