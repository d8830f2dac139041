package index

import (
	"bytes"
	"fmt"
)

// bulkOp is one action in a bulk request: a delete, or an index carrying a
// document body.
type bulkOp struct {
	action string // "index" or "delete"
	id     string
	doc    []byte // nil for deletes
}

// encodeBulk renders operations as NDJSON for the bulk API.
func encodeBulk(ops []bulkOp) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		fmt.Fprintf(&buf, `{"%s":{"_id":%q}}`, op.action, op.id)
		buf.WriteByte('\n')
		if op.action == "index" {
			buf.Write(op.doc)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// splitOps partitions operations into batches of at most max actions.
func splitOps(ops []bulkOp, max int) [][]bulkOp {
	if len(ops) == 0 {
		return nil
	}
	var batches [][]bulkOp
	for start := 0; start < len(ops); start += max {
		end := start + max
		if end > len(ops) {
			end = len(ops)
		}
		batches = append(batches, ops[start:end])
	}
	return batches
}
