// Package layout computes sequential (C-compatible) and canonical ABI
// layouts from member sizes and alignments.
//
// # Layout Rules
//
//   - Records: members laid out in order, each aligned to its own alignment,
//     total size rounded up to the largest alignment
//   - Unions: every member at offset 0, size is the largest member rounded up
//     to the largest alignment
//   - Tagged: discriminant at offset 0, payload at the discriminant size
//     aligned to the largest payload alignment (canonical ABI variants)
//
// The calculator never looks at Go types. Callers describe members with
// Info values and compare the result against what the Go compiler or a
// foreign ABI produced.
//
// This package is internal to niche.
package layout
