// Package bitpattern describes concrete bit patterns and sets of valid
// pattern ranges.
//
// Patterns are stored in canonical little-endian order regardless of the
// host, and rendered most significant byte first:
//
//	p := bitpattern.FromUint64(0x102, 2)
//	p.String() // "0x0102"
//
// These types exist for diagnostics only. Validators never decide validity
// by building patterns; they build one after a check has already failed so
// the error can say which bits were seen and which ranges would have been
// accepted.
package bitpattern
