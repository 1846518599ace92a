// Package wasmmem reads and writes niche-checked values in WebAssembly
// linear memory.
//
// A guest's memory is foreign: any byte may hold anything. Load copies
// the image at an offset into a MaybeInvalid, validates it against the
// registry and only then hands out a typed value. Validate runs a
// descriptor check in place without copying, which is how schema-only
// descriptors (for example those compiled by witcheck) are applied.
//
//	mem := wasmmem.New(mod.ExportedMemory("memory"), reg)
//	hdr, err := wasmmem.Load[Header](mem, ptr)
//
// Linear memory is little-endian. Typed Load and Store reinterpret guest
// bytes as Go values and therefore require a little-endian host.
package wasmmem
