package layout

// Info is the size and alignment of a type, plus member offsets for
// records and the payload offset for tagged layouts.
type Info struct {
	Offsets []uintptr
	Size    uintptr
	Align   uintptr
	Payload uintptr
}

// Scalar returns the layout of a primitive whose alignment equals its size.
func Scalar(size uintptr) Info {
	if size == 0 {
		return Info{Size: 0, Align: 1}
	}
	return Info{Size: size, Align: size}
}

// Of returns a member layout with explicit size and alignment.
func Of(size, align uintptr) Info {
	if align == 0 {
		align = 1
	}
	return Info{Size: size, Align: align}
}

func AlignTo(offset, align uintptr) uintptr {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Record lays members out sequentially.
func Record(members ...Info) Info {
	if len(members) == 0 {
		return Info{Size: 0, Align: 1}
	}

	offsets := make([]uintptr, len(members))
	maxAlign := uintptr(1)
	offset := uintptr(0)

	for i, m := range members {
		offset = AlignTo(offset, m.Align)
		offsets[i] = offset

		if m.Align > maxAlign {
			maxAlign = m.Align
		}

		offset += m.Size
	}

	return Info{
		Size:    AlignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}
}

// Union overlays members at offset 0.
func Union(members ...Info) Info {
	maxAlign := uintptr(1)
	maxSize := uintptr(0)

	for _, m := range members {
		if m.Align > maxAlign {
			maxAlign = m.Align
		}
		if m.Size > maxSize {
			maxSize = m.Size
		}
	}

	return Info{
		Size:  AlignTo(maxSize, maxAlign),
		Align: maxAlign,
	}
}

// Tagged lays out a discriminant followed by the largest case payload.
// Cases without a payload are passed as the zero Info.
func Tagged(disc uintptr, cases ...Info) Info {
	maxAlign := disc
	if maxAlign == 0 {
		maxAlign = 1
	}
	maxSize := uintptr(0)

	for _, c := range cases {
		if c.Align > maxAlign {
			maxAlign = c.Align
		}
		if c.Size > maxSize {
			maxSize = c.Size
		}
	}

	payload := AlignTo(disc, maxAlign)

	return Info{
		Size:    AlignTo(payload+maxSize, maxAlign),
		Align:   maxAlign,
		Payload: payload,
	}
}

// Array lays out n copies of elem back to back.
func Array(elem Info, n int) Info {
	return Info{
		Size:  elem.Size * uintptr(n),
		Align: max(elem.Align, 1),
	}
}

// DiscriminantSize returns the canonical ABI tag width for n cases.
func DiscriminantSize(n int) uintptr {
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	default:
		return 4
	}
}

// FlagsSize returns the canonical ABI storage size for n flags.
// More than 32 flags span several u32 words.
func FlagsSize(n int) Info {
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Scalar(1)
	case n <= 16:
		return Scalar(2)
	case n <= 32:
		return Scalar(4)
	}
	words := (n + 31) / 32
	return Info{Size: uintptr(words * 4), Align: 4}
}
