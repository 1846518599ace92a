package witcheck

import (
	"encoding/binary"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/niche"
	"github.com/wippyai/niche/errors"
	"github.com/wippyai/niche/internal/region"
)

func ptr(s string) *string { return &s }

func view(b ...byte) niche.View {
	return region.OfBytes(b, binary.LittleEndian)
}

func TestCompiler_Primitives(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())

	tests := []struct {
		typ       wit.Type
		size      uintptr
		nicheless bool
	}{
		{wit.Bool{}, 1, false},
		{wit.U8{}, 1, true},
		{wit.S16{}, 2, true},
		{wit.U32{}, 4, true},
		{wit.F32{}, 4, true},
		{wit.S64{}, 8, true},
		{wit.F64{}, 8, true},
		{wit.Char{}, 4, false},
	}

	for _, tt := range tests {
		t.Run(TypeName(tt.typ), func(t *testing.T) {
			d, err := c.Compile(tt.typ)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if d.Size != tt.size || d.Align != tt.size {
				t.Errorf("size %d align %d, want %d", d.Size, d.Align, tt.size)
			}
			if d.Nicheless != tt.nicheless || d.Validates() == tt.nicheless {
				t.Errorf("nicheless %v validates %v", d.Nicheless, d.Validates())
			}
		})
	}

	if d, _ := c.Compile(wit.S8{}); !d.Signed {
		t.Error("s8 should be signed")
	}
}

func TestCompiler_BoolAndChar(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())
	b := niche.Must(c.Compile(wit.Bool{}))
	ch := niche.Must(c.Compile(wit.Char{}))

	tests := []struct {
		name string
		d    *niche.Descriptor
		v    niche.View
		ok   bool
	}{
		{"false", b, view(0), true},
		{"true", b, view(1), true},
		{"bool 2", b, view(2), false},
		{"ascii", ch, view('a', 0, 0, 0), true},
		{"last bmp before surrogates", ch, view(0xff, 0xd7, 0, 0), true},
		{"surrogate", ch, view(0x00, 0xd8, 0, 0), false},
		{"max scalar", ch, view(0xff, 0xff, 0x10, 0), true},
		{"past max", ch, view(0x00, 0x00, 0x11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Check(tt.v)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && errors.KindOf(err) != errors.KindInvalidBitPattern {
				t.Errorf("got %v, want invalid bit pattern", err)
			}
		})
	}
}

func TestCompiler_Record(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())

	// record point { flag: bool, x: u32, c: char }
	rec := &wit.TypeDef{
		Name: ptr("point"),
		Kind: &wit.Record{
			Fields: []wit.Field{
				{Name: "flag", Type: wit.Bool{}},
				{Name: "x", Type: wit.U32{}},
				{Name: "c", Type: wit.Char{}},
			},
		},
	}

	d, err := c.Compile(rec)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if d.Size != 12 || d.Align != 4 {
		t.Errorf("size %d align %d, want 12 4", d.Size, d.Align)
	}
	x, _ := d.FieldByName("x")
	if x.Offset != 4 {
		t.Errorf("x offset = %d, want 4", x.Offset)
	}

	if err := d.Check(view(1, 0xaa, 0xbb, 0xcc, 5, 0, 0, 0, 'z', 0, 0, 0)); err != nil {
		t.Errorf("valid record: %v", err)
	}

	err = d.Check(view(3, 0, 0, 0, 5, 0, 0, 0, 0, 0xd8, 0, 0))
	var e *errors.Error
	if !errors.As(err, &e) {
		t.Fatalf("got %v", err)
	}
	if e.Into != "bool" {
		t.Errorf("first failure should be the bool, got %s", e.Into)
	}

	if again, _ := c.Compile(rec); again != d {
		t.Error("second Compile should hit the cache")
	}
}

func TestCompiler_Variants(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())

	enum := &wit.TypeDef{
		Name: ptr("color"),
		Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "red"}, {Name: "green"}, {Name: "blue"}}},
	}
	opt := &wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}
	res := &wit.TypeDef{Kind: &wit.Result{OK: wit.Bool{}, Err: wit.U64{}}}
	variant := &wit.TypeDef{
		Name: ptr("shape"),
		Kind: &wit.Variant{Cases: []wit.Case{
			{Name: "empty"},
			{Name: "letter", Type: wit.Char{}},
			{Name: "color", Type: enum},
		}},
	}

	tests := []struct {
		name  string
		typ   wit.Type
		size  uintptr
		image []byte
		kind  errors.Kind
	}{
		{"enum valid", enum, 1, []byte{2}, ""},
		{"enum past end", enum, 1, []byte{3}, errors.KindInvalidDiscriminant},
		{"option none", opt, 8, []byte{0, 0, 0, 0, 9, 9, 9, 9}, ""},
		{"option some", opt, 8, []byte{1, 0, 0, 0, 9, 9, 9, 9}, ""},
		{"option bad tag", opt, 8, []byte{2, 0, 0, 0, 0, 0, 0, 0}, errors.KindInvalidDiscriminant},
		{"result ok", res, 16, []byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, ""},
		{"result ok bad bool", res, 16, []byte{0, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 0}, errors.KindInvalidBitPattern},
		{"result error", res, 16, []byte{1, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 0, 0, 0, 0}, ""},
		{"variant nested enum", variant, 8, []byte{2, 0, 0, 0, 1, 0, 0, 0}, ""},
		{"variant nested bad enum", variant, 8, []byte{2, 0, 0, 0, 7, 0, 0, 0}, errors.KindInvalidDiscriminant},
		{"variant surrogate", variant, 8, []byte{1, 0, 0, 0, 0, 0xdc, 0, 0}, errors.KindInvalidBitPattern},
		{"variant empty ignores payload", variant, 8, []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Compile(tt.typ)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if d.Size != tt.size {
				t.Errorf("size = %d, want %d", d.Size, tt.size)
			}
			if got := errors.KindOf(d.Check(view(tt.image...))); got != tt.kind {
				t.Errorf("Check kind = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestCompiler_Flags(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())

	mk := func(n int) *wit.TypeDef {
		fs := make([]wit.Flag, n)
		for i := range fs {
			fs[i] = wit.Flag{Name: string(rune('a' + i%26))}
		}
		return &wit.TypeDef{Kind: &wit.Flags{Flags: fs}}
	}

	three := niche.Must(c.Compile(mk(3)))
	if three.Size != 1 || three.Nicheless {
		t.Errorf("flags(3): size %d nicheless %v", three.Size, three.Nicheless)
	}
	if err := three.Check(view(0x07)); err != nil {
		t.Errorf("all flags set: %v", err)
	}
	if err := three.Check(view(0x08)); errors.KindOf(err) != errors.KindInvalidBitPattern {
		t.Errorf("unused bit set: %v", err)
	}

	twelve := niche.Must(c.Compile(mk(12)))
	if twelve.Size != 2 {
		t.Errorf("flags(12) size = %d", twelve.Size)
	}
	if err := twelve.Check(view(0xff, 0x0f)); err != nil {
		t.Errorf("flags(12) all set: %v", err)
	}
	if err := twelve.Check(view(0x00, 0x10)); err == nil {
		t.Error("flags(12) accepted bit 12")
	}

	if eight := niche.Must(c.Compile(mk(8))); !eight.Nicheless || eight.Validates() {
		t.Error("flags(8) fills its byte and is nicheless")
	}
	if _, err := c.Compile(mk(40)); errors.KindOf(err) != errors.KindUnsupported {
		t.Errorf("flags(40): %v", err)
	}
}

func TestCompiler_Handles(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())
	res := &wit.TypeDef{Name: ptr("file"), Kind: &wit.Resource{}}

	for _, typ := range []wit.Type{
		&wit.TypeDef{Kind: &wit.Own{Type: res}},
		&wit.TypeDef{Kind: &wit.Borrow{Type: res}},
	} {
		d, err := c.Compile(typ)
		if err != nil {
			t.Fatalf("Compile %s: %v", TypeName(typ), err)
		}
		if !d.OneNiche {
			t.Errorf("%s should have one niche", d.Name)
		}
		if err := d.Check(view(0, 0, 0, 0)); errors.KindOf(err) != errors.KindNullPointer {
			t.Errorf("%s handle 0: %v", d.Name, err)
		}
		if err := d.Check(view(1, 0, 0, 0)); err != nil {
			t.Errorf("%s handle 1: %v", d.Name, err)
		}
	}
}

func TestCompiler_Unsupported(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())

	tests := []struct {
		name string
		typ  wit.Type
		kind errors.Kind
	}{
		{"string", wit.String{}, errors.KindUnsupported},
		{"list", &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, errors.KindUnsupported},
		{"record with string", &wit.TypeDef{Name: ptr("named"), Kind: &wit.Record{Fields: []wit.Field{
			{Name: "id", Type: wit.U32{}},
			{Name: "name", Type: wit.String{}},
		}}}, errors.KindUnsupported},
		{"empty variant", &wit.TypeDef{Name: ptr("never"), Kind: &wit.Variant{}}, errors.KindUninhabited},
		{"nil", nil, errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Compile(tt.typ); errors.KindOf(err) != tt.kind {
				t.Errorf("got %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestCompiler_ErrorPath(t *testing.T) {
	c := NewCompiler(niche.NewRegistry())
	rec := &wit.TypeDef{Name: ptr("outer"), Kind: &wit.Record{Fields: []wit.Field{
		{Name: "inner", Type: &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.String{}}}}},
	}}}

	_, err := c.Compile(rec)
	var e *errors.Error
	if !errors.As(err, &e) {
		t.Fatalf("got %v", err)
	}
	want := []string{"outer", "inner", "tuple<u8, string>", "1", "string"}
	if len(e.Path) != len(want) {
		t.Fatalf("path = %v, want %v", e.Path, want)
	}
	for i := range want {
		if e.Path[i] != want[i] {
			t.Errorf("path = %v, want %v", e.Path, want)
			break
		}
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		typ  wit.Type
		want string
	}{
		{wit.U16{}, "u16"},
		{&wit.TypeDef{Kind: &wit.Option{Type: wit.Char{}}}, "option<char>"},
		{&wit.TypeDef{Kind: &wit.Result{}}, "result"},
		{&wit.TypeDef{Kind: &wit.Result{OK: wit.U8{}}}, "result<u8, _>"},
		{&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.F64{}}}}, "tuple<u8, f64>"},
		{&wit.TypeDef{Name: ptr("pt"), Kind: &wit.Record{}}, "pt"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.typ); got != tt.want {
			t.Errorf("TypeName = %q, want %q", got, tt.want)
		}
	}
}
