package niche

import (
	"reflect"
	"testing"

	"github.com/wippyai/niche/errors"
)

type plain struct {
	A uint32
	B [2]int16
}

type outerPlain struct {
	P plain
	C float32
}

type plainPair struct {
	A [2]plain
}

type plainSides struct {
	L, R plain
}

type withBool struct {
	A  uint32
	Ok bool
	_  [3]byte
}

type withNonZero struct {
	N NonZero[uint8]
}

type byteEnum struct {
	Tag uint8
}

type handle struct {
	ID uint32
}

type blob struct {
	B [16]byte
	P uint64
}

func TestMarkNichelessTransitive(t *testing.T) {
	r := NewRegistry()
	Must(DeriveStruct[plain](r))
	Must(DeriveStruct[outerPlain](r))

	if err := MarkNicheless[outerPlain](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Fatalf("outer before inner: %v", err)
	}
	if err := MarkNicheless[plain](r); err != nil {
		t.Fatalf("plain: %v", err)
	}
	if err := MarkNicheless[outerPlain](r); err != nil {
		t.Fatalf("outer after inner: %v", err)
	}

	d, _ := r.Describe(reflect.TypeFor[outerPlain]())
	if !d.Nicheless || d.Validates() {
		t.Errorf("outerPlain: nicheless %v validates %v", d.Nicheless, d.Validates())
	}
	if err := MarkNicheless[outerPlain](r); err != nil {
		t.Errorf("marking twice: %v", err)
	}
}

func TestMarkNichelessThroughArray(t *testing.T) {
	r := NewRegistry()
	Must(DeriveStruct[plain](r))
	Must(DeriveStruct[plainPair](r))

	if _, err := Extract(r, New([2]plain{})); errors.KindOf(err) != errors.KindNotNicheless {
		t.Fatalf("array before element is marked: %v", err)
	}
	if err := MarkNicheless[plain](r); err != nil {
		t.Fatalf("plain: %v", err)
	}
	if err := MarkNicheless[plainPair](r); err != nil {
		t.Errorf("struct holding an array of a marked type: %v", err)
	}

	v := [2]plain{{A: 1}, {A: 2}}
	got, err := Extract(r, New(v))
	if err != nil || got != v {
		t.Errorf("Extract[[2]plain] = %+v, %v", got, err)
	}
	if _, err := Extract(r, New([2][2]plain{})); err != nil {
		t.Errorf("Extract[[2][2]plain]: %v", err)
	}
	if err := Implement[plainSides, [2]plain](r, func(*[2]plain) error { return nil }); err != nil {
		t.Errorf("Implement with an array universe: %v", err)
	}
	if err := MarkNicheless[[2]plain](r); err != nil {
		t.Errorf("MarkNicheless[[2]plain]: %v", err)
	}
}

func TestMarkNichelessRejects(t *testing.T) {
	r := NewRegistry()
	Must(DeriveStruct[withBool](r))
	Must(DeriveStruct[withNonZero](r))

	err := MarkNicheless[withBool](r)
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindNotNicheless {
		t.Fatalf("withBool: %v", err)
	}
	if len(e.Path) != 2 || e.Path[1] != "Ok" {
		t.Errorf("path = %v, want the bool field", e.Path)
	}

	if err := MarkNicheless[withNonZero](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("withNonZero: %v", err)
	}
	if err := MarkNicheless[bool](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("bool: %v", err)
	}
	if err := MarkNicheless[NonZero[uint16]](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("NonZero: %v", err)
	}
	if err := MarkNicheless[[4]bool](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("[4]bool: %v", err)
	}
	if err := MarkNicheless[[0]bool](r); err != nil {
		t.Errorf("[0]bool: %v", err)
	}
}

func TestMarkNichelessEnum(t *testing.T) {
	full := make([]VariantSpec, 256)
	for i := range full {
		full[i] = Unit("V" + string(rune('a'+i%26)))
	}

	r := NewRegistry()
	Must(DeriveEnum[byteEnum](r, TagU8, full...))
	if err := MarkNicheless[byteEnum](r); err != nil {
		t.Errorf("full u8 enum: %v", err)
	}
	if _, err := TryFromBytes[byteEnum](r, []byte{200}); err != nil {
		t.Errorf("nicheless enum rejected a tag: %v", err)
	}

	r = NewRegistry()
	Must(DeriveEnum[byteEnum](r, TagU8, Unit("A"), Unit("B"), Unit("C")))
	if err := MarkNicheless[byteEnum](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("partial enum: %v", err)
	}
}

func TestAssertOneNiche(t *testing.T) {
	r := NewRegistry()
	if err := AssertOneNiche[handle](r); err != nil {
		t.Fatalf("AssertOneNiche: %v", err)
	}

	d, err := r.Describe(reflect.TypeFor[Option[handle]]())
	if err != nil {
		t.Fatalf("Option[handle]: %v", err)
	}
	if !d.Nicheless {
		t.Error("Option of a one-niche type must be nicheless")
	}

	if _, err := TryFrom[handle](r, None[handle]()); errors.KindOf(err) != errors.KindFoundNone {
		t.Errorf("none: %v", err)
	}
	h, err := TryFrom[handle](r, Some(handle{ID: 3}))
	if err != nil || h.ID != 3 {
		t.Errorf("some: %+v, %v", h, err)
	}
	if _, err := TryFrom[handle](r, Zeroed[handle]()); errors.KindOf(err) != errors.KindInvalidBitPattern {
		t.Errorf("zeroed handle: %v", err)
	}

	if err := AssertOneNiche[uint32](r); errors.KindOf(err) != errors.KindInvalidInput {
		t.Errorf("nicheless scalar: %v", err)
	}
	if err := MarkNicheless[handle](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("one-niche type marked nicheless: %v", err)
	}
}

func TestAssertNicheless(t *testing.T) {
	r := NewRegistry()
	if err := AssertNicheless[blob](r); err != nil {
		t.Fatalf("AssertNicheless: %v", err)
	}
	v := blob{P: 7}
	got, err := Extract(r, New(v))
	if err != nil || got != v {
		t.Errorf("Extract = %+v, %v", got, err)
	}

	if err := AssertNicheless[withPtr](r); errors.KindOf(err) != errors.KindUnsupported {
		t.Errorf("pointer type: %v", err)
	}
	if err := AssertOneNiche[handle](r); err != nil {
		t.Fatal(err)
	}
	if err := AssertNicheless[handle](r); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("one-niche type: %v", err)
	}
}

func TestExtract(t *testing.T) {
	r := NewRegistry()
	Must(DeriveStruct[withBool](r))
	if _, err := Extract(r, New(withBool{A: 1})); errors.KindOf(err) != errors.KindNotNicheless {
		t.Errorf("withBool: %v", err)
	}
	if got, err := Extract(r, New[uint16](9)); err != nil || got != 9 {
		t.Errorf("uint16: %v, %v", got, err)
	}
	if got := Inner(New[float64](1.5)); got != 1.5 {
		t.Errorf("Inner = %v", got)
	}
	if got := Inner(New(Uint128{Lo: 1, Hi: 2})); got.Hi != 2 {
		t.Errorf("Inner(Uint128) = %+v", got)
	}
}
