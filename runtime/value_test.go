package runtime

import "testing"

func TestIsFalsey(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		falsey  bool
	}{
		{"nil", NilVal(), true},
		{"false", BoolVal(false), true},
		{"true", BoolVal(true), false},
		{"zero", NumberVal(0), false},
		{"empty string", ObjVal(&ObjString{Chars: ""}), false},
	}
	for _, tt := range tests {
		if got := tt.v.IsFalsey(); got != tt.falsey {
			t.Errorf("%s: IsFalsey() = %v, want %v", tt.name, got, tt.falsey)
		}
	}
}

func TestValuesEqual(t *testing.T) {
	s1 := &ObjString{Chars: "a"}
	s2 := &ObjString{Chars: "a"}

	tests := []struct {
		name string
		a, b Value
		eq   bool
	}{
		{"nil=nil", NilVal(), NilVal(), true},
		{"bool equal", BoolVal(true), BoolVal(true), true},
		{"bool unequal", BoolVal(true), BoolVal(false), false},
		{"numbers equal", NumberVal(1), NumberVal(1), true},
		{"numbers unequal", NumberVal(1), NumberVal(2), false},
		{"different types", NumberVal(0), BoolVal(false), false},
		{"same obj pointer", ObjVal(s1), ObjVal(s1), true},
		{"distinct objs same contents", ObjVal(s1), ObjVal(s2), false},
	}
	for _, tt := range tests {
		if got := ValuesEqual(tt.a, tt.b); got != tt.eq {
			t.Errorf("%s: ValuesEqual() = %v, want %v", tt.name, got, tt.eq)
		}
	}
}

func TestFormatValueNumbers(t *testing.T) {
	tests := []struct {
		n        float64
		expected string
	}{
		{0, "0"},
		{42, "42"},
		{-7, "-7"},
		{3.5, "3.5"},
	}
	for _, tt := range tests {
		if got := FormatValue(NumberVal(tt.n)); got != tt.expected {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.n, got, tt.expected)
		}
	}
}

func TestFormatValueObjects(t *testing.T) {
	fn := &ObjFunction{Chunk: NewChunk()}
	if got := FormatValue(ObjVal(fn)); got != "<script>" {
		t.Errorf("unnamed function: got %q", got)
	}
	fn.Name = &ObjString{Chars: "greet"}
	if got := FormatValue(ObjVal(fn)); got != "<fn greet>" {
		t.Errorf("named function: got %q", got)
	}

	class := &ObjClass{Name: &ObjString{Chars: "Pair"}, Methods: NewTable()}
	instance := &ObjInstance{Class: class, Fields: NewTable()}
	if got := FormatValue(ObjVal(instance)); got != "<Pair instance>" {
		t.Errorf("instance: got %q", got)
	}
}
