package runtime

import "testing"

func internFor(t *testing.T, s string) *ObjString {
	t.Helper()
	hash := fnv1aHash(s)
	return &ObjString{Chars: s, Hash: hash}
}

func TestTableSetAndGet(t *testing.T) {
	tbl := NewTable()
	key := internFor(t, "answer")
	isNew := tbl.Set(key, NumberVal(42))
	if !isNew {
		t.Fatal("expected Set on a fresh key to report new")
	}
	v, ok := tbl.Get(key)
	if !ok || v.AsNumber() != 42 {
		t.Fatalf("expected 42, got %v ok=%v", v, ok)
	}
}

func TestTableSetOverwritesExisting(t *testing.T) {
	tbl := NewTable()
	key := internFor(t, "x")
	tbl.Set(key, NumberVal(1))
	isNew := tbl.Set(key, NumberVal(2))
	if isNew {
		t.Fatal("expected second Set on same key to report not-new")
	}
	v, _ := tbl.Get(key)
	if v.AsNumber() != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestTableSetIfNewRejectsDuplicate(t *testing.T) {
	tbl := NewTable()
	key := internFor(t, "g")
	if !tbl.SetIfNew(key, NumberVal(1)) {
		t.Fatal("expected first SetIfNew to succeed")
	}
	if tbl.SetIfNew(key, NumberVal(2)) {
		t.Fatal("expected second SetIfNew to fail on duplicate name")
	}
	v, _ := tbl.Get(key)
	if v.AsNumber() != 1 {
		t.Errorf("expected value to remain 1, got %v", v)
	}
}

func TestTableSetIfExistsRejectsUndefined(t *testing.T) {
	tbl := NewTable()
	key := internFor(t, "undefined")
	if tbl.SetIfExists(key, NumberVal(1)) {
		t.Fatal("expected SetIfExists to fail against an undefined key")
	}
}

func TestTableDeleteLeavesTombstoneThatDoesNotBreakProbing(t *testing.T) {
	tbl := NewTable()
	a := internFor(t, "a")
	b := internFor(t, "b")
	tbl.Set(a, NumberVal(1))
	tbl.Set(b, NumberVal(2))

	if !tbl.Delete(a) {
		t.Fatal("expected Delete to report the key was present")
	}
	if _, ok := tbl.Get(a); ok {
		t.Error("deleted key should no longer be found")
	}
	if v, ok := tbl.Get(b); !ok || v.AsNumber() != 2 {
		t.Error("tombstone for a should not hide b")
	}
}

func TestTableFindStringReturnsCanonicalInstance(t *testing.T) {
	tbl := NewTable()
	s := internFor(t, "shared")
	tbl.Set(s, BoolVal(true))

	found := tbl.FindString("shared", fnv1aHash("shared"))
	if found != s {
		t.Fatal("expected FindString to return the exact same *ObjString")
	}
	if tbl.FindString("missing", fnv1aHash("missing")) != nil {
		t.Error("expected FindString to return nil for an absent string")
	}
}

func TestTableGrowsPastLoadFactor(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 100; i++ {
		key := internFor(t, string(rune('a'+i%26))+itoa(i))
		tbl.Set(key, NumberVal(float64(i)))
	}
	if tbl.Count() != 100 {
		t.Fatalf("expected 100 entries, got %d", tbl.Count())
	}
}
