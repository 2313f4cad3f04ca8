package runtime

// Table is the open-addressed, linearly-probed hash table described in
// It is used polymorphically: the VM's globals table, each class's
// method table, each instance's field table, and the VM's string-intern set
// are all one Table. Capacity is always a power of two so the bucket index
// is `hash & (capacity-1)`.
const tableMaxLoad = 0.75

type entry struct {
	key   *ObjString
	value Value
}

type Table struct {
	count    int
	entries  []entry
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Count() int { return t.count }

// findEntry returns the slot `key` occupies, or the first tombstone/empty
// slot seen along its probe chain if `key` is absent. A tombstone is an
// entry with a nil key and a true bool value (mirrors clox's table.c).
func findEntry(entries []entry, key *ObjString) *entry {
	capacity := len(entries)
	index := key.Hash & uint32(capacity-1)
	var tombstone *entry
	for {
		e := &entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & uint32(capacity-1)
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	for i := range entries {
		entries[i].value = NilVal()
	}
	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.key == nil {
			continue
		}
		dst := findEntry(entries, old.key)
		dst.key = old.key
		dst.value = old.value
		t.count++
	}
	t.entries = entries
}

func (t *Table) ensureCapacity() {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		capacity := 8
		if len(t.entries) >= 8 {
			capacity = len(t.entries) * 2
		}
		t.adjustCapacity(capacity)
	}
}

// Set inserts or overwrites key -> value unconditionally. Returns true if
// the key was not previously present.
func (t *Table) Set(key *ObjString, value Value) bool {
	t.ensureCapacity()
	e := findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey && e.value.IsNil() {
		t.count++
	}
	e.key = key
	e.value = value
	return isNewKey
}

// SetIfNew inserts only if the key is absent; used for OP_DEFINE_GLOBAL,
// where redefining an existing global is a runtime error rather than a
// silent overwrite.
func (t *Table) SetIfNew(key *ObjString, value Value) bool {
	if len(t.entries) > 0 {
		if e := findEntry(t.entries, key); e.key != nil {
			return false
		}
	}
	return t.Set(key, value)
}

// SetIfExists overwrites only if the key is already present; used for
// OP_SET_GLOBAL, which must error against an undefined name.
func (t *Table) SetIfExists(key *ObjString, value Value) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.value = value
	return true
}

func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 {
		return Value{}, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return Value{}, false
	}
	return e.value, true
}

// Delete leaves a tombstone (nil key, true value) so later probes keep
// traversing through the slot rather than stopping short.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = BoolVal(true)
	return true
}

// AddAll copies every live entry of src into dst.
func AddAll(src, dst *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString looks up a canonical interned string by its raw bytes, hash,
// without allocating a new ObjString first. Compares length then hash then
// byte content, exactly like the table's role as the intern set.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}
	capacity := len(t.entries)
	index := hash & uint32(capacity-1)
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) & uint32(capacity-1)
	}
}

// RemoveWhite deletes every entry whose key string is unmarked. Run on the
// intern table after the mark phase and before sweep: once no live
// reference to a string remains anywhere, its interned entry must go too,
// since interning is the only thing keeping it "referenced".
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			e.key = nil
			e.value = BoolVal(true)
		}
	}
}

// Mark marks every key and value in the table as a GC root set.
func (t *Table) Mark(gc *gcState) {
	for _, e := range t.entries {
		if e.key != nil {
			gc.markObject(e.key)
			gc.markValue(e.value)
		}
	}
}
