package render

import "sync"

// Memory is a Target that keeps slot contents in memory. It is used by tests
// and as the backing store of other targets.
type Memory struct {
	mu      sync.RWMutex
	present map[SlotID]bool
	texts   map[SlotID]string
	rows    map[SlotID][]Row
	writes  map[SlotID]int
}

// NewMemory returns a Memory exposing the given slots, or every slot when
// none are given.
func NewMemory(slots ...SlotID) *Memory {
	if len(slots) == 0 {
		slots = AllSlots()
	}
	m := &Memory{
		present: make(map[SlotID]bool, len(slots)),
		texts:   make(map[SlotID]string),
		rows:    make(map[SlotID][]Row),
		writes:  make(map[SlotID]int),
	}
	for _, id := range slots {
		m.present[id] = true
	}
	return m
}

// TextSlot implements Target.
func (m *Memory) TextSlot(id SlotID) (TextSlot, bool) {
	if !m.has(id) {
		return nil, false
	}
	return memoryText{m: m, id: id}, true
}

// RowSlot implements Target.
func (m *Memory) RowSlot(id SlotID) (RowSlot, bool) {
	if !m.has(id) {
		return nil, false
	}
	return memoryRows{m: m, id: id}, true
}

// Text returns the current text of a slot.
func (m *Memory) Text(id SlotID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.texts[id]
}

// Rows returns a copy of the current rows of a slot.
func (m *Memory) Rows(id SlotID) []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Row(nil), m.rows[id]...)
}

// Writes reports how many times a slot was written.
func (m *Memory) Writes(id SlotID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[id]
}

func (m *Memory) has(id SlotID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.present[id]
}

type memoryText struct {
	m  *Memory
	id SlotID
}

func (s memoryText) SetText(text string) {
	s.m.mu.Lock()
	s.m.texts[s.id] = text
	s.m.writes[s.id]++
	s.m.mu.Unlock()
}

type memoryRows struct {
	m  *Memory
	id SlotID
}

func (s memoryRows) ReplaceRows(rows []Row) {
	s.m.mu.Lock()
	s.m.rows[s.id] = append([]Row(nil), rows...)
	s.m.writes[s.id]++
	s.m.mu.Unlock()
}
