package transcript

import "testing"

func countInterim(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.ID == InterimID {
			n++
		}
	}
	return n
}

func TestStore_InterimReplacedNeverDuplicated(t *testing.T) {
	s := NewStore(nil)
	s.SetInterim("hel")
	s.SetInterim("hello th")
	s.SetInterim("hello there")
	entries := s.Entries()
	if got := countInterim(entries); got != 1 {
		t.Fatalf("expected exactly one interim entry, got %d", got)
	}
	if entries[len(entries)-1].Text != "hello there" {
		t.Fatalf("expected latest interim text, got %q", entries[len(entries)-1].Text)
	}
}

func TestStore_FinalSupersedesInterim(t *testing.T) {
	s := NewStore(nil)
	s.SetInterim("hello th")
	s.ClearInterim()
	s.AppendUser("hello there")
	entries := s.Entries()
	if countInterim(entries) != 0 {
		t.Fatalf("interim should be gone after final commit")
	}
	if len(entries) != 1 || entries[0].Source != SourceUser || entries[0].Text != "hello there" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestStore_EnsureTrailingModelEntry(t *testing.T) {
	s := NewStore(nil)
	s.AppendUser("hi")
	s.EnsureTrailingModelEntry()
	s.EnsureTrailingModelEntry() // second call must not append again
	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Source != SourceModel || entries[1].Text != Placeholder {
		t.Fatalf("expected placeholder model entry, got %+v", entries[1])
	}
}

func TestStore_SetModelTextMutatesInPlace(t *testing.T) {
	s := NewStore(nil)
	id := s.StartModelEntry()
	s.SetModelText("Hello")
	s.SetModelText("Hello there")
	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected single model entry, got %d", len(entries))
	}
	if entries[0].ID != id || entries[0].Text != "Hello there" {
		t.Fatalf("expected in-place mutation, got %+v", entries[0])
	}
}

func TestStore_NotifiesOnEveryMutation(t *testing.T) {
	var calls int
	s := NewStore(func([]Entry) { calls++ })
	s.SetInterim("a")
	s.ClearInterim()
	s.AppendUser("b")
	s.StartModelEntry()
	s.SetModelText("c")
	if calls != 5 {
		t.Fatalf("expected 5 notifications, got %d", calls)
	}
}
