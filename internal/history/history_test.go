package history

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStoreAt(filepath.Join(t.TempDir(), "history.json"))
}

func TestLoadMissingFile(t *testing.T) {
	s := testStore(t)
	viewer, rooms := s.Load()
	if viewer.Name != "" || viewer.Email != "" {
		t.Errorf("expected empty identity, got %+v", viewer)
	}
	if len(rooms) != 0 {
		t.Errorf("expected no rooms, got %+v", rooms)
	}
}

func TestAddDeduplicatesAndCaps(t *testing.T) {
	s := testStore(t)

	for _, id := range []string{"AAAA", "BBBB", "CCCC", "DDDD", "EEEE", "FFFF"} {
		if err := s.Add(id, "Pilot "+id); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	_, rooms := s.Load()
	if len(rooms) != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, len(rooms))
	}
	if rooms[0].RoomID != "FFFF" {
		t.Errorf("most recent room should be first, got %s", rooms[0].RoomID)
	}
	for _, e := range rooms {
		if e.RoomID == "AAAA" {
			t.Error("oldest entry should have been evicted")
		}
	}

	// Re-joining an existing room moves it to the front without growing
	// the list.
	if err := s.Add("CCCC", "Pilot CCCC"); err != nil {
		t.Fatal(err)
	}
	_, rooms = s.Load()
	if len(rooms) != MaxEntries {
		t.Fatalf("re-add grew history to %d", len(rooms))
	}
	if rooms[0].RoomID != "CCCC" {
		t.Errorf("re-added room should be first, got %s", rooms[0].RoomID)
	}
}

func TestAddPlaceholderName(t *testing.T) {
	s := testStore(t)
	if err := s.Add("ABCDEFGHJK", ""); err != nil {
		t.Fatal(err)
	}
	_, rooms := s.Load()
	if rooms[0].Name != "Stream ABCDEFGH" {
		t.Errorf("placeholder name = %q", rooms[0].Name)
	}
}

func TestRemove(t *testing.T) {
	s := testStore(t)
	s.Add("AAAA", "a")
	s.Add("BBBB", "b")

	if err := s.Remove("AAAA"); err != nil {
		t.Fatal(err)
	}
	_, rooms := s.Load()
	if len(rooms) != 1 || rooms[0].RoomID != "BBBB" {
		t.Errorf("unexpected rooms after remove: %+v", rooms)
	}
}

func TestRememberIdentity(t *testing.T) {
	s := testStore(t)
	s.Add("AAAA", "a")

	if err := s.RememberIdentity(Identity{Name: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatal(err)
	}

	viewer, rooms := s.Load()
	if viewer.Name != "alice" || viewer.Email != "alice@example.com" {
		t.Errorf("identity not persisted: %+v", viewer)
	}
	if len(rooms) != 1 {
		t.Errorf("identity save clobbered rooms: %+v", rooms)
	}
}
