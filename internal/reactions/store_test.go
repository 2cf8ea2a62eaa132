package reactions

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "reactions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestToggle_AddThenRemove(t *testing.T) {
	store := openTestStore(t)

	state, err := store.Toggle("blog", "hello-post", "party_popper", "user-a", ActionToggle)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Reactions) != 1 || state.Reactions[0].Count != 1 {
		t.Fatalf("after add: %+v", state.Reactions)
	}
	if len(state.Viewer.ReactedTo) != 1 || state.Viewer.ReactedTo[0] != "party_popper" {
		t.Errorf("viewer = %+v", state.Viewer)
	}

	state, err = store.Toggle("blog", "hello-post", "party_popper", "user-a", ActionToggle)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Reactions) != 0 {
		t.Errorf("after remove: %+v", state.Reactions)
	}
	if len(state.Viewer.ReactedTo) != 0 {
		t.Errorf("viewer after remove = %+v", state.Viewer)
	}
}

func TestToggle_TwoUsersAccumulate(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Toggle("pebbles", "tiny", "party_popper", "user-a", ActionToggle); err != nil {
		t.Fatal(err)
	}
	state, err := store.Toggle("pebbles", "tiny", "party_popper", "user-b", ActionToggle)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Reactions) != 1 || state.Reactions[0].Count != 2 {
		t.Errorf("reactions = %+v", state.Reactions)
	}
}

func TestToggle_AddActionIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Toggle("blog", "s", "party_popper", "u", ActionAdd); err != nil {
		t.Fatal(err)
	}
	state, err := store.Toggle("blog", "s", "party_popper", "u", ActionAdd)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Reactions) != 1 || state.Reactions[0].Count != 1 {
		t.Errorf("repeated add must not double count: %+v", state.Reactions)
	}
}

func TestToggle_RemoveWithoutReaction(t *testing.T) {
	store := openTestStore(t)

	state, err := store.Toggle("blog", "s", "party_popper", "u", ActionRemove)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Reactions) != 0 {
		t.Errorf("reactions = %+v", state.Reactions)
	}
}

func TestGet(t *testing.T) {
	store := openTestStore(t)

	state, err := store.Get("blog", "unknown", "u")
	if err != nil {
		t.Fatal(err)
	}
	if state.Reactions == nil || len(state.Reactions) != 0 {
		t.Errorf("empty content must report empty list, got %+v", state.Reactions)
	}

	if _, err := store.Toggle("blog", "known", "party_popper", "u", ActionToggle); err != nil {
		t.Fatal(err)
	}
	state, err = store.Get("blog", "known", "u")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Reactions) != 1 || state.Reactions[0].Count != 1 {
		t.Errorf("reactions = %+v", state.Reactions)
	}
	if len(state.Viewer.ReactedTo) != 1 {
		t.Errorf("viewer = %+v", state.Viewer)
	}

	// A different user sees the totals but not the reaction ownership.
	state, err = store.Get("blog", "known", "someone-else")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Viewer.ReactedTo) != 0 {
		t.Errorf("other viewer = %+v", state.Viewer)
	}
}
