package agent

import "testing"

func openTestStore(t *testing.T) *SessionStore {
	t.Helper()

	store, err := OpenSessionStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open session store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	user := UserRecord{
		ID:            "u1",
		Name:          "Asha",
		Role:          "patient",
		LinkCode:      "AB12CD",
		LinkedUserIDs: []string{"u2"},
	}
	if err := store.SaveCurrentUser(user); err != nil {
		t.Fatalf("SaveCurrentUser returned error: %v", err)
	}

	loaded, err := store.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a stored user record")
	}
	if loaded.ID != user.ID || loaded.Role != user.Role || loaded.LinkCode != user.LinkCode {
		t.Fatalf("round trip mangled the record: %+v", loaded)
	}
	if len(loaded.LinkedUserIDs) != 1 || loaded.LinkedUserIDs[0] != "u2" {
		t.Fatalf("linked users lost: %+v", loaded.LinkedUserIDs)
	}
}

func TestSessionStoreEmpty(t *testing.T) {
	store := openTestStore(t)

	user, err := store.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser on empty store returned error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil record, got %+v", user)
	}
}

func TestSessionStoreClear(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveCurrentUser(UserRecord{ID: "u1"}); err != nil {
		t.Fatalf("SaveCurrentUser returned error: %v", err)
	}
	if err := store.ClearCurrentUser(); err != nil {
		t.Fatalf("ClearCurrentUser returned error: %v", err)
	}

	user, err := store.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser after clear returned error: %v", err)
	}
	if user != nil {
		t.Fatal("record should be gone after clear")
	}

	// Clearing again is a no-op, not a fault.
	if err := store.ClearCurrentUser(); err != nil {
		t.Fatalf("second clear returned error: %v", err)
	}
}
