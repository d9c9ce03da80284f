package agent

import (
	"encoding/json"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
)

const currentUserKey = "current_user"

// UserRecord is the locally persisted session identity: which user this
// agent acts as. The record mirrors what the server hands back on
// create-user and carries no schema beyond being JSON-serializable.
type UserRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	LinkCode      string   `json:"linkCode,omitempty"`
	LinkedUserIDs []string `json:"linkedUserIds,omitempty"`
}

// SessionStore is a badger-backed key-value store for the current-user
// record. One store per agent data directory.
type SessionStore struct {
	db *badger.DB
}

// OpenSessionStore opens (or creates) the store under dir.
func OpenSessionStore(dir string) (*SessionStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening session store")
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

// SaveCurrentUser persists the session record.
func (s *SessionStore) SaveCurrentUser(user UserRecord) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encoding user record")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(currentUserKey), raw)
	})
	return errors.Wrap(err, "saving user record")
}

// CurrentUser loads the session record, or returns nil when none is set.
func (s *SessionStore) CurrentUser() (*UserRecord, error) {
	var user *UserRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(currentUserKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		var decoded UserRecord
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		user = &decoded
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading user record")
	}

	return user, nil
}

// ClearCurrentUser removes the session record. Clearing an empty store is
// not an error.
func (s *SessionStore) ClearCurrentUser() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(currentUserKey))
	})
	return errors.Wrap(err, "clearing user record")
}
