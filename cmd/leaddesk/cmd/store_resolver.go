package cmd

import (
	"errors"
	"fmt"

	"github.com/wesm/leaddesk/internal/query"
	"github.com/wesm/leaddesk/internal/remote"
	"github.com/wesm/leaddesk/internal/store"
)

// IsRemoteMode returns true if commands should use remote server.
// Resolution order:
//  1. --local flag → always local
//  2. [remote].url set in config → use remote
//  3. Default → use local DB
func IsRemoteMode() bool {
	if useLocal {
		return false
	}
	return cfg != nil && cfg.IsRemote()
}

// localEngine owns the store behind a SQLiteEngine so Close releases both.
type localEngine struct {
	*query.SQLiteEngine
	store *store.Store
}

func (e *localEngine) Close() error {
	return errors.Join(e.SQLiteEngine.Close(), e.store.Close())
}

// OpenEngine returns either a local or remote query engine based on
// configuration. The caller must Close it.
func OpenEngine() (query.Engine, error) {
	if IsRemoteMode() {
		return openRemoteEngine()
	}
	s, err := openLocalStore()
	if err != nil {
		return nil, err
	}
	return &localEngine{SQLiteEngine: query.NewSQLiteEngine(s.DB()), store: s}, nil
}

// openLocalStore opens the local SQLite database and makes sure the schema
// exists.
func openLocalStore() (*store.Store, error) {
	s, err := store.Open(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.InitSchema(); err != nil {
		s.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// openRemoteEngine creates an engine backed by a leaddesk server.
func openRemoteEngine() (*remote.Engine, error) {
	return remote.NewEngine(remote.Config{
		URL:           cfg.Remote.URL,
		APIKey:        cfg.Remote.APIKey,
		AllowInsecure: cfg.Remote.AllowInsecure,
		Timeout:       cfg.Remote.Timeout(),
	})
}

// MustBeLocal returns an error if remote mode is active.
// Use this for commands that only work with local database.
func MustBeLocal(cmdName string) error {
	if IsRemoteMode() {
		return fmt.Errorf("%s requires local database\n\n"+
			"This command cannot run against a remote server.\n"+
			"Use --local flag to force local database.", cmdName)
	}
	return nil
}
