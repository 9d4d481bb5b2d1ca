package store

import (
	"fmt"
	"strings"
	"time"
)

// UpsertTeamMember creates or renames a team member. IDs starting with "__"
// are reserved for filter sentinels and rejected.
func (s *Store) UpsertTeamMember(id, name, email string) error {
	if id == "" || strings.HasPrefix(id, "__") || strings.ContainsAny(id, ", \t\n") {
		return fmt.Errorf("invalid team member id %q", id)
	}
	_, err := s.db.Exec(`
		INSERT INTO team_members (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email
	`, id, name, email)
	if err != nil {
		return fmt.Errorf("upsert team member %s: %w", id, err)
	}
	return nil
}

// EnsureCampaign returns the ID of the campaign with the given name,
// creating it if needed.
func (s *Store) EnsureCampaign(name string) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM campaigns WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	res, err := s.db.Exec(
		"INSERT INTO campaigns (name, created_at) VALUES (?, ?)",
		name, FormatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert campaign %q: %w", name, err)
	}
	return res.LastInsertId()
}
