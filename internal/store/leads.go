package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// LeadInput holds the fields needed to create a lead.
type LeadInput struct {
	Name       string
	Email      string
	Phone      string
	Company    string
	Source     string
	Status     string // defaults to "new"
	OwnerID    string // empty for unassigned
	CampaignID *int64
	ValueCents int64
	CreatedAt  time.Time // defaults to now
}

func (in LeadInput) args(now time.Time) []interface{} {
	status := in.Status
	if status == "" {
		status = "new"
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = now
	}
	var owner interface{}
	if in.OwnerID != "" {
		owner = in.OwnerID
	}
	var campaign interface{}
	if in.CampaignID != nil {
		campaign = *in.CampaignID
	}
	return []interface{}{
		in.Name, in.Email, in.Phone, in.Company, in.Source, status,
		owner, campaign, in.ValueCents, FormatTime(created), FormatTime(created),
	}
}

const leadInsertPrefix = `INSERT INTO leads (
	name, email, phone, company, source, status,
	owner_id, campaign_id, value_cents, created_at, updated_at
) VALUES `

const leadValuesPerRow = 11

// InsertLead stores a single lead and returns its ID.
func (s *Store) InsertLead(in LeadInput) (int64, error) {
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", leadValuesPerRow), ",") + ")"
	res, err := s.db.Exec(leadInsertPrefix+placeholders, in.args(time.Now())...)
	if err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}
	return res.LastInsertId()
}

// InsertLeads stores leads in a single transaction.
func (s *Store) InsertLeads(leads []LeadInput) error {
	if len(leads) == 0 {
		return nil
	}
	now := time.Now()
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", leadValuesPerRow), ",") + ")"
	return s.withTx(func(tx *sql.Tx) error {
		err := insertInChunks(tx, len(leads), leadValuesPerRow, leadInsertPrefix, func(start, end int) ([]string, []interface{}) {
			values := make([]string, 0, end-start)
			args := make([]interface{}, 0, (end-start)*leadValuesPerRow)
			for _, in := range leads[start:end] {
				values = append(values, placeholders)
				args = append(args, in.args(now)...)
			}
			return values, args
		})
		if err != nil {
			return fmt.Errorf("insert leads: %w", err)
		}
		return nil
	})
}

// AssignLead sets or clears (ownerID == "") the owner of a lead.
func (s *Store) AssignLead(id int64, ownerID string) error {
	var owner interface{}
	if ownerID != "" {
		owner = ownerID
	}
	return s.updateLead(id, "owner_id = ?", owner)
}

// UpdateLeadStatus moves a lead to a new pipeline stage.
func (s *Store) UpdateLeadStatus(id int64, status string) error {
	return s.updateLead(id, "status = ?", status)
}

func (s *Store) updateLead(id int64, set string, value interface{}) error {
	res, err := s.db.Exec(
		"UPDATE leads SET "+set+", updated_at = ? WHERE id = ?",
		value, FormatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update lead %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update lead %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// DeleteAllLeads removes every lead. Used by seeding with --reset.
func (s *Store) DeleteAllLeads() error {
	if _, err := s.db.Exec("DELETE FROM leads"); err != nil {
		return fmt.Errorf("delete leads: %w", err)
	}
	return nil
}
