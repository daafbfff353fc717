package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CheckResult is one recorded check evaluation.
type CheckResult struct {
	ID        int64
	RunID     string
	Section   string
	Object    string
	Member    string
	Value     string
	Code      int
	Status    string
	Message   string
	Data      JSONMap
	CheckedAt time.Time
}

// Record stores r, assigning a run id and timestamp when they are unset.
func (d *DB) Record(ctx context.Context, r *CheckResult) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now()
	}
	r.CheckedAt = r.CheckedAt.UTC().Truncate(time.Second)

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO check_results (run_id, section, object, member, value, code, status, message, data, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Section, r.Object, r.Member, r.Value, r.Code, r.Status, r.Message, r.Data, formatTime(r.CheckedAt))
	if err != nil {
		return fmt.Errorf("insert check result: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get check result id: %w", err)
	}
	return nil
}

// PreviousStatus returns the status of the latest record for section and
// member. ok is false when nothing was recorded yet.
func (d *DB) PreviousStatus(ctx context.Context, section, member string) (status string, ok bool, err error) {
	err = d.db.QueryRowContext(ctx, `
		SELECT status FROM check_results
		WHERE section = ? AND member = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`, section, member).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query previous status: %w", err)
	}
	return status, true, nil
}

// RecentFilter narrows Recent; empty fields match everything.
type RecentFilter struct {
	Section string
	Member  string
	Status  string
	Limit   int
}

// Recent returns matching records, newest first.
func (d *DB) Recent(ctx context.Context, f RecentFilter) ([]CheckResult, error) {
	query := `SELECT id, run_id, section, object, member, value, code, status, message, data, checked_at FROM check_results`
	var conds []string
	var args []any
	if f.Section != "" {
		conds = append(conds, "section = ?")
		args = append(args, f.Section)
	}
	if f.Member != "" {
		conds = append(conds, "member = ?")
		args = append(args, f.Member)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY checked_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query check results: %w", err)
	}
	defer rows.Close()

	var results []CheckResult
	for rows.Next() {
		var r CheckResult
		var checkedAt NullTime
		if err := rows.Scan(&r.ID, &r.RunID, &r.Section, &r.Object, &r.Member, &r.Value,
			&r.Code, &r.Status, &r.Message, &r.Data, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan check result: %w", err)
		}
		r.CheckedAt = checkedAt.Time
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check results: %w", err)
	}
	return results, nil
}

// Prune deletes records checked before cutoff and reports how many were removed.
func (d *DB) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM check_results WHERE checked_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune check results: %w", err)
	}
	return res.RowsAffected()
}
