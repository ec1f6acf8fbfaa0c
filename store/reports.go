package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"notula-server/models"
)

const reportColumns = `id, owner_id, title, completion, report_time, receive_time, done_time, notes, created_at`

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	var reportAt, receiveAt, doneAt sql.NullTime
	err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Completion, &reportAt, &receiveAt, &doneAt, &r.Notes, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ReportTime = timePtr(reportAt)
	r.ReceiveTime = timePtr(receiveAt)
	r.DoneTime = timePtr(doneAt)
	return &r, nil
}

// CreateReport assigns an id and creation time to r and stores it.
func (s *Store) CreateReport(r *models.Report) (*models.Report, error) {
	report := *r
	report.ID = uuid.New().String()
	report.CreatedAt = time.Now()

	_, err := s.db.Exec(`
		INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.OwnerID, report.Title, report.Completion,
		nullTime(report.ReportTime), nullTime(report.ReceiveTime), nullTime(report.DoneTime),
		report.Notes, report.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Store) GetReport(id, ownerID string) (*models.Report, error) {
	r, err := scanReport(s.db.QueryRow(`
		SELECT `+reportColumns+` FROM reports WHERE id = ? AND owner_id = ?
	`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *Store) GetReportsForOwner(ownerID string) ([]models.Report, error) {
	rows, err := s.db.Query(`
		SELECT `+reportColumns+`
		FROM reports
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// GetReportsBetween returns the owner's reports whose report time falls in
// [from, to). Reports without a report time are left out.
func (s *Store) GetReportsBetween(ownerID string, from, to time.Time) ([]models.Report, error) {
	all, err := s.GetReportsForOwner(ownerID)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	for _, r := range all {
		if r.ReportTime == nil {
			continue
		}
		if !r.ReportTime.Before(from) && r.ReportTime.Before(to) {
			reports = append(reports, r)
		}
	}
	return reports, nil
}

func (s *Store) UpdateReport(r *models.Report) error {
	return affected(s.db.Exec(`
		UPDATE reports
		SET title = ?, completion = ?, report_time = ?, receive_time = ?, done_time = ?, notes = ?
		WHERE id = ? AND owner_id = ?
	`, r.Title, r.Completion, nullTime(r.ReportTime), nullTime(r.ReceiveTime), nullTime(r.DoneTime),
		r.Notes, r.ID, r.OwnerID))
}

func (s *Store) DeleteReport(id, ownerID string) error {
	return affected(s.db.Exec("DELETE FROM reports WHERE id = ? AND owner_id = ?", id, ownerID))
}
