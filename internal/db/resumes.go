package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/resume"
)

// DefaultResumeTitle is the title of a resume created without one.
const DefaultResumeTitle = "My Resume"

const resumeColumns = `id, user_id, title, personal_details, education, experience, projects,
	skills, template_id, is_active, version, created_at, updated_at`

// ResumeUpdate carries a full save of one resume. Version is the version the
// caller last read; the update is rejected when the row has moved on.
type ResumeUpdate struct {
	ID         uuid.UUID
	Title      string
	Document   resume.Document
	TemplateID string
	Version    int
}

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is the part of *sql.DB and *sql.Tx the resume queries use.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListOrCreateResumes lists the account's resumes and creates an empty one
// when there are none. The account row is locked for the duration, so
// concurrent first calls create a single resume.
func (db *DB) ListOrCreateResumes(ctx context.Context, userID uuid.UUID, title, templateID string) ([]resume.StoredResume, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	list, err := listResumes(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		created, err := createResume(ctx, tx, userID, title, templateID)
		if err != nil {
			return nil, err
		}
		list = []resume.StoredResume{*created}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return list, nil
}

// listResumes returns the account's resumes, most recently updated first
func listResumes(ctx context.Context, q querier, userID uuid.UUID) ([]resume.StoredResume, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+resumeColumns+`
		 FROM resumes
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []resume.StoredResume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return out, nil
}

// CreateResume inserts an empty resume for the account
func (db *DB) CreateResume(ctx context.Context, userID uuid.UUID, title, templateID string) (*resume.StoredResume, error) {
	return createResume(ctx, db.conn, userID, title, templateID)
}

func createResume(ctx context.Context, q querier, userID uuid.UUID, title, templateID string) (*resume.StoredResume, error) {
	if title == "" {
		title = DefaultResumeTitle
	}
	empty := resume.Empty()
	row := q.QueryRowContext(ctx,
		`INSERT INTO resumes (user_id, title, personal_details, education, experience, projects, skills, template_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+resumeColumns,
		userID, title,
		jsonValue{empty.PersonalDetails}, jsonValue{empty.Education}, jsonValue{empty.Experience},
		jsonValue{empty.Projects}, jsonValue{empty.Skills}, templateID,
	)
	r, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return r, nil
}

// GetResume returns one resume owned by the account
func (db *DB) GetResume(ctx context.Context, userID, id uuid.UUID) (*resume.StoredResume, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	r, err := scanResume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get resume: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return r, nil
}

// UpdateResume writes all sections of a resume and bumps its version. A
// version mismatch returns ErrStaleWrite; a missing or foreign resume returns
// ErrNotFound.
func (db *DB) UpdateResume(ctx context.Context, userID uuid.UUID, u ResumeUpdate) (*resume.StoredResume, error) {
	doc := u.Document.Normalized()
	row := db.conn.QueryRowContext(ctx,
		`UPDATE resumes
		 SET title = COALESCE(NULLIF($3, ''), title),
		     personal_details = $4, education = $5, experience = $6, projects = $7, skills = $8,
		     template_id = COALESCE(NULLIF($9, ''), template_id),
		     version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND version = $10
		 RETURNING `+resumeColumns,
		u.ID, userID, u.Title,
		jsonValue{doc.PersonalDetails}, jsonValue{doc.Education}, jsonValue{doc.Experience},
		jsonValue{doc.Projects}, jsonValue{doc.Skills}, u.TemplateID, u.Version,
	)
	r, err := scanResume(row)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update resume: %w", err)
	}

	// Nothing matched: tell a missing row apart from a version conflict.
	current, getErr := db.GetResume(ctx, userID, u.ID)
	if getErr != nil {
		return nil, fmt.Errorf("failed to update resume: %w", getErr)
	}
	return nil, fmt.Errorf("failed to update resume %s: %w (have version %d, stored %d)",
		u.ID, ErrStaleWrite, u.Version, current.Version)
}

func scanResume(row rowScanner) (*resume.StoredResume, error) {
	var r resume.StoredResume
	err := row.Scan(
		&r.ID, &r.UserID, &r.Title,
		jsonColumn{&r.PersonalDetails}, jsonColumn{&r.Education}, jsonColumn{&r.Experience},
		jsonColumn{&r.Projects}, jsonColumn{&r.Skills},
		&r.TemplateID, &r.IsActive, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
