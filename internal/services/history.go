// Package services provides business logic on top of the build history store.
package services

import (
	"database/sql"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pandeptwidyaop/buildstamp/internal/database"
	"github.com/pandeptwidyaop/buildstamp/internal/models"
)

// ErrBuildNotFound indicates the requested build was not recorded.
var ErrBuildNotFound = errors.New("build not found")

const truncatedMarker = "[output truncated]\n"

// HistoryService records builds and reads them back.
type HistoryService struct {
	db            *database.DB
	maxOutputSize int
}

// NewHistoryService creates a HistoryService. Captured compiler output is
// trimmed to its last maxOutputSize bytes; zero keeps everything.
func NewHistoryService(db *database.DB, maxOutputSize int) *HistoryService {
	return &HistoryService{db: db, maxOutputSize: maxOutputSize}
}

// Record stores b, assigning it an ID when it has none. Times are stored in
// UTC so they order and compare as text.
func (s *HistoryService) Record(b *models.Build) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.Output = s.truncate(b.Output)

	_, err := s.db.Exec(`
		INSERT INTO builds (
			id, app_name, output_path, built_at, compiler_version, git_author, git_commit,
			version, web_version, status, exit_code, output, hostname, os, platform, cpus,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID, b.AppName, b.Metadata.OutputPath, b.Metadata.BuiltAt, b.Metadata.CompilerVersion,
		b.Metadata.GitAuthor, b.Metadata.GitCommit, b.Metadata.Version, b.Metadata.WebVersion,
		b.Status, b.ExitCode, b.Output, b.Host.Hostname, b.Host.OS, b.Host.Platform, b.Host.CPUs,
		b.StartedAt.UTC(), b.FinishedAt.UTC(),
	)
	return err
}

const buildColumns = `id, app_name, output_path, built_at, compiler_version, git_author, git_commit,
	version, web_version, status, exit_code, output, hostname, os, platform, cpus,
	started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*models.Build, error) {
	var b models.Build
	var output, hostname, osName, platform sql.NullString
	var cpus sql.NullInt64

	err := row.Scan(
		&b.ID, &b.AppName, &b.Metadata.OutputPath, &b.Metadata.BuiltAt, &b.Metadata.CompilerVersion,
		&b.Metadata.GitAuthor, &b.Metadata.GitCommit, &b.Metadata.Version, &b.Metadata.WebVersion,
		&b.Status, &b.ExitCode, &output, &hostname, &osName, &platform, &cpus,
		&b.StartedAt, &b.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Output = output.String
	b.Host = models.Host{
		Hostname: hostname.String,
		OS:       osName.String,
		Platform: platform.String,
		CPUs:     int(cpus.Int64),
	}
	return &b, nil
}

// GetBuildByID returns a single recorded build.
func (s *HistoryService) GetBuildByID(id string) (*models.Build, error) {
	b, err := scanBuild(s.db.QueryRow("SELECT "+buildColumns+" FROM builds WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrBuildNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBuilds lists builds newest first.
func (s *HistoryService) GetBuilds(limit, offset int) ([]models.Build, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(
		"SELECT "+buildColumns+" FROM builds ORDER BY started_at DESC, created_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	builds := []models.Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, *b)
	}
	return builds, rows.Err()
}

// LastSuccessful returns the most recent successful build.
func (s *HistoryService) LastSuccessful() (*models.Build, error) {
	b, err := scanBuild(s.db.QueryRow(
		"SELECT "+buildColumns+" FROM builds WHERE status = ? ORDER BY started_at DESC LIMIT 1",
		models.BuildSuccess,
	))
	if err == sql.ErrNoRows {
		return nil, ErrBuildNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Prune deletes builds started before cutoff and returns how many went.
func (s *HistoryService) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM builds WHERE started_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// truncate keeps the tail of the output, where compiler errors end up.
func (s *HistoryService) truncate(output string) string {
	if s.maxOutputSize <= 0 || len(output) <= s.maxOutputSize {
		return output
	}
	start := len(output) - s.maxOutputSize
	for start < len(output) && !utf8.RuneStart(output[start]) {
		start++
	}
	return truncatedMarker + output[start:]
}
