package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type candidateRow struct {
	TenantID     string `gorm:"primaryKey"`
	ID           string `gorm:"primaryKey"`
	Name         string
	CurrentTitle string
	Summary      string
	Skills       []string `gorm:"serializer:json"`
	Location     string
	UpdatedAt    time.Time
}

func (candidateRow) TableName() string { return "candidates" }

type jobRow struct {
	TenantID       string `gorm:"primaryKey"`
	ID             string `gorm:"primaryKey"`
	Title          string
	Description    string
	RequiredSkills []string `gorm:"serializer:json"`
	Location       string
	Remote         bool
	Status         string
	UpdatedAt      time.Time
}

func (jobRow) TableName() string { return "jobs" }

// Postgres is the PostgreSQL-backed store.
type Postgres struct {
	db     *gorm.DB
	logger *zap.Logger
}

func OpenPostgres(dsn string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &Postgres{db: db, logger: logger}, nil
}

// Migrate applies the embedded schema migrations. dsn must be a postgres:// URL.
func Migrate(dsn string, logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if logger != nil {
		logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PutCandidate inserts or replaces a candidate.
func (p *Postgres) PutCandidate(ctx context.Context, c Candidate) error {
	row := candidateToRow(c)
	return p.db.WithContext(ctx).Save(&row).Error
}

// PutJob inserts or replaces a job. The status is stored lowercased.
func (p *Postgres) PutJob(ctx context.Context, j Job) error {
	row := jobToRow(j)
	return p.db.WithContext(ctx).Save(&row).Error
}

func (p *Postgres) Candidate(ctx context.Context, tenant, id string) (*Candidate, error) {
	var row candidateRow
	err := p.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenant, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("candidate %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load candidate %q: %w", id, err)
	}
	c := row.toCandidate()
	return &c, nil
}

func (p *Postgres) Job(ctx context.Context, tenant, id string) (*Job, error) {
	var row jobRow
	err := p.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenant, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %q: %w", id, err)
	}
	j := row.toJob()
	return &j, nil
}

func (p *Postgres) Candidates(ctx context.Context, tenant string) ([]Candidate, error) {
	var rows []candidateRow
	if err := p.db.WithContext(ctx).Where("tenant_id = ?", tenant).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, row.toCandidate())
	}
	return candidates, nil
}

func (p *Postgres) OpenJobs(ctx context.Context, tenant string) ([]Job, error) {
	var rows []jobRow
	err := p.db.WithContext(ctx).
		Where("tenant_id = ? AND lower(trim(status)) IN (?, '')", tenant, JobStatusOpen).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	jobs := make([]Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toJob())
	}
	return jobs, nil
}

func candidateToRow(c Candidate) candidateRow {
	return candidateRow{
		TenantID:     c.TenantID,
		ID:           c.ID,
		Name:         c.Name,
		CurrentTitle: c.CurrentTitle,
		Summary:      c.Summary,
		Skills:       nonNil(c.Skills),
		Location:     c.Location,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r candidateRow) toCandidate() Candidate {
	return Candidate{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Name:         r.Name,
		CurrentTitle: r.CurrentTitle,
		Summary:      r.Summary,
		Skills:       r.Skills,
		Location:     r.Location,
		UpdatedAt:    r.UpdatedAt,
	}
}

func jobToRow(j Job) jobRow {
	status := strings.ToLower(strings.TrimSpace(j.Status))
	if status == "" {
		status = JobStatusOpen
	}
	return jobRow{
		TenantID:       j.TenantID,
		ID:             j.ID,
		Title:          j.Title,
		Description:    j.Description,
		RequiredSkills: nonNil(j.RequiredSkills),
		Location:       j.Location,
		Remote:         j.Remote,
		Status:         status,
		UpdatedAt:      j.UpdatedAt,
	}
}

func (r jobRow) toJob() Job {
	return Job{
		ID:             r.ID,
		TenantID:       r.TenantID,
		Title:          r.Title,
		Description:    r.Description,
		RequiredSkills: r.RequiredSkills,
		Location:       r.Location,
		Remote:         r.Remote,
		Status:         r.Status,
		UpdatedAt:      r.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
