package gormdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dom/worknest/internal/logger"
	"gorm.io/gorm"
)

// Migration is one forward-only schema step. Up runs inside the migration
// transaction and must only use tx.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

type schemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"type:varchar(255);not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// AppliedMigration is a row of the bookkeeping table.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// Migrations returns the ordered migration sequence.
func Migrations() []Migration {
	ms := []Migration{
		{Version: 1, Name: "create_core_tables", Up: migrateCoreTables},
		{Version: 2, Name: "create_ticket_search_index", Up: migrateSearchIndex},
		{Version: 3, Name: "create_revoked_tokens", Up: migrateRevokedTokens},
		{Version: 4, Name: "add_ticket_filter_indexes", Up: migrateFilterIndexes},
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
	return ms
}

// Migrate applies every pending migration. Detection, the migrations
// themselves and their bookkeeping share one transaction, so a failure leaves
// the schema as it was. MySQL commits DDL implicitly and only gets
// per-statement atomicity.
func (p *Pool) Migrate(ctx context.Context) error {
	return p.migrate(ctx, Migrations())
}

func (p *Pool) migrate(ctx context.Context, migrations []Migration) error {
	return p.Write(ctx, func(tx *gorm.DB) error {
		if tx.Dialector.Name() == DriverPostgres {
			// Serialises concurrent server starts against the same database.
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(0x776e6d67)).Error; err != nil {
				return err
			}
		}

		m := tx.Migrator()
		if !m.HasTable(&schemaMigration{}) {
			if err := m.CreateTable(&schemaMigration{}); err != nil {
				return fmt.Errorf("create schema_migrations: %w", err)
			}
		}

		var applied []schemaMigration
		if err := tx.Order("version").Find(&applied).Error; err != nil {
			return err
		}
		done := make(map[int]bool, len(applied))
		for _, a := range applied {
			done[a.Version] = true
		}

		for _, mig := range migrations {
			if done[mig.Version] {
				continue
			}
			if err := mig.Up(tx); err != nil {
				return fmt.Errorf("apply migration %d %s: %w", mig.Version, mig.Name, err)
			}
			record := schemaMigration{Version: mig.Version, Name: mig.Name, AppliedAt: time.Now().UTC()}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			logger.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("applied migration")
		}
		return nil
	})
}

// Status lists applied migrations in version order.
func (p *Pool) Status(ctx context.Context) ([]AppliedMigration, error) {
	var out []AppliedMigration
	err := p.Read(ctx, func(tx *gorm.DB) error {
		if !tx.Migrator().HasTable(&schemaMigration{}) {
			return nil
		}
		var rows []schemaMigration
		if err := tx.Order("version").Find(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			out = append(out, AppliedMigration{Version: r.Version, Name: r.Name, AppliedAt: r.AppliedAt})
		}
		return nil
	})
	return out, err
}

// Pending lists migrations not yet applied.
func (p *Pool) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := p.Status(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[int]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}
	var pending []Migration
	for _, mig := range Migrations() {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Schema snapshots. These describe tables as of the migration that created
// them and must not change when the domain types do.

type v1User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_username"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (v1User) TableName() string { return "users" }

type v1Project struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description *string   `gorm:"type:text"`
	Color       *string   `gorm:"type:varchar(32)"`
	Archived    bool      `gorm:"not null;default:false"`
	CreatedBy   string    `gorm:"type:varchar(36);not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (v1Project) TableName() string { return "projects" }

type v1Ticket struct {
	ID            string     `gorm:"type:varchar(36);primaryKey"`
	ProjectID     string     `gorm:"type:varchar(36);not null;index:idx_tickets_project_id"`
	Title         string     `gorm:"type:varchar(500);not null"`
	Description   *string    `gorm:"type:text"`
	TicketType    string     `gorm:"type:varchar(16);not null"`
	Status        string     `gorm:"type:varchar(16);not null"`
	Priority      string     `gorm:"type:varchar(16);not null"`
	AssigneeID    *string    `gorm:"type:varchar(36)"`
	CreatedBy     string     `gorm:"type:varchar(36);not null"`
	DueDate       *time.Time `gorm:"column:due_date"`
	EstimateHours *float64   `gorm:"column:estimate_hours"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

func (v1Ticket) TableName() string { return "tickets" }

type v1Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	TicketID  string    `gorm:"type:varchar(36);not null;index:idx_comments_ticket_id"`
	UserID    string    `gorm:"type:varchar(36);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (v1Comment) TableName() string { return "comments" }

type v1Attachment struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	TicketID    string    `gorm:"type:varchar(36);not null;index:idx_attachments_ticket_id"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	FileSize    int64     `gorm:"not null"`
	MimeType    string    `gorm:"type:varchar(255);not null"`
	StoragePath string    `gorm:"type:varchar(1024);not null"`
	UploadedBy  string    `gorm:"type:varchar(36);not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (v1Attachment) TableName() string { return "attachments" }

func migrateCoreTables(tx *gorm.DB) error {
	return createTables(tx, &v1User{}, &v1Project{}, &v1Ticket{}, &v1Comment{}, &v1Attachment{})
}

type v2SearchDocument struct {
	TicketID  string    `gorm:"type:varchar(36);primaryKey"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (v2SearchDocument) TableName() string { return "ticket_search_documents" }

type v2SearchToken struct {
	TicketID string `gorm:"type:varchar(36);primaryKey"`
	Token    string `gorm:"type:varchar(255);primaryKey;index:idx_ticket_search_tokens_token"`
	Hits     int    `gorm:"not null"`
}

func (v2SearchToken) TableName() string { return "ticket_search_tokens" }

func migrateSearchIndex(tx *gorm.DB) error {
	if err := createTables(tx, &v2SearchDocument{}, &v2SearchToken{}); err != nil {
		return err
	}

	// Backfill tickets written before the index existed.
	var tickets []v1Ticket
	if err := tx.Find(&tickets).Error; err != nil {
		return err
	}
	for _, t := range tickets {
		text := t.Title
		if t.Description != nil {
			text += "\n" + *t.Description
		}
		if err := writeSearchDocument(tx, t.ID, text, t.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

type v3RevokedToken struct {
	TokenID   string    `gorm:"type:varchar(64);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null"`
	ExpiresAt time.Time `gorm:"not null;index:idx_revoked_tokens_expires_at"`
	RevokedAt time.Time `gorm:"not null"`
}

func (v3RevokedToken) TableName() string { return "revoked_tokens" }

func migrateRevokedTokens(tx *gorm.DB) error {
	return createTables(tx, &v3RevokedToken{})
}

type v4Ticket struct {
	Status     string    `gorm:"type:varchar(16);not null;index:idx_tickets_status"`
	Priority   string    `gorm:"type:varchar(16);not null;index:idx_tickets_priority"`
	AssigneeID *string   `gorm:"type:varchar(36);index:idx_tickets_assignee_id"`
	CreatedAt  time.Time `gorm:"not null;index:idx_tickets_created_at"`
	UpdatedAt  time.Time `gorm:"not null;index:idx_tickets_updated_at"`
}

func (v4Ticket) TableName() string { return "tickets" }

type v4Project struct {
	CreatedBy string `gorm:"type:varchar(36);not null;index:idx_projects_created_by"`
}

func (v4Project) TableName() string { return "projects" }

func migrateFilterIndexes(tx *gorm.DB) error {
	m := tx.Migrator()
	for _, idx := range []struct {
		model any
		name  string
	}{
		{&v4Ticket{}, "idx_tickets_status"},
		{&v4Ticket{}, "idx_tickets_priority"},
		{&v4Ticket{}, "idx_tickets_assignee_id"},
		{&v4Ticket{}, "idx_tickets_created_at"},
		{&v4Ticket{}, "idx_tickets_updated_at"},
		{&v4Project{}, "idx_projects_created_by"},
	} {
		if m.HasIndex(idx.model, idx.name) {
			continue
		}
		if err := m.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// createTables creates each table that does not exist yet, so a store whose
// tables predate the bookkeeping converges instead of failing.
func createTables(tx *gorm.DB, models ...any) error {
	m := tx.Migrator()
	for _, model := range models {
		if m.HasTable(model) {
			continue
		}
		if err := m.CreateTable(model); err != nil {
			return err
		}
	}
	return nil
}
