package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/opsboard/admin-portal/internal/config"
	"github.com/opsboard/admin-portal/internal/domain"
)

// SchemaVersion describes the current database schema version. It must be incremented if a manual migration is needed.
var SchemaVersion uint64 = 1

// SysStat stores the current database schema version and the timestamp when it was applied.
type SysStat struct {
	MigratedAt    time.Time `gorm:"column:migrated_at"`
	SchemaVersion uint64    `gorm:"primaryKey,column:schema_version"`
}

// GormLogger is a custom logger for Gorm, making it use slog
type GormLogger struct {
	SlowThreshold           time.Duration
	SourceField             string
	IgnoreErrRecordNotFound bool
	Debug                   bool
	Silent                  bool

	prefix string
}

func NewLogger(slowThreshold time.Duration, debug bool) *GormLogger {
	return &GormLogger{
		SlowThreshold:           slowThreshold,
		Debug:                   debug,
		IgnoreErrRecordNotFound: true,
		Silent:                  false,
		SourceField:             "src",
		prefix:                  "GORM-SQL: ",
	}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.Silent = level == logger.Silent
	return l
}

func (l *GormLogger) Info(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.InfoContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Warn(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.WarnContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Error(ctx context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	slog.ErrorContext(ctx, l.prefix+s, args...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	attrs := []any{
		"rows", rows,
		"duration", elapsed,
	}

	if l.SourceField != "" {
		attrs = append(attrs, l.SourceField, utils.FileWithLineNum())
	}

	if err != nil && !(errors.Is(err, gorm.ErrRecordNotFound) && l.IgnoreErrRecordNotFound) {
		attrs = append(attrs, "error", err)
		slog.ErrorContext(ctx, l.prefix+sql, attrs...)
		return
	}

	if l.SlowThreshold != 0 && elapsed > l.SlowThreshold {
		slog.WarnContext(ctx, l.prefix+sql, attrs...)
		return
	}

	if l.Debug {
		slog.DebugContext(ctx, l.prefix+sql, attrs...)
	}
}

// NewDatabase creates a new database connection and returns a Gorm database instance.
func NewDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormDb *gorm.DB
	var err error

	switch cfg.Type {
	case config.DatabaseMySQL:
		gormDb, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}

		sqlDB, _ := gormDb.DB()
		sqlDB.SetConnMaxLifetime(time.Minute * 5)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		err = sqlDB.Ping() // This DOES open a connection if necessary. This makes sure the database is accessible
		if err != nil {
			return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
		}
	case config.DatabaseMsSQL:
		gormDb, err = gorm.Open(sqlserver.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlserver database: %w", err)
		}
	case config.DatabasePostgres:
		gormDb, err = gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
			Logger: NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres database: %w", err)
		}
	case config.DatabaseSQLite:
		if _, err = os.Stat(filepath.Dir(cfg.DSN)); os.IsNotExist(err) {
			if err = os.MkdirAll(filepath.Dir(cfg.DSN), 0700); err != nil {
				return nil, fmt.Errorf("failed to create database base directory: %w", err)
			}
		}
		gormDb, err = gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
			Logger:                                   NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, _ := gormDb.DB()
		sqlDB.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	return gormDb, nil
}

// SqlRepo is a SQL database repository implementation.
// Currently, it supports MySQL, SQLite, Microsoft SQL and Postgresql database systems.
type SqlRepo struct {
	db *gorm.DB
}

// NewSqlRepository creates a new SqlRepo instance.
func NewSqlRepository(db *gorm.DB) (*SqlRepo, error) {
	repo := &SqlRepo{
		db: db,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

func (r *SqlRepo) migrate() error {
	slog.Debug("running migration: sys-stat", "result", r.db.AutoMigrate(&SysStat{}))
	slog.Debug("running migration: user", "result", r.db.AutoMigrate(&domain.User{}))
	slog.Debug("running migration: tenant settings", "result", r.db.AutoMigrate(&domain.TenantSetting{}))
	slog.Debug("running migration: audit data", "result", r.db.AutoMigrate(&domain.AuditEntry{}))

	existingSysStat := SysStat{}
	r.db.Where("schema_version = ?", SchemaVersion).First(&existingSysStat)
	if existingSysStat.SchemaVersion == 0 {
		sysStat := SysStat{
			MigratedAt:    time.Now(),
			SchemaVersion: SchemaVersion,
		}
		if err := r.db.Create(&sysStat).Error; err != nil {
			return fmt.Errorf("failed to write sysstat entry for schema version %d: %w", SchemaVersion, err)
		}
		slog.Debug("sys-stat entry written", "schema_version", SchemaVersion)
	}

	return nil
}

// region users

// GetUser returns the user with the given id.
// If no user is found, an error domain.ErrNotFound is returned.
func (r *SqlRepo) GetUser(ctx context.Context, id domain.UserIdentifier) (*domain.User, error) {
	var user domain.User

	err := r.db.WithContext(ctx).First(&user, "identifier = ?", id).Error

	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByEmail returns the user with the given email.
// If no user is found, an error domain.ErrNotFound is returned.
// If multiple users are found, an error domain.ErrNotUnique is returned.
func (r *SqlRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var users []domain.User

	err := r.db.WithContext(ctx).Where("email = ?", email).Find(&users).Error
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, domain.ErrNotFound
	}

	if len(users) > 1 {
		return nil, fmt.Errorf("found multiple users with email %s: %w", email, domain.ErrNotUnique)
	}

	user := users[0]

	return &user, nil
}

// GetTenantUsers returns all users that belong to the given tenant.
func (r *SqlRepo) GetTenantUsers(ctx context.Context, tenant domain.TenantIdentifier) ([]domain.User, error) {
	var users []domain.User

	err := r.db.WithContext(ctx).Where("tenant_identifier = ?", tenant).Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

// SaveUser updates the user with the given id.
// If no user is found, a new user is created.
func (r *SqlRepo) SaveUser(
	ctx context.Context,
	id domain.UserIdentifier,
	updateFunc func(u *domain.User) (*domain.User, error),
) error {
	userInfo := domain.GetUserInfo(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := r.getOrCreateUser(userInfo, tx, id)
		if err != nil {
			return err // return any error will roll back
		}

		user, err = updateFunc(user)
		if err != nil {
			return err
		}

		err = r.upsertUser(userInfo, tx, user)
		if err != nil {
			return err
		}

		// return nil will commit the whole transaction
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (r *SqlRepo) getOrCreateUser(ui *domain.ContextUserInfo, tx *gorm.DB, id domain.UserIdentifier) (
	*domain.User,
	error,
) {
	var user domain.User

	// userDefaults will be applied to newly created user records
	userDefaults := domain.User{
		BaseModel: domain.BaseModel{
			CreatedBy: ui.UserId(),
			UpdatedBy: ui.UserId(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Identifier: id,
		Role:       domain.UserRoleMember,
	}

	err := tx.Attrs(userDefaults).FirstOrCreate(&user, "identifier = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *SqlRepo) upsertUser(ui *domain.ContextUserInfo, tx *gorm.DB, user *domain.User) error {
	user.UpdatedBy = ui.UserId()
	user.UpdatedAt = time.Now()

	err := tx.Save(user).Error
	if err != nil {
		return err
	}

	return nil
}

// DeleteUser deletes the user with the given id.
func (r *SqlRepo) DeleteUser(ctx context.Context, id domain.UserIdentifier) error {
	err := r.db.WithContext(ctx).Delete(&domain.User{Identifier: id}).Error
	if err != nil {
		return err
	}

	return nil
}

// endregion users

// region settings

// GetSettings returns all settings of the given section for the given tenant.
func (r *SqlRepo) GetSettings(ctx context.Context, tenant domain.TenantIdentifier, section string) (
	[]domain.TenantSetting,
	error,
) {
	var settings []domain.TenantSetting

	err := r.db.WithContext(ctx).
		Where("tenant_identifier = ?", tenant).
		Where("setting_section = ?", section).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSetting creates or updates the given tenant setting.
func (r *SqlRepo) SaveSetting(ctx context.Context, setting *domain.TenantSetting) error {
	userInfo := domain.GetUserInfo(ctx)

	setting.UpdatedAt = time.Now()
	setting.UpdatedBy = userInfo.UserId()

	err := r.db.WithContext(ctx).Save(setting).Error
	if err != nil {
		return err
	}

	return nil
}

// endregion settings

// region audit

// CreateAuditEntry appends the given audit entry. Audit entries are insert-only,
// existing entries are never updated.
func (r *SqlRepo) CreateAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		return err
	}

	return nil
}

// FindAuditEntries retrieves all audit entries that match the given filter.
// The entries are ordered by timestamp, with the newest entries first.
func (r *SqlRepo) FindAuditEntries(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry

	err := r.auditFilterQuery(ctx, filter).
		Order("created_at desc").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// CountAuditEntriesByAction returns the number of matching audit entries per action type.
// The count is computed by the database, matching rows are never materialized.
func (r *SqlRepo) CountAuditEntriesByAction(
	ctx context.Context,
	tenant domain.TenantIdentifier,
	start, end *time.Time,
) (map[domain.AuditActionType]int64, error) {
	var counts []struct {
		ActionType domain.AuditActionType `gorm:"column:action_type"`
		Count      int64                  `gorm:"column:count"`
	}

	tx := r.db.WithContext(ctx).
		Model(&domain.AuditEntry{}).
		Select("action_type, COUNT(*) as count").
		Where("tenant_identifier = ?", tenant)
	if start != nil {
		tx = tx.Where("created_at >= ?", *start)
	}
	if end != nil {
		tx = tx.Where("created_at <= ?", *end)
	}

	err := tx.Group("action_type").Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	result := make(map[domain.AuditActionType]int64, len(counts))
	for _, c := range counts {
		result[c.ActionType] = c.Count
	}

	return result, nil
}

// DeleteAuditEntriesBefore deletes all audit entries of the given tenant that are strictly
// older than the cutoff. It returns the number of deleted entries.
func (r *SqlRepo) DeleteAuditEntriesBefore(
	ctx context.Context,
	tenant domain.TenantIdentifier,
	cutoff time.Time,
) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("tenant_identifier = ?", tenant).
		Where("created_at < ?", cutoff).
		Delete(&domain.AuditEntry{})
	if tx.Error != nil {
		return 0, tx.Error
	}

	return tx.RowsAffected, nil
}

// GetAuditTenants returns the distinct tenants that have at least one audit entry.
func (r *SqlRepo) GetAuditTenants(ctx context.Context) ([]domain.TenantIdentifier, error) {
	var tenants []domain.TenantIdentifier

	err := r.db.WithContext(ctx).
		Model(&domain.AuditEntry{}).
		Distinct("tenant_identifier").
		Pluck("tenant_identifier", &tenants).Error
	if err != nil {
		return nil, err
	}

	return tenants, nil
}

func (r *SqlRepo) auditFilterQuery(ctx context.Context, filter domain.AuditLogFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).
		Model(&domain.AuditEntry{}).
		Where("tenant_identifier = ?", filter.Tenant)

	if filter.UserId != "" {
		tx = tx.Where("user_identifier = ?", filter.UserId)
	}
	if len(filter.ActionTypes) > 0 {
		tx = tx.Where("action_type IN ?", filter.ActionTypes)
	}
	if filter.TargetUserId != "" {
		tx = tx.Where("target_user_identifier = ?", filter.TargetUserId)
	}
	if len(filter.Severities) > 0 {
		tx = tx.Where("severity IN ?", filter.Severities)
	}
	if filter.StartDate != nil {
		tx = tx.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		tx = tx.Where("created_at <= ?", *filter.EndDate)
	}

	return tx
}

// endregion audit
