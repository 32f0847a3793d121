package dao

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/gift-share-service/internal/model"
	"github.com/haierkeys/gift-share-service/pkg/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	backfillBatchSize = 500
	migrateTimeout    = 2 * time.Minute
)

// TableSpec 描述一张需要由迁移器维护的表
type TableSpec struct {
	Name    string
	Model   interface{}
	Indexes []model.Index
	// BackfillExpiry 是否为 expires_at 为空的旧记录回填过期时间
	BackfillExpiry bool
}

// SchemaMigrator 按需迁移表结构
// 每张表在进程内成功迁移一次后缓存结果；并发的首次调用共享同一次迁移；
// 失败不会缓存，下一次调用会重试。
type SchemaMigrator struct {
	db     *gorm.DB
	logger *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	ready map[string]bool
}

// NewSchemaMigrator 创建迁移器
func NewSchemaMigrator(db *gorm.DB, logger *zap.Logger) *SchemaMigrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaMigrator{
		db:     db,
		logger: logger,
		ready:  make(map[string]bool),
	}
}

// IsReady 表是否已在本进程内迁移成功
func (m *SchemaMigrator) IsReady(table string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready[table]
}

// Ensure 确保表结构可用
func (m *SchemaMigrator) Ensure(ctx context.Context, spec TableSpec) error {
	if m.IsReady(spec.Name) {
		return nil
	}

	// 迁移不随单个调用方取消，所有等待者共享结果
	base := context.WithoutCancel(ctx)
	ch := m.group.DoChan(spec.Name, func() (interface{}, error) {
		if m.IsReady(spec.Name) {
			return nil, nil
		}
		migrateCtx, cancel := context.WithTimeout(base, migrateTimeout)
		defer cancel()
		start := time.Now()
		if err := m.migrate(migrateCtx, spec); err != nil {
			m.logger.Error("schema migration failed",
				zap.String("table", spec.Name),
				zap.Error(err))
			return nil, err
		}
		m.mu.Lock()
		m.ready[spec.Name] = true
		m.mu.Unlock()
		m.logger.Info("schema ready",
			zap.String("table", spec.Name),
			zap.Duration("duration", time.Since(start)))
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SchemaMigrator) migrate(ctx context.Context, spec TableSpec) error {
	db := m.db.WithContext(ctx)

	if err := m.ensureTable(db, spec); err != nil {
		return err
	}

	for _, idx := range spec.Indexes {
		if err := m.ensureIndex(db, spec.Name, idx); err != nil {
			return err
		}
	}

	if spec.BackfillExpiry {
		n, err := m.backfillExpiry(db, spec.Name)
		if err != nil {
			return err
		}
		if n > 0 {
			m.logger.Info("expires_at backfilled", zap.String("table", spec.Name), zap.Int("rows", n))
		}
	}
	return nil
}

// ensureTable 建表或补齐缺失列
// 其他进程可能同时迁移同一张表，创建失败后若对象已存在则视为成功
func (m *SchemaMigrator) ensureTable(db *gorm.DB, spec TableSpec) error {
	if db.Migrator().HasTable(spec.Name) {
		return m.addMissingColumns(db, spec)
	}
	if err := db.Table(spec.Name).Migrator().CreateTable(spec.Model); err != nil {
		if !db.Migrator().HasTable(spec.Name) {
			return fmt.Errorf("create table %s: %w", spec.Name, err)
		}
		m.logger.Debug("table created concurrently", zap.String("table", spec.Name), zap.Error(err))
		return m.addMissingColumns(db, spec)
	}
	m.logger.Info("table created", zap.String("table", spec.Name))
	return nil
}

func (m *SchemaMigrator) addMissingColumns(db *gorm.DB, spec TableSpec) error {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(spec.Model); err != nil {
		return fmt.Errorf("parse model for %s: %w", spec.Name, err)
	}

	mig := db.Table(spec.Name).Migrator()
	for _, column := range stmt.Schema.DBNames {
		if mig.HasColumn(spec.Model, column) {
			continue
		}
		if err := db.Table(spec.Name).Migrator().AddColumn(spec.Model, column); err != nil {
			if mig.HasColumn(spec.Model, column) {
				continue
			}
			return fmt.Errorf("add column %s.%s: %w", spec.Name, column, err)
		}
		m.logger.Info("column added", zap.String("table", spec.Name), zap.String("column", column))
	}
	return nil
}

func (m *SchemaMigrator) ensureIndex(db *gorm.DB, table string, idx model.Index) error {
	if db.Migrator().HasIndex(table, idx.Name) {
		return nil
	}

	columns := make([]clause.Column, 0, len(idx.Columns))
	for _, c := range idx.Columns {
		columns = append(columns, clause.Column{Name: c})
	}

	sql := "CREATE INDEX ? ON ? ?"
	if idx.Unique {
		sql = "CREATE UNIQUE INDEX ? ON ? ?"
	}
	if err := db.Exec(sql, clause.Column{Name: idx.Name}, clause.Table{Name: table}, columns).Error; err != nil {
		if db.Migrator().HasIndex(table, idx.Name) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", idx.Name, err)
	}
	return nil
}

type legacyExpiryRow struct {
	ID            int64
	CreatedAt     *time.Time
	RetentionDays int
}

// backfillExpiry 为旧记录写入 created_at + retention_days
// 按 id 游标分批处理，已有值的记录不会被覆盖
func (m *SchemaMigrator) backfillExpiry(db *gorm.DB, table string) (int, error) {
	var lastID int64
	total := 0
	now := time.Now().UTC()

	for {
		var rows []legacyExpiryRow
		err := db.Table(table).
			Select(model.ColumnID, model.ColumnCreatedAt, model.ColumnRetentionDays).
			Where(model.ColumnExpiresAt+" IS NULL AND "+model.ColumnID+" > ?", lastID).
			Order(model.ColumnID).
			Limit(backfillBatchSize).
			Find(&rows).Error
		if err != nil {
			return total, fmt.Errorf("scan %s for backfill: %w", table, err)
		}
		if len(rows) == 0 {
			return total, nil
		}

		for _, row := range rows {
			lastID = row.ID

			createdAt := now
			if row.CreatedAt != nil {
				createdAt = row.CreatedAt.UTC()
			}
			days := row.RetentionDays
			if days < 1 {
				days = model.LegacyRetentionDays
			}

			err := db.Table(table).
				Where(model.ColumnID+" = ? AND "+model.ColumnExpiresAt+" IS NULL", row.ID).
				UpdateColumn(model.ColumnExpiresAt, util.AddDays(createdAt, days)).Error
			if err != nil {
				return total, fmt.Errorf("backfill %s id=%d: %w", table, row.ID, err)
			}
			total++
		}
	}
}
