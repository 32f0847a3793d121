package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// shareRecordRepository 实现 domain.ShareRecordRepository，按表名区分 gift 与 letter
type shareRecordRepository[P domain.Payload] struct {
	dao      *Dao
	migrator *SchemaMigrator
	table    string
}

// NewShareRecordRepository 创建分享记录仓库
// table 为不带前缀的表名
func NewShareRecordRepository[P domain.Payload](dao *Dao, migrator *SchemaMigrator, table string) domain.ShareRecordRepository[P] {
	return &shareRecordRepository[P]{
		dao:      dao,
		migrator: migrator,
		table:    dao.TableName(table),
	}
}

// ShareRecordTableSpec 返回分享表的迁移描述
func ShareRecordTableSpec[P domain.Payload](table string) TableSpec {
	return TableSpec{
		Name:           table,
		Model:          &model.ShareRecord[P]{},
		Indexes:        model.ShareRecordIndexes(table),
		BackfillExpiry: true,
	}
}

func (r *shareRecordRepository[P]) Table() string {
	return r.table
}

func (r *shareRecordRepository[P]) EnsureSchema(ctx context.Context) error {
	if err := r.migrator.Ensure(ctx, ShareRecordTableSpec[P](r.table)); err != nil {
		return storeErr("ensure schema "+r.table, err)
	}
	return nil
}

// query 确保表结构后返回指向本表的查询
func (r *shareRecordRepository[P]) query(ctx context.Context) (*gorm.DB, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return r.dao.Db.WithContext(ctx).Table(r.table), nil
}

func (r *shareRecordRepository[P]) toDomain(m *model.ShareRecord[P]) *domain.ShareRecord[P] {
	if m == nil {
		return nil
	}
	return &domain.ShareRecord[P]{
		ID:            m.ID,
		Token:         m.Token,
		Payload:       m.Payload,
		AccountID:     m.AccountID,
		CreatedAt:     m.CreatedAt,
		RetentionDays: m.RetentionDays,
		ExpiresAt:     m.ExpiresAt,
		AccessLimit:   m.AccessLimit,
		AccessUsed:    m.AccessUsed,
	}
}

func (r *shareRecordRepository[P]) toModel(d *domain.ShareRecord[P]) *model.ShareRecord[P] {
	if d == nil {
		return nil
	}
	m := &model.ShareRecord[P]{
		ID:            d.ID,
		Token:         d.Token,
		Payload:       d.Payload,
		AccountID:     d.AccountID,
		CreatedAt:     d.CreatedAt.UTC(),
		RetentionDays: d.RetentionDays,
		AccessLimit:   d.AccessLimit,
		AccessUsed:    d.AccessUsed,
	}
	if d.ExpiresAt != nil {
		t := d.ExpiresAt.UTC()
		m.ExpiresAt = &t
	}
	return m
}

func (r *shareRecordRepository[P]) Insert(ctx context.Context, rec *domain.ShareRecord[P]) (int64, error) {
	q, err := r.query(ctx)
	if err != nil {
		return 0, err
	}
	m := r.toModel(rec)
	if err := q.Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, domain.ErrTokenConflict
		}
		return 0, storeErr("insert "+r.table, err)
	}
	rec.ID = m.ID
	return m.ID, nil
}

func (r *shareRecordRepository[P]) FindByToken(ctx context.Context, token string) (*domain.ShareRecord[P], error) {
	q, err := r.query(ctx)
	if err != nil {
		return nil, err
	}
	var m model.ShareRecord[P]
	// 读主库，刚创建的分享在副本上可能还不可见
	err = q.Clauses(dbresolver.Write).Where(model.ColumnToken+" = ?", token).Take(&m).Error
	if err != nil {
		return nil, storeErr("find "+r.table, err)
	}
	return r.toDomain(&m), nil
}

func (r *shareRecordRepository[P]) ExistsToken(ctx context.Context, token string) (bool, error) {
	q, err := r.query(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := q.Clauses(dbresolver.Write).Where(model.ColumnToken+" = ?", token).Count(&count).Error; err != nil {
		return false, storeErr("exists "+r.table, err)
	}
	return count > 0, nil
}

type accessCounters struct {
	AccessUsed  int64
	AccessLimit int64
}

// TryConsumeAccess 用一条条件 UPDATE 占用一次访问，同一事务内读回计数
func (r *shareRecordRepository[P]) TryConsumeAccess(ctx context.Context, token string) (domain.ConsumeResult, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return domain.ConsumeResult{}, err
	}

	var result domain.ConsumeResult
	err := r.dao.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(r.table).
			Where(model.ColumnToken+" = ? AND ("+model.ColumnAccessLimit+" < 0 OR "+model.ColumnAccessUsed+" < "+model.ColumnAccessLimit+")", token).
			UpdateColumn(model.ColumnAccessUsed, gorm.Expr(model.ColumnAccessUsed+" + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var c accessCounters
		if err := tx.Table(r.table).
			Select(model.ColumnAccessUsed, model.ColumnAccessLimit).
			Where(model.ColumnToken+" = ?", token).
			Take(&c).Error; err != nil {
			return err
		}
		result = domain.ConsumeResult{
			Consumed:    true,
			AccessUsed:  c.AccessUsed,
			AccessLimit: c.AccessLimit,
		}
		return nil
	})
	if err != nil {
		return domain.ConsumeResult{}, storeErr("consume "+r.table, err)
	}
	return result, nil
}

func (r *shareRecordRepository[P]) BackfillExpiresAt(ctx context.Context, id int64, expiresAt time.Time) error {
	q, err := r.query(ctx)
	if err != nil {
		return err
	}
	err = q.Where(model.ColumnID+" = ? AND "+model.ColumnExpiresAt+" IS NULL", id).
		UpdateColumn(model.ColumnExpiresAt, expiresAt.UTC()).Error
	return storeErr("backfill "+r.table, err)
}

func (r *shareRecordRepository[P]) FindExpiredBatch(ctx context.Context, now time.Time, limit int) ([]*domain.ShareRecord[P], error) {
	q, err := r.query(ctx)
	if err != nil {
		return nil, err
	}
	var ms []*model.ShareRecord[P]
	err = q.Where(model.ColumnExpiresAt+" IS NOT NULL AND "+model.ColumnExpiresAt+" <= ?", now.UTC()).
		Order(model.ColumnID).
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, storeErr("find expired "+r.table, err)
	}
	out := make([]*domain.ShareRecord[P], 0, len(ms))
	for _, m := range ms {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

func (r *shareRecordRepository[P]) CountLive(ctx context.Context, now time.Time) (int64, error) {
	q, err := r.query(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = q.Where("("+model.ColumnExpiresAt+" IS NULL OR "+model.ColumnExpiresAt+" > ?) AND ("+
		model.ColumnAccessLimit+" < 0 OR "+model.ColumnAccessUsed+" < "+model.ColumnAccessLimit+")", now.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, storeErr("count "+r.table, err)
	}
	return count, nil
}

// Delete 删除记录，记录不存在时不报错
func (r *shareRecordRepository[P]) Delete(ctx context.Context, id int64) error {
	q, err := r.query(ctx)
	if err != nil {
		return err
	}
	err = q.Where(model.ColumnID+" = ?", id).Delete(&model.ShareRecord[P]{}).Error
	return storeErr("delete "+r.table, err)
}

var _ domain.ShareRecordRepository[domain.GiftPayload] = (*shareRecordRepository[domain.GiftPayload])(nil)
