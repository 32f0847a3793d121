package dao

import (
	"context"

	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/internal/model"
)

// AccountTableSpec 账户表迁移描述
func AccountTableSpec(table string) TableSpec {
	return TableSpec{Name: table, Model: &model.Account{}}
}

type accountRepository struct {
	dao      *Dao
	migrator *SchemaMigrator
	table    string
}

// NewAccountRepository 创建账户仓库
func NewAccountRepository(dao *Dao, migrator *SchemaMigrator) domain.AccountRepository {
	return &accountRepository{
		dao:      dao,
		migrator: migrator,
		table:    dao.TableName(model.Account{}.TableName()),
	}
}

func (r *accountRepository) ensure(ctx context.Context) error {
	if err := r.migrator.Ensure(ctx, AccountTableSpec(r.table)); err != nil {
		return storeErr("ensure schema "+r.table, err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	var m model.Account
	if err := r.dao.Db.WithContext(ctx).Table(r.table).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, storeErr("get account", err)
	}
	return &domain.Account{ID: m.ID, Tier: domain.AccountTier(m.Tier)}, nil
}

// Save 新建或更新账户等级
func (r *accountRepository) Save(ctx context.Context, account *domain.Account) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	m := &model.Account{ID: account.ID, Tier: string(account.Tier)}
	db := r.dao.Db.WithContext(ctx).Table(r.table)

	if m.ID == 0 {
		if err := db.Create(m).Error; err != nil {
			return storeErr("create account", err)
		}
		account.ID = m.ID
		return nil
	}

	var count int64
	if err := db.Where("id = ?", m.ID).Count(&count).Error; err != nil {
		return storeErr("get account", err)
	}
	if count == 0 {
		if err := r.dao.Db.WithContext(ctx).Table(r.table).Create(m).Error; err != nil {
			return storeErr("create account", err)
		}
		return nil
	}
	err := r.dao.Db.WithContext(ctx).Table(r.table).Where("id = ?", m.ID).UpdateColumn("tier", m.Tier).Error
	return storeErr("update account", err)
}

// ResolveAccountTier 查询账户等级，账户不存在时返回 domain.ErrNotFound
func (r *accountRepository) ResolveAccountTier(ctx context.Context, accountID int64) (domain.AccountTier, error) {
	acc, err := r.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	return acc.Tier, nil
}
