package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Repository = (*GormRepository)(nil)

// GormRepository 基于 GORM 的会员仓库
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate 迁移会员表
func (r *GormRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Member{})
}

// FindOrCreateFromLineProfile 并发首次登录时，插入冲突的一方回读已存在的行
func (r *GormRepository) FindOrCreateFromLineProfile(ctx context.Context, p LineProfile) (*Member, error) {
	if p.LineUserID == "" {
		return nil, errors.New("member: empty line user id")
	}

	db := r.db.WithContext(ctx)
	m, err := r.findByLineUserID(db, p.LineUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var created bool
		m, created, err = r.create(db, p)
		if err != nil {
			return nil, fmt.Errorf("member: create %s: %w", p.LineUserID, err)
		}
		if created {
			return m, nil
		}
		m, err = r.findByLineUserID(db, p.LineUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("member: find %s: %w", p.LineUserID, err)
	}

	updates := map[string]any{}
	if p.DisplayName != "" {
		updates["line_display_name"] = p.DisplayName
	}
	if p.PictureURL != "" {
		updates["line_picture_url"] = p.PictureURL
	}
	if p.Email != "" {
		updates["email"] = p.Email
	}
	if len(updates) == 0 {
		return m, nil
	}
	if err := db.Model(m).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("member: update %s: %w", p.LineUserID, err)
	}
	return r.findByLineUserID(db, p.LineUserID)
}

func (r *GormRepository) findByLineUserID(db *gorm.DB, lineUserID string) (*Member, error) {
	var m Member
	if err := db.Where("line_user_id = ?", lineUserID).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// create 插入新会员，line_user_id 已存在时不报错并返回 created=false
func (r *GormRepository) create(db *gorm.DB, p LineProfile) (*Member, bool, error) {
	m := &Member{
		ID:              uuid.NewString(),
		LineUserID:      p.LineUserID,
		LineDisplayName: optional(p.DisplayName),
		LinePictureURL:  optional(p.PictureURL),
		Email:           optional(p.Email),
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "line_user_id"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return m, res.RowsAffected > 0, nil
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*Member, error) {
	var m Member
	err := r.db.WithContext(ctx).Take(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("member: find %s: %w", id, err)
	}
	return &m, nil
}
