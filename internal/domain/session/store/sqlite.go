package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"quill-server-go/internal/domain/session/model"
	"quill-server-go/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a credential store backed by the relational database.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Append(ctx context.Context, cred model.RefreshCredential) error {
	record := toRecord(cred)
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *sqliteStore) Replace(ctx context.Context, userID uint, oldToken string, cred model.RefreshCredential) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND token = ?", userID, oldToken).
			Delete(&storage.RefreshCredential{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		record := toRecord(cred)
		return tx.Create(&record).Error
	})
}

func (s *sqliteStore) RemoveByToken(ctx context.Context, userID uint, token string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&storage.RefreshCredential{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *sqliteStore) ClearAll(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&storage.RefreshCredential{}).Error
}

func (s *sqliteStore) ExistsWithToken(ctx context.Context, userID uint, token string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&storage.RefreshCredential{}).
		Where("user_id = ? AND token = ? AND expires_at >= ?", userID, token, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *sqliteStore) FindLive(ctx context.Context, userID uint, token string) (model.RefreshCredential, bool, error) {
	var record storage.RefreshCredential
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND token = ? AND expires_at >= ?", userID, token, time.Now()).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return model.RefreshCredential{}, false, nil
	}
	if err != nil {
		return model.RefreshCredential{}, false, err
	}
	return fromRecord(record), true, nil
}

func (s *sqliteStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&storage.RefreshCredential{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total, active int64
	if err := s.db.WithContext(ctx).Model(&storage.RefreshCredential{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&storage.RefreshCredential{}).
		Where("expires_at >= ?", time.Now()).Count(&active).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":   "sqlite",
		"total":  total,
		"active": active,
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func toRecord(cred model.RefreshCredential) storage.RefreshCredential {
	return storage.RefreshCredential{
		ID:         cred.ID,
		UserID:     cred.UserID,
		Token:      cred.Token,
		DeviceInfo: cred.DeviceInfo,
		CreatedAt:  cred.CreatedAt,
		ExpiresAt:  cred.ExpiresAt,
	}
}

func fromRecord(record storage.RefreshCredential) model.RefreshCredential {
	return model.RefreshCredential{
		ID:         record.ID,
		UserID:     record.UserID,
		Token:      record.Token,
		DeviceInfo: record.DeviceInfo,
		CreatedAt:  record.CreatedAt,
		ExpiresAt:  record.ExpiresAt,
	}
}
