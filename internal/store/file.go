package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tendant/simple-transform/internal/store/model"
)

// FileStore implements the File interface on gorm.
type FileStore struct {
	db *gorm.DB
}

var _ File = (*FileStore)(nil)

func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

func (s *FileStore) Create(ctx context.Context, file *model.File) error {
	if result := s.db.WithContext(ctx).Create(file); result.Error != nil {
		return fmt.Errorf("creating file record: %w", result.Error)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, ownerID, id string) (*model.File, error) {
	var file model.File
	result := s.db.WithContext(ctx).First(&file, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying file record: %w", result.Error)
	}
	return &file, nil
}
