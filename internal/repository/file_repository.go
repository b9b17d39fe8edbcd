package repository

import (
	"context"

	"gorm.io/gorm"

	"meetapp/internal/model"
)

// FileRepository defines uploaded file persistence operations.
type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	FindByID(ctx context.Context, id uint) (*model.File, error)
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new file repository.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

// Create creates a new file record.
func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

// FindByID finds a file by ID.
func (r *fileRepository) FindByID(ctx context.Context, id uint) (*model.File, error) {
	var file model.File
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}
