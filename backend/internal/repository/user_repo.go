package repository

import (
	"context"

	"gorm.io/gorm"

	"staffhub/backend/internal/model"
)

// CandidateRepository 候选人数据访问接口
type CandidateRepository interface {
	GetByID(ctx context.Context, id string) (*model.Candidate, error)
	GetByEmail(ctx context.Context, email string) (*model.Candidate, error)
}

// ConsultantRepository 顾问数据访问接口
type ConsultantRepository interface {
	GetByID(ctx context.Context, id string) (*model.Consultant, error)
	GetByEmail(ctx context.Context, email string) (*model.Consultant, error)
}

type candidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) GetByID(ctx context.Context, id string) (*model.Candidate, error) {
	var c model.Candidate
	if err := r.db.WithContext(ctx).Where("candidate_id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *candidateRepo) GetByEmail(ctx context.Context, email string) (*model.Candidate, error) {
	var c model.Candidate
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

type consultantRepo struct {
	db *gorm.DB
}

func NewConsultantRepo(db *gorm.DB) ConsultantRepository {
	return &consultantRepo{db: db}
}

func (r *consultantRepo) GetByID(ctx context.Context, id string) (*model.Consultant, error) {
	var c model.Consultant
	if err := r.db.WithContext(ctx).Where("consultant_id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *consultantRepo) GetByEmail(ctx context.Context, email string) (*model.Consultant, error) {
	var c model.Consultant
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
