package repository

import (
	"context"
	"errors"

	"membership-bot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPackages is the catalogue seeded on startup.
var DefaultPackages = []model.Package{
	{ID: "warrior_1month", Name: "Warrior 1 Month", DurationDays: 30, Price: 299000},
	{ID: "warrior_3month", Name: "Warrior 3 Months", DurationDays: 90, Price: 799000},
	{ID: "warrior_6month", Name: "Warrior 6 Months", DurationDays: 180, Price: 1499000},
	{ID: "warrior_12month", Name: "Warrior 12 Months", DurationDays: 365, Price: 2799000},
}

type PackageRepository interface {
	Seed(ctx context.Context, packages []model.Package) error
	FindByID(ctx context.Context, tx *gorm.DB, packageID string) (*model.Package, error)
	List(ctx context.Context) ([]*model.Package, error)
}

type packageRepoImpl struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepoImpl{
		db: db,
	}
}

// Seed inserts missing packages and leaves existing rows untouched.
func (r *packageRepoImpl) Seed(ctx context.Context, packages []model.Package) error {
	if len(packages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&packages).Error
}

func (r *packageRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, packageID string) (*model.Package, error) {
	var pkg model.Package
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", packageID).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	return &pkg, nil
}

func (r *packageRepoImpl) List(ctx context.Context) ([]*model.Package, error) {
	var packages []*model.Package
	err := r.db.WithContext(ctx).
		Order("duration_days").
		Find(&packages).Error
	if err != nil {
		return nil, err
	}

	return packages, nil
}
