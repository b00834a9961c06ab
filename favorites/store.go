package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phturb/lolstats-backend-go/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidFavorite = errors.New("region, game name and tag line are required")

// Database is the slice of internal.Dependencies the store needs.
type Database interface {
	Database(ctx context.Context) *gorm.DB
}

type Store struct {
	d Database
}

func NewStore(d Database) *Store {
	return &Store{d: d}
}

// Key identifies a summoner regardless of the casing it was typed with.
func Key(region, gameName, tagLine string) string {
	return fmt.Sprintf("%s:%s#%s", strings.ToUpper(region), strings.ToLower(gameName), strings.ToLower(tagLine))
}

func validate(region, gameName, tagLine string) error {
	if strings.TrimSpace(region) == "" || strings.TrimSpace(gameName) == "" || strings.TrimSpace(tagLine) == "" {
		return ErrInvalidFavorite
	}
	return nil
}

// List returns the favorites, most recently added first.
func (s *Store) List(ctx context.Context) ([]model.Favorite, error) {
	favs := []model.Favorite{}
	if err := s.d.Database(ctx).Order("id desc").Find(&favs).Error; err != nil {
		return nil, err
	}
	return favs, nil
}

func (s *Store) IsFavorite(ctx context.Context, region, gameName, tagLine string) (bool, error) {
	var n int64
	err := s.d.Database(ctx).Model(&model.Favorite{}).
		Where(&model.Favorite{Key: Key(region, gameName, tagLine)}).
		Count(&n).Error
	return n > 0, err
}

// Add is idempotent, an existing favorite keeps its position and label.
func (s *Store) Add(ctx context.Context, region, gameName, tagLine string, label *string) (*model.Favorite, error) {
	if err := validate(region, gameName, tagLine); err != nil {
		return nil, err
	}
	fav := model.Favorite{
		Key:      Key(region, gameName, tagLine),
		Region:   strings.ToUpper(region),
		GameName: gameName,
		TagLine:  tagLine,
		Label:    label,
	}
	err := s.d.Database(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&fav).Error; err != nil {
			return err
		}
		return tx.Where(&model.Favorite{Key: fav.Key}).First(&fav).Error
	})
	if err != nil {
		return nil, err
	}
	slog.Debug(fmt.Sprintf("[favorites.Add] - %s", fav.Key))
	return &fav, nil
}

func (s *Store) Remove(ctx context.Context, region, gameName, tagLine string) error {
	key := Key(region, gameName, tagLine)
	if err := s.d.Database(ctx).Where(&model.Favorite{Key: key}).Delete(&model.Favorite{}).Error; err != nil {
		return err
	}
	slog.Debug(fmt.Sprintf("[favorites.Remove] - %s", key))
	return nil
}

// Toggle adds the summoner when absent and removes it otherwise. It reports whether the summoner is a favorite afterwards.
func (s *Store) Toggle(ctx context.Context, region, gameName, tagLine string, label *string) (bool, error) {
	if err := validate(region, gameName, tagLine); err != nil {
		return false, err
	}
	key := Key(region, gameName, tagLine)
	var added bool
	err := s.d.Database(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(&model.Favorite{Key: key}).Delete(&model.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		added = true
		return tx.Create(&model.Favorite{
			Key:      key,
			Region:   strings.ToUpper(region),
			GameName: gameName,
			TagLine:  tagLine,
			Label:    label,
		}).Error
	})
	return added, err
}

func (s *Store) Clear(ctx context.Context) error {
	return s.d.Database(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Favorite{}).Error
}
