package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rehna-jp/Louer/internal/db"
	"github.com/rehna-jp/Louer/internal/metrics"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"gorm.io/gorm"
)

// FavoriteService keeps the per-user set of saved listings.
type FavoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

type FavoriteDTO struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	ListingID uint      `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteListingDTO is a saved listing as shown in the favorites page.
type FavoriteListingDTO struct {
	FavoriteID        uint                 `json:"favorite_id"`
	FavoritedAt       time.Time            `json:"favorited_at"`
	ID                uint                 `json:"id"`
	LandlordID        uint                 `json:"landlord_id"`
	Title             string               `json:"title"`
	LocationCity      string               `json:"location_city,omitempty"`
	LocationArea      string               `json:"location_area,omitempty"`
	PriceMonthlyCents int64                `json:"price_monthly_cents"`
	Currency          string               `json:"currency"`
	Type              models.ListingType   `json:"type"`
	Status            models.ListingStatus `json:"status"`
}

// Add inserts first and reports ErrAlreadyFavorited on a unique violation.
func (s *FavoriteService) Add(ctx context.Context, p policy.Principal, listingID uint) (*FavoriteDTO, error) {
	if !policy.Evaluate(p, policy.Resource{Kind: policy.KindFavorite, OwnerID: p.ID}, policy.ActionCreate) {
		return nil, ErrFavoriteForbidden
	}
	tx := s.db.WithContext(ctx)
	var n int64
	if err := tx.Model(&models.Listing{}).Where("id = ?", listingID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if n == 0 {
		return nil, ErrListingNotFound
	}
	fav := models.Favorite{UserID: p.ID, ListingID: listingID}
	if err := tx.Create(&fav).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyFavorited
		}
		return nil, fmt.Errorf("create favorite: %w", err)
	}
	metrics.FavoritesAddedTotal.Inc()
	return &FavoriteDTO{ID: fav.ID, UserID: fav.UserID, ListingID: fav.ListingID, CreatedAt: fav.CreatedAt}, nil
}

func (s *FavoriteService) List(ctx context.Context, p policy.Principal, pg Page) (*PageResult[FavoriteListingDTO], error) {
	pg = pg.normalize(10, 100)
	base := func(tx *gorm.DB) *gorm.DB {
		return tx.Table("favorites AS f").
			Joins("JOIN listings l ON l.id = f.listing_id").
			Where("f.user_id = ?", p.ID)
	}
	dbc := s.db.WithContext(ctx)
	var total int64
	if err := base(dbc).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	var rows []FavoriteListingDTO
	err := base(dbc).
		Select("f.id AS favorite_id, f.created_at AS favorited_at, l.id, l.landlord_id, l.title, l.location_city, " +
			"l.location_area, l.price_monthly_cents, l.currency, l.type, l.status").
		Order("f.created_at DESC").Order("f.id DESC").
		Offset(pg.offset()).Limit(pg.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if rows == nil {
		rows = []FavoriteListingDTO{}
	}
	return &PageResult[FavoriteListingDTO]{Page: pg.Page, Limit: pg.Limit, Total: total, Items: rows}, nil
}

func (s *FavoriteService) Remove(ctx context.Context, p policy.Principal, favoriteID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fav models.Favorite
		if err := tx.First(&fav, favoriteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFavoriteNotFound
			}
			return fmt.Errorf("find favorite: %w", err)
		}
		if !policy.Evaluate(p, policy.Resource{Kind: policy.KindFavorite, OwnerID: fav.UserID}, policy.ActionDelete) {
			return ErrFavoriteForbidden
		}
		if err := tx.Delete(&fav).Error; err != nil {
			return fmt.Errorf("delete favorite: %w", err)
		}
		return nil
	})
}
