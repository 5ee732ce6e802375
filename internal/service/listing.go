package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"gorm.io/gorm"
)

const maxListingImages = 10

// ListingService manages the listing catalog and its images.
type ListingService struct {
	db *gorm.DB
}

func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{db: db}
}

type ListingImageDTO struct {
	ID       uint   `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

type ListingDTO struct {
	ID                uint                 `json:"id"`
	LandlordID        uint                 `json:"landlord_id"`
	Title             string               `json:"title"`
	Description       string               `json:"description,omitempty"`
	LocationCity      string               `json:"location_city,omitempty"`
	LocationArea      string               `json:"location_area,omitempty"`
	Latitude          *float64             `json:"latitude"`
	Longitude         *float64             `json:"longitude"`
	PriceMonthlyCents int64                `json:"price_monthly_cents"`
	Currency          string               `json:"currency"`
	Type              models.ListingType   `json:"type"`
	Status            models.ListingStatus `json:"status"`
	Images            []ListingImageDTO    `json:"images"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func toListingDTO(l models.Listing) ListingDTO {
	images := make([]ListingImageDTO, 0, len(l.Images))
	for _, img := range l.Images {
		images = append(images, ListingImageDTO{ID: img.ID, URL: img.URL, Position: img.Position})
	}
	return ListingDTO{
		ID:                l.ID,
		LandlordID:        l.LandlordID,
		Title:             l.Title,
		Description:       l.Description,
		LocationCity:      l.LocationCity,
		LocationArea:      l.LocationArea,
		Latitude:          l.Latitude,
		Longitude:         l.Longitude,
		PriceMonthlyCents: l.PriceMonthlyCents,
		Currency:          l.Currency,
		Type:              l.Type,
		Status:            l.Status,
		Images:            images,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

type ListingInput struct {
	Title             string
	Description       string
	LocationCity      string
	LocationArea      string
	Latitude          *float64
	Longitude         *float64
	PriceMonthlyCents int64
	Currency          string
	Type              models.ListingType
	Status            models.ListingStatus
	Images            []string
}

// ListingPatch holds the fields of a partial update. Images, when non-nil,
// replaces the whole image set.
type ListingPatch struct {
	Title             *string
	Description       *string
	LocationCity      *string
	LocationArea      *string
	Latitude          *float64
	Longitude         *float64
	PriceMonthlyCents *int64
	Currency          *string
	Type              *models.ListingType
	Status            *models.ListingStatus
	Images            *[]string
}

func (p ListingPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.LocationCity == nil && p.LocationArea == nil &&
		p.Latitude == nil && p.Longitude == nil && p.PriceMonthlyCents == nil && p.Currency == nil &&
		p.Type == nil && p.Status == nil && p.Images == nil
}

type ListingFilter struct {
	Status     models.ListingStatus
	Type       models.ListingType
	City       string
	LandlordID uint
	Q          string
	// Order is newest, price_asc or price_desc.
	Order string
}

func validListingType(t models.ListingType) bool {
	switch t {
	case models.ListingRoom, models.ListingApartment, models.ListingHostel, models.ListingStudio:
		return true
	}
	return false
}

func validListingStatus(s models.ListingStatus) bool {
	switch s {
	case models.ListingActive, models.ListingOccupied, models.ListingInactive, models.ListingDraft:
		return true
	}
	return false
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "USD", nil
	}
	if len(c) != 3 {
		return "", Invalid("currency must be a 3-letter code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", Invalid("currency must be a 3-letter code")
		}
	}
	return c, nil
}

func buildImages(urls []string) ([]models.ListingImage, error) {
	if len(urls) > maxListingImages {
		return nil, Invalid(fmt.Sprintf("at most %d images are allowed", maxListingImages))
	}
	images := make([]models.ListingImage, 0, len(urls))
	for i, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			return nil, Invalid("image url must not be empty")
		}
		images = append(images, models.ListingImage{URL: u, Position: i})
	}
	return images, nil
}

func withOrderedImages(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (s *ListingService) Create(ctx context.Context, p policy.Principal, in ListingInput) (*ListingDTO, error) {
	if !policy.Evaluate(p, policy.Resource{Kind: policy.KindListing}, policy.ActionCreate) {
		return nil, newError(ErrForbidden, "only landlords can create listings")
	}
	if in.PriceMonthlyCents <= 0 {
		return nil, Invalid("price_monthly_cents must be positive")
	}
	if !validListingType(in.Type) {
		return nil, Invalid("invalid listing type")
	}
	status := in.Status
	if status == "" {
		status = models.ListingActive
	}
	if !validListingStatus(status) {
		return nil, Invalid("invalid listing status")
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	images, err := buildImages(in.Images)
	if err != nil {
		return nil, err
	}
	listing := models.Listing{
		LandlordID:        p.ID,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		LocationCity:      strings.TrimSpace(in.LocationCity),
		LocationArea:      strings.TrimSpace(in.LocationArea),
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		PriceMonthlyCents: in.PriceMonthlyCents,
		Currency:          currency,
		Type:              in.Type,
		Status:            status,
		Images:            images,
	}
	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	dto := toListingDTO(listing)
	return &dto, nil
}

func (s *ListingService) Get(ctx context.Context, id uint) (*ListingDTO, error) {
	listing, err := s.load(withOrderedImages(s.db.WithContext(ctx)), id)
	if err != nil {
		return nil, err
	}
	dto := toListingDTO(*listing)
	return &dto, nil
}

func (s *ListingService) load(tx *gorm.DB, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := tx.First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &listing, nil
}

// List is the public catalog search.
func (s *ListingService) List(ctx context.Context, f ListingFilter, pg Page) (*PageResult[ListingDTO], error) {
	pg = pg.normalize(10, 100)
	filtered := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Model(&models.Listing{})
		if f.Status != "" {
			tx = tx.Where("status = ?", f.Status)
		}
		if f.Type != "" {
			tx = tx.Where("type = ?", f.Type)
		}
		if f.City != "" {
			tx = tx.Where("location_city = ?", f.City)
		}
		if f.LandlordID != 0 {
			tx = tx.Where("landlord_id = ?", f.LandlordID)
		}
		if term := strings.TrimSpace(f.Q); term != "" {
			like := "%" + strings.ToLower(term) + "%"
			tx = tx.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
		}
		return tx
	}
	dbc := s.db.WithContext(ctx)

	var total int64
	if err := filtered(dbc).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	q := filtered(dbc)
	switch f.Order {
	case "price_asc":
		q = q.Order("price_monthly_cents ASC").Order("id ASC")
	case "price_desc":
		q = q.Order("price_monthly_cents DESC").Order("id DESC")
	default:
		q = q.Order("created_at DESC").Order("id DESC")
	}
	var listings []models.Listing
	if err := withOrderedImages(q).Offset(pg.offset()).Limit(pg.Limit).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	out := make([]ListingDTO, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingDTO(l))
	}
	return &PageResult[ListingDTO]{Page: pg.Page, Limit: pg.Limit, Total: total, Items: out}, nil
}

func (s *ListingService) Update(ctx context.Context, p policy.Principal, id uint, patch ListingPatch) (*ListingDTO, error) {
	if patch.empty() {
		return nil, ErrNoFieldsToUpdate
	}
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.LocationCity != nil {
		updates["location_city"] = strings.TrimSpace(*patch.LocationCity)
	}
	if patch.LocationArea != nil {
		updates["location_area"] = strings.TrimSpace(*patch.LocationArea)
	}
	if patch.Latitude != nil {
		updates["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		updates["longitude"] = *patch.Longitude
	}
	if patch.PriceMonthlyCents != nil {
		if *patch.PriceMonthlyCents <= 0 {
			return nil, Invalid("price_monthly_cents must be positive")
		}
		updates["price_monthly_cents"] = *patch.PriceMonthlyCents
	}
	if patch.Currency != nil {
		c, err := normalizeCurrency(*patch.Currency)
		if err != nil {
			return nil, err
		}
		updates["currency"] = c
	}
	if patch.Type != nil {
		if !validListingType(*patch.Type) {
			return nil, Invalid("invalid listing type")
		}
		updates["type"] = *patch.Type
	}
	if patch.Status != nil {
		if !validListingStatus(*patch.Status) {
			return nil, Invalid("invalid listing status")
		}
		updates["status"] = *patch.Status
	}
	var images []models.ListingImage
	if patch.Images != nil {
		var err error
		if images, err = buildImages(*patch.Images); err != nil {
			return nil, err
		}
	}

	var out models.Listing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if !policy.Evaluate(p, policy.Resource{Kind: policy.KindListing, OwnerID: listing.LandlordID}, policy.ActionUpdate) {
			return ErrNotListingOwner
		}
		if len(updates) > 0 {
			if err := tx.Model(listing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update listing: %w", err)
			}
		}
		if patch.Images != nil {
			if err := tx.Where("listing_id = ?", id).Delete(&models.ListingImage{}).Error; err != nil {
				return fmt.Errorf("delete listing images: %w", err)
			}
			for i := range images {
				images[i].ListingID = id
			}
			if len(images) > 0 {
				if err := tx.Create(&images).Error; err != nil {
					return fmt.Errorf("insert listing images: %w", err)
				}
			}
			// Updates skips updated_at when only images changed.
			if len(updates) == 0 {
				if err := tx.Model(listing).Update("updated_at", tx.NowFunc()).Error; err != nil {
					return fmt.Errorf("touch listing: %w", err)
				}
			}
		}
		reloaded, err := s.load(withOrderedImages(tx), id)
		if err != nil {
			return err
		}
		out = *reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toListingDTO(out)
	return &dto, nil
}

func (s *ListingService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if !policy.Evaluate(p, policy.Resource{Kind: policy.KindListing, OwnerID: listing.LandlordID}, policy.ActionDelete) {
			return ErrNotListingOwner
		}
		if err := tx.Delete(&models.Listing{}, id).Error; err != nil {
			return fmt.Errorf("delete listing: %w", err)
		}
		return nil
	})
}
