package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rehna-jp/Louer/internal/metrics"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"gorm.io/gorm"
)

// DateLayout is the wire format of booking move-in dates.
const DateLayout = "2006-01-02"

const (
	minBookingMonths = 1
	maxBookingMonths = 36
)

// BookingService owns the booking lifecycle:
//
//	pending -> confirmed
//	pending -> cancelled
//
// confirmed and cancelled are terminal.
type BookingService struct {
	db *gorm.DB
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db}
}

type BookingDTO struct {
	ID                uint                 `json:"id"`
	ListingID         uint                 `json:"listing_id"`
	TenantID          uint                 `json:"tenant_id"`
	LandlordID        uint                 `json:"landlord_id"`
	MoveInDate        string               `json:"move_in_date"`
	Months            *int                 `json:"months"`
	Status            models.BookingStatus `json:"status"`
	PriceMonthlyCents int64                `json:"price_monthly_cents"`
	ListingTitle      string               `json:"listing_title"`
	LocationCity      string               `json:"location_city,omitempty"`
	LocationArea      string               `json:"location_area,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// bookingRow is a booking joined with the listing fields callers need.
type bookingRow struct {
	ID                uint
	ListingID         uint
	TenantID          uint
	MoveInDate        time.Time
	Months            *int
	Status            models.BookingStatus
	PriceMonthlyCents int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ListingTitle      string
	LocationCity      string
	LocationArea      string
	LandlordID        uint
}

func (r bookingRow) dto() BookingDTO {
	return BookingDTO{
		ID:                r.ID,
		ListingID:         r.ListingID,
		TenantID:          r.TenantID,
		LandlordID:        r.LandlordID,
		MoveInDate:        r.MoveInDate.Format(DateLayout),
		Months:            r.Months,
		Status:            r.Status,
		PriceMonthlyCents: r.PriceMonthlyCents,
		ListingTitle:      r.ListingTitle,
		LocationCity:      r.LocationCity,
		LocationArea:      r.LocationArea,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (r bookingRow) resource() policy.Resource {
	return policy.Resource{Kind: policy.KindBooking, TenantID: r.TenantID, LandlordID: r.LandlordID}
}

type BookingInput struct {
	ListingID  uint
	MoveInDate time.Time
	Months     *int
}

type BookingPatch struct {
	Status     *models.BookingStatus
	MoveInDate *time.Time
	Months     *int
}

type BookingFilter struct {
	Status    models.BookingStatus
	ListingID uint
}

func validBookingStatus(s models.BookingStatus) bool {
	switch s {
	case models.BookingPending, models.BookingConfirmed, models.BookingCancelled:
		return true
	}
	return false
}

func validMonths(m *int) bool {
	return m == nil || (*m >= minBookingMonths && *m <= maxBookingMonths)
}

const bookingColumns = "b.id, b.listing_id, b.tenant_id, b.move_in_date, b.months, b.status, b.price_monthly_cents, " +
	"b.created_at, b.updated_at, l.title AS listing_title, l.location_city, l.location_area, l.landlord_id"

func joinedBookings(tx *gorm.DB) *gorm.DB {
	return tx.Table("bookings AS b").Joins("JOIN listings l ON l.id = b.listing_id")
}

func (s *BookingService) loadRow(tx *gorm.DB, id uint) (*bookingRow, error) {
	var rows []bookingRow
	if err := joinedBookings(tx).Select(bookingColumns).Where("b.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrBookingNotFound
	}
	return &rows[0], nil
}

// Create books a listing at its current price. The listing status is not checked.
func (s *BookingService) Create(ctx context.Context, p policy.Principal, in BookingInput) (*BookingDTO, error) {
	if !policy.Evaluate(p, policy.Resource{Kind: policy.KindBooking}, policy.ActionCreate) {
		return nil, ErrBookingRole
	}
	if in.MoveInDate.IsZero() {
		return nil, Invalid("move_in_date is required")
	}
	if !validMonths(in.Months) {
		return nil, Invalid("months must be between 1 and 36")
	}

	var out *bookingRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		if err := tx.Select("id", "price_monthly_cents").First(&listing, in.ListingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return fmt.Errorf("find listing: %w", err)
		}
		booking := models.Booking{
			ListingID:         listing.ID,
			TenantID:          p.ID,
			MoveInDate:        in.MoveInDate.UTC().Truncate(24 * time.Hour),
			Months:            in.Months,
			Status:            models.BookingPending,
			PriceMonthlyCents: listing.PriceMonthlyCents,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		row, err := s.loadRow(tx, booking.ID)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.BookingsCreatedTotal.Inc()
	dto := out.dto()
	return &dto, nil
}

func (s *BookingService) Get(ctx context.Context, p policy.Principal, id uint) (*BookingDTO, error) {
	row, err := s.loadRow(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !policy.Evaluate(p, row.resource(), policy.ActionRead) {
		return nil, ErrBookingForbidden
	}
	dto := row.dto()
	return &dto, nil
}

// List returns the bookings visible to p: a tenant sees their own, a landlord
// sees bookings on their listings and an admin sees everything.
func (s *BookingService) List(ctx context.Context, p policy.Principal, f BookingFilter, pg Page) (*PageResult[BookingDTO], error) {
	pg = pg.normalize(10, 100)
	if f.Status != "" && !validBookingStatus(f.Status) {
		return nil, Invalid("invalid booking status")
	}
	var scope func(*gorm.DB) *gorm.DB
	switch p.Role {
	case models.RoleTenant:
		scope = func(tx *gorm.DB) *gorm.DB { return tx.Where("b.tenant_id = ?", p.ID) }
	case models.RoleLandlord:
		scope = func(tx *gorm.DB) *gorm.DB { return tx.Where("l.landlord_id = ?", p.ID) }
	case models.RoleAdmin:
		scope = func(tx *gorm.DB) *gorm.DB { return tx }
	default:
		return nil, ErrBookingForbidden
	}
	filtered := func(tx *gorm.DB) *gorm.DB {
		tx = scope(joinedBookings(tx))
		if f.Status != "" {
			tx = tx.Where("b.status = ?", f.Status)
		}
		if f.ListingID != 0 {
			tx = tx.Where("b.listing_id = ?", f.ListingID)
		}
		return tx
	}

	dbc := s.db.WithContext(ctx)
	var total int64
	if err := filtered(dbc).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	var rows []bookingRow
	err := filtered(dbc).Select(bookingColumns).
		Order("b.created_at DESC").Order("b.id DESC").
		Offset(pg.offset()).Limit(pg.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	out := make([]BookingDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.dto())
	}
	return &PageResult[BookingDTO]{Page: pg.Page, Limit: pg.Limit, Total: total, Items: out}, nil
}

// checkTransition applies the per-role update rules to a booking p may access.
func checkTransition(p policy.Principal, current models.BookingStatus, patch BookingPatch) error {
	if p.Role == models.RoleTenant && patch.Status != nil && *patch.Status != models.BookingCancelled {
		return ErrTenantCancelOnly
	}
	if current != models.BookingPending {
		return ErrBookingNotPending
	}
	if p.Role == models.RoleLandlord && patch.Status != nil &&
		*patch.Status != models.BookingConfirmed && *patch.Status != models.BookingCancelled {
		return ErrInvalidTransition
	}
	return nil
}

// Update changes a pending booking. The stored price is never modified.
func (s *BookingService) Update(ctx context.Context, p policy.Principal, id uint, patch BookingPatch) (*BookingDTO, error) {
	if patch.Status == nil && patch.MoveInDate == nil && patch.Months == nil {
		return nil, ErrNoFieldsToUpdate
	}
	if patch.Status != nil && !validBookingStatus(*patch.Status) {
		return nil, Invalid("invalid booking status")
	}
	if !validMonths(patch.Months) {
		return nil, Invalid("months must be between 1 and 36")
	}

	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.MoveInDate != nil {
		updates["move_in_date"] = patch.MoveInDate.UTC().Truncate(24 * time.Hour)
	}
	if patch.Months != nil {
		updates["months"] = *patch.Months
	}

	var out *bookingRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.loadRow(tx, id)
		if err != nil {
			return err
		}
		if !policy.Evaluate(p, row.resource(), policy.ActionUpdate) {
			return ErrBookingForbidden
		}
		if err := checkTransition(p, row.Status, patch); err != nil {
			return err
		}
		// The status guard makes a concurrent transition lose instead of overwrite.
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, models.BookingPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update booking: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrBookingNotPending
		}
		out, err = s.loadRow(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		metrics.BookingTransitionsTotal.WithLabelValues(string(*patch.Status)).Inc()
	}
	dto := out.dto()
	return &dto, nil
}
