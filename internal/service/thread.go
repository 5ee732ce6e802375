package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rehna-jp/Louer/internal/db"
	"github.com/rehna-jp/Louer/internal/metrics"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"gorm.io/gorm"
)

const maxMessageLength = 5000

// ThreadService manages tenant/landlord conversations about a listing.
// There is at most one thread per (listing, tenant) pair.
type ThreadService struct {
	db *gorm.DB
}

func NewThreadService(db *gorm.DB) *ThreadService {
	return &ThreadService{db: db}
}

type ThreadDTO struct {
	ID           uint      `json:"id"`
	ListingID    uint      `json:"listing_id"`
	LandlordID   uint      `json:"landlord_id"`
	TenantID     uint      `json:"tenant_id"`
	ListingTitle string    `json:"listing_title,omitempty"`
	LocationCity string    `json:"location_city,omitempty"`
	LocationArea string    `json:"location_area,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t ThreadDTO) resource() policy.Resource {
	return policy.Resource{Kind: policy.KindThread, TenantID: t.TenantID, LandlordID: t.LandlordID}
}

type MessageDTO struct {
	ID        uint      `json:"id"`
	ThreadID  uint      `json:"thread_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessageDTO(m models.Message) MessageDTO {
	return MessageDTO{ID: m.ID, ThreadID: m.ThreadID, SenderID: m.SenderID, Content: m.Content, IsRead: m.IsRead, CreatedAt: m.CreatedAt}
}

type ThreadInput struct {
	ListingID uint
	// TenantID is required for landlords and admins. A tenant may omit it or
	// pass their own id.
	TenantID *uint
}

const threadColumns = "t.id, t.listing_id, t.landlord_id, t.tenant_id, t.created_at, t.updated_at, " +
	"l.title AS listing_title, l.location_city, l.location_area"

func joinedThreads(tx *gorm.DB) *gorm.DB {
	return tx.Table("message_threads AS t").Joins("JOIN listings l ON l.id = t.listing_id")
}

func (s *ThreadService) loadThread(tx *gorm.DB, where string, args ...interface{}) (*ThreadDTO, error) {
	var rows []ThreadDTO
	if err := joinedThreads(tx).Select(threadColumns).Where(where, args...).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("find thread: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrThreadNotFound
	}
	return &rows[0], nil
}

// resolveTenant works out whose side of the conversation the thread is for.
func resolveTenant(p policy.Principal, explicit *uint) (uint, error) {
	switch p.Role {
	case models.RoleTenant:
		if explicit != nil && *explicit != p.ID {
			return 0, ErrTenantIDMismatch
		}
		return p.ID, nil
	case models.RoleLandlord, models.RoleAdmin:
		if explicit == nil || *explicit == 0 {
			return 0, ErrTenantIDRequired
		}
		return *explicit, nil
	}
	return 0, ErrThreadForbidden
}

// CreateOrGet returns the thread for (listing, tenant), creating it when
// missing. existed is true when the thread was already there.
//
// The insert runs first; a unique violation means another request created the
// thread and the existing row is returned instead.
func (s *ThreadService) CreateOrGet(ctx context.Context, p policy.Principal, in ThreadInput) (thread *ThreadDTO, existed bool, err error) {
	dbc := s.db.WithContext(ctx)

	var listing models.Listing
	if err := dbc.Select("id", "landlord_id").First(&listing, in.ListingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrListingNotFound
		}
		return nil, false, fmt.Errorf("find listing: %w", err)
	}
	tenantID, err := resolveTenant(p, in.TenantID)
	if err != nil {
		return nil, false, err
	}
	res := policy.Resource{Kind: policy.KindThread, TenantID: tenantID, LandlordID: listing.LandlordID}
	if !policy.Evaluate(p, res, policy.ActionCreate) {
		return nil, false, ErrThreadForbidden
	}
	if tenantID == listing.LandlordID {
		return nil, false, Invalid("a landlord cannot open a thread with themselves")
	}
	if tenantID != p.ID {
		var n int64
		if err := dbc.Model(&models.User{}).Where("id = ?", tenantID).Count(&n).Error; err != nil {
			return nil, false, fmt.Errorf("find tenant: %w", err)
		}
		if n == 0 {
			return nil, false, ErrTenantNotFound
		}
	}

	row := models.MessageThread{ListingID: listing.ID, LandlordID: listing.LandlordID, TenantID: tenantID}
	if err := dbc.Create(&row).Error; err != nil {
		if !db.IsUniqueViolation(err) {
			return nil, false, fmt.Errorf("create thread: %w", err)
		}
		thread, err = s.loadThread(dbc, "t.listing_id = ? AND t.tenant_id = ?", listing.ID, tenantID)
		if err != nil {
			return nil, false, err
		}
		metrics.ThreadsResolvedTotal.WithLabelValues("existed").Inc()
		return thread, true, nil
	}
	thread, err = s.loadThread(dbc, "t.id = ?", row.ID)
	if err != nil {
		return nil, false, err
	}
	metrics.ThreadsResolvedTotal.WithLabelValues("created").Inc()
	return thread, false, nil
}

func (s *ThreadService) participantThread(tx *gorm.DB, p policy.Principal, id uint, a policy.Action) (*ThreadDTO, error) {
	thread, err := s.loadThread(tx, "t.id = ?", id)
	if err != nil {
		return nil, err
	}
	if !policy.Evaluate(p, thread.resource(), a) {
		return nil, ErrNotParticipant
	}
	return thread, nil
}

func (s *ThreadService) Get(ctx context.Context, p policy.Principal, id uint) (*ThreadDTO, error) {
	return s.participantThread(s.db.WithContext(ctx), p, id, policy.ActionRead)
}

// ListThreads orders by most recent activity.
func (s *ThreadService) ListThreads(ctx context.Context, p policy.Principal, listingID uint, pg Page) (*PageResult[ThreadDTO], error) {
	pg = pg.normalize(10, 100)
	var scope func(*gorm.DB) *gorm.DB
	switch p.Role {
	case models.RoleTenant:
		scope = func(tx *gorm.DB) *gorm.DB { return tx.Where("t.tenant_id = ?", p.ID) }
	case models.RoleLandlord:
		scope = func(tx *gorm.DB) *gorm.DB { return tx.Where("t.landlord_id = ?", p.ID) }
	case models.RoleAdmin:
		scope = func(tx *gorm.DB) *gorm.DB { return tx }
	default:
		return nil, ErrThreadForbidden
	}
	filtered := func(tx *gorm.DB) *gorm.DB {
		tx = scope(joinedThreads(tx))
		if listingID != 0 {
			tx = tx.Where("t.listing_id = ?", listingID)
		}
		return tx
	}

	dbc := s.db.WithContext(ctx)
	var total int64
	if err := filtered(dbc).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count threads: %w", err)
	}
	var rows []ThreadDTO
	err := filtered(dbc).Select(threadColumns).
		Order("t.updated_at DESC").Order("t.id DESC").
		Offset(pg.offset()).Limit(pg.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	if rows == nil {
		rows = []ThreadDTO{}
	}
	return &PageResult[ThreadDTO]{Page: pg.Page, Limit: pg.Limit, Total: total, Items: rows}, nil
}

// SendMessage appends a message and bumps the thread's updated_at.
func (s *ThreadService) SendMessage(ctx context.Context, p policy.Principal, threadID uint, content string) (*MessageDTO, error) {
	if strings.TrimSpace(content) == "" {
		return nil, Invalid("content must not be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, Invalid(fmt.Sprintf("content must be at most %d characters", maxMessageLength))
	}
	var msg models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.participantThread(tx, p, threadID, policy.ActionUpdate); err != nil {
			return err
		}
		msg = models.Message{ThreadID: threadID, SenderID: p.ID, Content: content}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		err := tx.Model(&models.MessageThread{}).Where("id = ?", threadID).Update("updated_at", msg.CreatedAt).Error
		if err != nil {
			return fmt.Errorf("touch thread: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.MessagesSentTotal.Inc()
	dto := toMessageDTO(msg)
	return &dto, nil
}

// ListMessages returns messages oldest first.
func (s *ThreadService) ListMessages(ctx context.Context, p policy.Principal, threadID uint, pg Page) (*PageResult[MessageDTO], error) {
	pg = pg.normalize(20, 200)
	dbc := s.db.WithContext(ctx)
	if _, err := s.participantThread(dbc, p, threadID, policy.ActionRead); err != nil {
		return nil, err
	}
	var total int64
	if err := dbc.Model(&models.Message{}).Where("thread_id = ?", threadID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	var msgs []models.Message
	err := dbc.Where("thread_id = ?", threadID).
		Order("created_at ASC").Order("id ASC").
		Offset(pg.offset()).Limit(pg.Limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	out := make([]MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageDTO(m))
	}
	return &PageResult[MessageDTO]{Page: pg.Page, Limit: pg.Limit, Total: total, Items: out}, nil
}

// MarkRead flags every message p received in the thread as read and returns
// how many changed.
func (s *ThreadService) MarkRead(ctx context.Context, p policy.Principal, threadID uint) (int64, error) {
	dbc := s.db.WithContext(ctx)
	if _, err := s.participantThread(dbc, p, threadID, policy.ActionRead); err != nil {
		return 0, err
	}
	res := dbc.Model(&models.Message{}).
		Where("thread_id = ? AND sender_id <> ? AND is_read = ?", threadID, p.ID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark messages read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
