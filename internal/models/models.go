package models

import "time"

type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

type ListingType string

const (
	ListingRoom      ListingType = "room"
	ListingApartment ListingType = "apartment"
	ListingHostel    ListingType = "hostel"
	ListingStudio    ListingType = "studio"
)

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingOccupied ListingStatus = "occupied"
	ListingInactive ListingStatus = "inactive"
	ListingDraft    ListingStatus = "draft"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type User struct {
	ID              uint   `gorm:"primaryKey"`
	Email           string `gorm:"uniqueIndex;size:254;not null"`
	PasswordHash    string `gorm:"not null"`
	Name            string `gorm:"size:100"`
	Role            Role   `gorm:"size:16;not null;default:tenant"`
	Phone           string `gorm:"size:30"`
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Listing struct {
	ID                uint           `gorm:"primaryKey"`
	LandlordID        uint           `gorm:"index;not null"`
	Landlord          *User          `gorm:"constraint:OnDelete:RESTRICT"`
	Title             string         `gorm:"size:150;not null"`
	Description       string         `gorm:"type:text"`
	LocationCity      string         `gorm:"size:100;index"`
	LocationArea      string         `gorm:"size:100"`
	PriceMonthlyCents int64          `gorm:"not null"`
	Currency          string         `gorm:"size:3;not null;default:USD"`
	Type              ListingType    `gorm:"size:16;not null"`
	Status            ListingStatus  `gorm:"size:16;not null;default:active;index"`
	Images            []ListingImage `gorm:"constraint:OnDelete:CASCADE"`
	Latitude          *float64
	Longitude         *float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ListingImage struct {
	ID        uint   `gorm:"primaryKey"`
	ListingID uint   `gorm:"not null;uniqueIndex:idx_listing_image_position"`
	URL       string `gorm:"size:2048;not null"`
	Position  int    `gorm:"not null;uniqueIndex:idx_listing_image_position"`
	CreatedAt time.Time
}

// Booking.PriceMonthlyCents is copied from the listing on insert and never updated.
type Booking struct {
	ID                uint          `gorm:"primaryKey"`
	ListingID         uint          `gorm:"index;not null"`
	Listing           *Listing      `gorm:"constraint:OnDelete:CASCADE"`
	TenantID          uint          `gorm:"index;not null"`
	Tenant            *User         `gorm:"constraint:OnDelete:RESTRICT"`
	MoveInDate        time.Time     `gorm:"type:date;not null"`
	Status            BookingStatus `gorm:"size:16;not null;default:pending;index"`
	PriceMonthlyCents int64         `gorm:"not null"`
	Months            *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Favorite struct {
	ID        uint     `gorm:"primaryKey"`
	UserID    uint     `gorm:"not null;uniqueIndex:idx_favorite_user_listing"`
	User      *User    `gorm:"constraint:OnDelete:CASCADE"`
	ListingID uint     `gorm:"not null;uniqueIndex:idx_favorite_user_listing"`
	Listing   *Listing `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// MessageThread.LandlordID is the listing owner at the time the thread was opened.
type MessageThread struct {
	ID         uint     `gorm:"primaryKey"`
	ListingID  uint     `gorm:"not null;uniqueIndex:idx_thread_listing_tenant"`
	Listing    *Listing `gorm:"constraint:OnDelete:CASCADE"`
	LandlordID uint     `gorm:"index;not null"`
	Landlord   *User    `gorm:"constraint:OnDelete:RESTRICT"`
	TenantID   uint     `gorm:"not null;uniqueIndex:idx_thread_listing_tenant;index"`
	Tenant     *User    `gorm:"constraint:OnDelete:RESTRICT"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Message struct {
	ID        uint           `gorm:"primaryKey"`
	ThreadID  uint           `gorm:"index:idx_msg_thread_id;not null"`
	Thread    *MessageThread `gorm:"constraint:OnDelete:CASCADE"`
	SenderID  uint           `gorm:"index;not null"`
	Sender    *User          `gorm:"constraint:OnDelete:RESTRICT"`
	Content   string         `gorm:"type:text;not null"`
	IsRead    bool           `gorm:"not null;default:false"`
	CreatedAt time.Time
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	Token     string    `gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}
