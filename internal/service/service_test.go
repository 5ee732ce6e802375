package service

import (
	"context"
	"testing"
	"time"

	"github.com/rehna-jp/Louer/internal/config"
	"github.com/rehna-jp/Louer/internal/db"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ctx = context.Background()

// fixture is an in-memory store with two landlords, two tenants, an admin and
// one listing owned by landlord.
type fixture struct {
	db *gorm.DB

	landlord      policy.Principal
	otherLandlord policy.Principal
	tenant        policy.Principal
	otherTenant   policy.Principal
	admin         policy.Principal

	listing models.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	f := &fixture{db: gdb}
	f.landlord = f.user(t, "owner@louer.test", models.RoleLandlord)
	f.otherLandlord = f.user(t, "other-owner@louer.test", models.RoleLandlord)
	f.tenant = f.user(t, "tenant@louer.test", models.RoleTenant)
	f.otherTenant = f.user(t, "other-tenant@louer.test", models.RoleTenant)
	f.admin = f.user(t, "admin@louer.test", models.RoleAdmin)
	f.listing = f.createListing(t, f.landlord, 85000)
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.Role) policy.Principal {
	t.Helper()
	u := models.User{Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.db.Create(&u).Error)
	return policy.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) createListing(t *testing.T, owner policy.Principal, price int64) models.Listing {
	t.Helper()
	l := models.Listing{
		LandlordID:        owner.ID,
		Title:             "Studio near campus",
		LocationCity:      "Kigali",
		PriceMonthlyCents: price,
		Currency:          "USD",
		Type:              models.ListingStudio,
		Status:            models.ListingActive,
	}
	require.NoError(t, f.db.Create(&l).Error)
	return l
}

func (f *fixture) config() config.Config {
	return config.Config{
		JWTSecret:             "service-test-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   7,
		BcryptCost:            bcrypt.MinCost,
	}
}

func date(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(v int) *int { return &v }

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

func statusPtr(s models.BookingStatus) *models.BookingStatus { return &s }

func timePtr(v time.Time) *time.Time { return &v }
