package service

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rehna-jp/Louer/internal/metrics"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadCreateOrGet(t *testing.T) {
	f := newFixture(t)
	svc := NewThreadService(f.db)

	tests := []struct {
		name       string
		actor      policy.Principal
		in         ThreadInput
		wantErr    error
		wantTenant uint
	}{
		{"tenant for self", f.tenant, ThreadInput{ListingID: f.listing.ID}, nil, f.tenant.ID},
		{"tenant passing own id", f.otherTenant, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(f.otherTenant.ID)}, nil, f.otherTenant.ID},
		{"tenant passing someone else", f.tenant, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(f.otherTenant.ID)}, ErrTenantIDMismatch, 0},
		{"landlord without tenant", f.landlord, ThreadInput{ListingID: f.listing.ID}, ErrTenantIDRequired, 0},
		{"landlord of another listing", f.otherLandlord, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(f.tenant.ID)}, ErrThreadForbidden, 0},
		{"landlord with itself", f.landlord, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(f.landlord.ID)}, ErrInvalid, 0},
		{"landlord with unknown tenant", f.landlord, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(9999)}, ErrTenantNotFound, 0},
		{"admin without tenant", f.admin, ThreadInput{ListingID: f.listing.ID}, ErrTenantIDRequired, 0},
		{"missing listing", f.tenant, ThreadInput{ListingID: 9999}, ErrListingNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thread, existed, err := svc.CreateOrGet(ctx, tt.actor, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, existed)
			assert.Equal(t, tt.wantTenant, thread.TenantID)
			assert.Equal(t, f.landlord.ID, thread.LandlordID)
			assert.Equal(t, "Studio near campus", thread.ListingTitle)
		})
	}
}

func TestThreadCreateOrGet_Reuses(t *testing.T) {
	f := newFixture(t)
	svc := NewThreadService(f.db)

	first, existed, err := svc.CreateOrGet(ctx, f.tenant, ThreadInput{ListingID: f.listing.ID})
	require.NoError(t, err)
	require.False(t, existed)

	before := testutil.ToFloat64(metrics.ThreadsResolvedTotal.WithLabelValues("existed"))
	for _, actor := range []struct {
		p  policy.Principal
		in ThreadInput
	}{
		{f.tenant, ThreadInput{ListingID: f.listing.ID}},
		{f.landlord, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(f.tenant.ID)}},
		{f.admin, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(f.tenant.ID)}},
	} {
		again, existed, err := svc.CreateOrGet(ctx, actor.p, actor.in)
		require.NoError(t, err)
		assert.True(t, existed)
		assert.Equal(t, first.ID, again.ID)
	}
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.ThreadsResolvedTotal.WithLabelValues("existed")))
}

func TestThreadCreateOrGet_Concurrent(t *testing.T) {
	f := newFixture(t)
	svc := NewThreadService(f.db)

	const callers = 8
	ids := make([]uint, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor, in := f.tenant, ThreadInput{ListingID: f.listing.ID}
			if i%2 == 1 {
				actor, in = f.landlord, ThreadInput{ListingID: f.listing.ID, TenantID: uintPtr(f.tenant.ID)}
			}
			thread, _, err := svc.CreateOrGet(ctx, actor, in)
			errs[i] = err
			if err == nil {
				ids[i] = thread.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	var n int64
	require.NoError(t, f.db.Model(&models.MessageThread{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestThread_LandlordFrozen(t *testing.T) {
	f := newFixture(t)
	svc := NewThreadService(f.db)
	thread, _, err := svc.CreateOrGet(ctx, f.tenant, ThreadInput{ListingID: f.listing.ID})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&f.listing).Update("landlord_id", f.otherLandlord.ID).Error)

	got, err := svc.Get(ctx, f.landlord, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, f.landlord.ID, got.LandlordID)

	_, err = svc.Get(ctx, f.otherLandlord, thread.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestThreadAccess(t *testing.T) {
	f := newFixture(t)
	svc := NewThreadService(f.db)
	thread, _, err := svc.CreateOrGet(ctx, f.tenant, ThreadInput{ListingID: f.listing.ID})
	require.NoError(t, err)

	tests := []struct {
		name    string
		actor   policy.Principal
		id      uint
		wantErr error
	}{
		{"tenant", f.tenant, thread.ID, nil},
		{"landlord", f.landlord, thread.ID, nil},
		{"admin is not a participant", f.admin, thread.ID, ErrNotParticipant},
		{"other tenant", f.otherTenant, thread.ID, ErrNotParticipant},
		{"missing", f.tenant, thread.ID + 100, ErrThreadNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, tt.actor, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			_, err = svc.SendMessage(ctx, tt.actor, tt.id, "hello")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			_, err = svc.ListMessages(ctx, tt.actor, tt.id, Page{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestThreadMessages(t *testing.T) {
	f := newFixture(t)
	svc := NewThreadService(f.db)
	thread, _, err := svc.CreateOrGet(ctx, f.tenant, ThreadInput{ListingID: f.listing.ID})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, f.tenant, thread.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.SendMessage(ctx, f.tenant, thread.ID, strings.Repeat("é", maxMessageLength+1))
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = svc.SendMessage(ctx, f.tenant, thread.ID, strings.Repeat("é", maxMessageLength))
	require.NoError(t, err)

	sentBefore := testutil.ToFloat64(metrics.MessagesSentTotal)
	contents := []string{"Is it available?", "Yes.", "Can I visit Friday?"}
	senders := []policy.Principal{f.tenant, f.landlord, f.tenant}
	var last *MessageDTO
	for i, c := range contents {
		time.Sleep(2 * time.Millisecond)
		last, err = svc.SendMessage(ctx, senders[i], thread.ID, c)
		require.NoError(t, err)
		assert.Equal(t, senders[i].ID, last.SenderID)
		assert.False(t, last.IsRead)
	}
	assert.Equal(t, sentBefore+3, testutil.ToFloat64(metrics.MessagesSentTotal))

	got, err := svc.Get(ctx, f.tenant, thread.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(last.CreatedAt), "thread updated_at %v, last message %v", got.UpdatedAt, last.CreatedAt)

	res, err := svc.ListMessages(ctx, f.landlord, thread.ID, Page{Page: 1, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	assert.Equal(t, 200, res.Limit)
	require.Len(t, res.Items, 4)
	for i, c := range contents {
		assert.Equal(t, c, res.Items[i+1].Content)
	}

	n, err := svc.MarkRead(ctx, f.tenant, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = svc.MarkRead(ctx, f.landlord, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = svc.MarkRead(ctx, f.landlord, thread.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.MarkRead(ctx, f.otherTenant, thread.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestListThreads(t *testing.T) {
	f := newFixture(t)
	svc := NewThreadService(f.db)
	second := f.createListing(t, f.landlord, 50000)

	older, _, err := svc.CreateOrGet(ctx, f.tenant, ThreadInput{ListingID: f.listing.ID})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, _, err = svc.CreateOrGet(ctx, f.tenant, ThreadInput{ListingID: second.ID})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, _, err = svc.CreateOrGet(ctx, f.otherTenant, ThreadInput{ListingID: f.listing.ID})
	require.NoError(t, err)

	tests := []struct {
		name      string
		actor     policy.Principal
		listingID uint
		want      int64
	}{
		{"tenant", f.tenant, 0, 2},
		{"tenant by listing", f.tenant, second.ID, 1},
		{"other tenant", f.otherTenant, 0, 1},
		{"landlord", f.landlord, 0, 3},
		{"uninvolved landlord", f.otherLandlord, 0, 0},
		{"admin", f.admin, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ListThreads(ctx, tt.actor, tt.listingID, Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Total)
			assert.Len(t, res.Items, int(tt.want))
			assert.Equal(t, 10, res.Limit)
		})
	}

	// a new message moves the oldest thread to the top
	time.Sleep(2 * time.Millisecond)
	_, err = svc.SendMessage(ctx, f.tenant, older.ID, "still interested")
	require.NoError(t, err)
	res, err := svc.ListThreads(ctx, f.landlord, 0, Page{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Items)
	assert.Equal(t, older.ID, res.Items[0].ID)
}
