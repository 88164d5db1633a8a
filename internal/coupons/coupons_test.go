package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
	"panel-backend/internal/store"
	"panel-backend/internal/store/storetest"
)

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	s := store.NewGormStore(storetest.NewDB(t))
	svc, err := NewService(s, "UTC")
	require.NoError(t, err)
	return svc, s
}

func TestParseExpiry(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)

	testCases := []struct {
		name        string
		value       string
		loc         *time.Location
		expected    time.Time
		expectedErr bool
	}{
		{
			name:     "UTC",
			value:    "2025-01-02 03:04:05",
			loc:      time.UTC,
			expected: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:     "Converted from local time",
			value:    "2025-01-02 08:00:00",
			loc:      shanghai,
			expected: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "Wrong layout",
			value:       "02/01/2025",
			loc:         time.UTC,
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseExpiry(tc.value, tc.loc)
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %v", got)
		})
	}
}

func TestService_ExpireAll(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	now := time.Now().UTC().Truncate(time.Second)

	due := &model.Coupon{Code: "DUE", Cr: 5, Uses: 1, Expires: now}
	later := &model.Coupon{Code: "LATER", Cr: 5, Uses: 1, Expires: now.Add(time.Minute)}
	require.NoError(t, s.CreateCoupon(ctx, due))
	require.NoError(t, s.CreateCoupon(ctx, later))

	ids, err := svc.ExpireAll(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{due.ID}, ids)

	ids, err = svc.ExpireAll(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []int64{later.ID}, ids)
}

func TestService_Redeem(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)

	user := &model.User{Username: "bob", Email: "bob@example.com", Password: "x", StoreBalance: 10}
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.CreateCoupon(ctx, &model.Coupon{Code: "WELCOME", Cr: 25, Uses: 2, Expires: time.Now().Add(time.Hour)}))
	require.NoError(t, s.CreateCoupon(ctx, &model.Coupon{Code: "OLD", Cr: 25, Uses: 2, Expires: time.Now().Add(-time.Hour)}))
	require.NoError(t, s.CreateCoupon(ctx, &model.Coupon{Code: "EMPTY", Cr: 25, Uses: 0, Expires: time.Now().Add(time.Hour)}))

	coupon, err := svc.Redeem(ctx, user.ID, " WELCOME ")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.Uses)

	got, err := s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(35), got.StoreBalance)

	testCases := []struct {
		name   string
		code   string
		detail string
	}{
		{"Unknown code", "NOPE", `The coupon code "NOPE" does not exist.`},
		{"Expired by time", "OLD", "This coupon has expired."},
		{"No uses left", "EMPTY", "This coupon has no uses left."},
		{"Already redeemed", "WELCOME", "You have already redeemed this coupon."},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Redeem(ctx, user.ID, tc.code)
			de, ok := apperr.AsDisplay(err)
			require.True(t, ok, "expected a display error, got %v", err)
			assert.Equal(t, tc.detail, de.Message)
		})
	}

	got, err = s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(35), got.StoreBalance, "failed redemptions must not credit")
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	coupon, err := svc.Create(ctx, CreateRequest{Code: "SPRING", Credits: 100, Uses: 10, Expires: "2030-04-01 00:00:00"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC), coupon.Expires)

	_, err = svc.Create(ctx, CreateRequest{Code: "BAD", Credits: 1, Uses: 1, Expires: "tomorrow"})
	_, ok := apperr.AsDisplay(err)
	assert.True(t, ok)

	_, err = svc.Create(ctx, CreateRequest{Code: " SPRING ", Credits: 5, Uses: 1, Expires: "2030-05-01 00:00:00"})
	de, ok := apperr.AsDisplay(err)
	require.True(t, ok, "expected a display error, got %v", err)
	assert.Equal(t, "The coupon code SPRING is already in use.", de.Message)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, coupon.ID))
	assert.ErrorIs(t, svc.Delete(ctx, coupon.ID), apperr.ErrNotFound)
}
