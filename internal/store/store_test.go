package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
	"panel-backend/internal/store/storetest"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_RecordAnalytics(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      bool
	}{
		{
			name: "Below the cap, only inserts",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "analytics_data" WHERE server_id = \$1`).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
				mock.ExpectQuery(`INSERT INTO "analytics_data"`).
					WithArgs(7, 50.0, 25.0, 10.0, Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
				mock.ExpectCommit()
			},
		},
		{
			name: "At the cap, deletes the oldest row first",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "analytics_data" WHERE server_id = \$1`).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
				mock.ExpectQuery(`SELECT \* FROM "analytics_data" WHERE server_id = \$1 ORDER BY id asc LIMIT`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "server_id"}).AddRow(1, 7))
				mock.ExpectExec(`DELETE FROM "analytics_data" WHERE "analytics_data"."id"`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`INSERT INTO "analytics_data"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(13))
				mock.ExpectCommit()
			},
		},
		{
			name: "Write failure rolls back",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "analytics_data"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`INSERT INTO "analytics_data"`).
					WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			sample := &model.AnalyticsData{ServerID: 7, CPU: 50, Memory: 25, Disk: 10}
			err := store.RecordAnalytics(context.Background(), sample, 12)

			if tc.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_RecordAnalyticsRetention(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	var firstIDs []int64
	for i := 0; i < 15; i++ {
		sample := &model.AnalyticsData{ServerID: 1, CPU: float64(i)}
		require.NoError(t, s.RecordAnalytics(ctx, sample, 12))
		if i < 3 {
			firstIDs = append(firstIDs, sample.ID)
		}
	}
	require.NoError(t, s.RecordAnalytics(ctx, &model.AnalyticsData{ServerID: 2}, 12))

	rows, err := s.RecentAnalytics(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, rows, 12)
	assert.Equal(t, 3.0, rows[0].CPU, "the three oldest samples should be gone")
	assert.Equal(t, 14.0, rows[11].CPU)
	for _, row := range rows {
		assert.NotContains(t, firstIDs, row.ID)
	}

	other, err := s.RecentAnalytics(ctx, 2, 100)
	require.NoError(t, err)
	assert.Len(t, other, 1, "the cap is per server")
}

func TestGormStore_ExpireCoupons(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))
	now := time.Now().UTC().Truncate(time.Second)

	past := &model.Coupon{Code: "PAST", Cr: 10, Uses: 1, Expires: now.Add(-time.Hour)}
	exact := &model.Coupon{Code: "EXACT", Cr: 10, Uses: 1, Expires: now}
	future := &model.Coupon{Code: "FUTURE", Cr: 10, Uses: 1, Expires: now.Add(time.Second)}
	for _, c := range []*model.Coupon{past, exact, future} {
		require.NoError(t, s.CreateCoupon(ctx, c))
	}

	expired, err := s.ExpireCoupons(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "PAST", expired[0].Code)
	assert.Equal(t, "EXACT", expired[1].Code)

	got, err := s.CouponByCode(ctx, "FUTURE")
	require.NoError(t, err)
	assert.False(t, got.Expired)

	again, err := s.ExpireCoupons(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, again, "already expired coupons are not reported twice")
}

func TestGormStore_RedeemCoupon(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	coupon := &model.Coupon{Code: "ONCE", Cr: 50, Uses: 1, Expires: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateCoupon(ctx, coupon))

	require.NoError(t, s.RedeemCoupon(ctx, coupon.ID, 1, time.Now()))
	assert.ErrorIs(t, s.RedeemCoupon(ctx, coupon.ID, 1, time.Now()), ErrCouponRedeemed)
	assert.ErrorIs(t, s.RedeemCoupon(ctx, coupon.ID, 2, time.Now()), ErrCouponExhausted)
}

func TestGormStore_Allocations(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	node := &model.Node{Name: "n1", FQDN: "n1.example.com", Scheme: "https", DaemonListen: 8080, Memory: 1024, Disk: 1024, Deployable: true}
	require.NoError(t, s.CreateNode(ctx, node, "10.0.0.1", []int{25565, 25566, 25567}))
	require.Len(t, node.Allocations, 3)

	free, err := s.FreeAllocations(ctx, node.ID, 2)
	require.NoError(t, err)
	require.Len(t, free, 2)
	assert.Equal(t, 25565, free[0].Port)

	ids := []int64{free[0].ID, free[1].ID}
	require.NoError(t, s.AssignAllocations(ctx, 99, ids))
	assert.ErrorIs(t, s.AssignAllocations(ctx, 100, ids), ErrAllocationTaken)

	left, err := s.FreeAllocations(ctx, node.ID, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, 25567, left[0].Port)
}

func TestGormStore_DebitAndCreditUser(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	user := &model.User{Username: "alice", Email: "alice@example.com", Password: "x",
		StoreBalance: 100, StoreCPU: 200, StoreMemory: 4096, StoreDisk: 8192, StoreSlots: 2,
		StorePorts: 3, StoreBackups: 2, StoreDatabases: 1}
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.DebitUser(ctx, user.ID, Debit{Balance: 25, CPU: 100, Memory: 1024, Disk: 2048, Slots: 1, Ports: 1, Backups: 1, Databases: 1}))
	require.NoError(t, s.CreditUser(ctx, user.ID, 5))

	got, err := s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(80), got.StoreBalance)
	assert.Equal(t, 100, got.StoreCPU)
	assert.Equal(t, 3072, got.StoreMemory)
	assert.Equal(t, 6144, got.StoreDisk)
	assert.Equal(t, 1, got.StoreSlots)
	assert.Equal(t, 2, got.StorePorts)
	assert.Equal(t, 1, got.StoreBackups)
	assert.Equal(t, 0, got.StoreDatabases)

	assert.ErrorIs(t, s.DebitUser(ctx, 404, Debit{}), apperr.ErrNotFound)

	// One slot is left; a debit of two must not drive it negative.
	assert.ErrorIs(t, s.DebitUser(ctx, user.ID, Debit{Slots: 2}), ErrInsufficientQuota)
	assert.ErrorIs(t, s.DebitUser(ctx, user.ID, Debit{Balance: 81, Slots: 1}), ErrInsufficientQuota)
	got, err = s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StoreSlots)
	assert.Equal(t, int64(80), got.StoreBalance)
}

func TestGormStore_CreateDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	require.NoError(t, s.CreateUser(ctx, &model.User{Username: "jo", Email: "jo@example.com", Password: "x"}))
	err := s.CreateUser(ctx, &model.User{Username: "jo", Email: "jo2@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, s.CreateCoupon(ctx, &model.Coupon{Code: "ONCE", Cr: 1, Uses: 1, Expires: expires}))
	err = s.CreateCoupon(ctx, &model.Coupon{Code: "ONCE", Cr: 2, Uses: 1, Expires: expires})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGormStore_PendingUsers(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	for _, u := range []*model.User{
		{Username: "a", Email: "a@example.com", Password: "x", Approved: true},
		{Username: "b", Email: "b@example.com", Password: "x"},
		{Username: "c", Email: "c@example.com", Password: "x"},
	} {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	pending, err := s.PendingUsers(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	n, err := s.DeletePendingUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.UserByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.UserByEmail(ctx, "a@example.com")
	assert.NoError(t, err)
}

func TestGormStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	v, err := s.Setting(ctx, "approvals:enabled", "false")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	require.NoError(t, s.SetSetting(ctx, "approvals:enabled", "true"))
	require.NoError(t, s.SetSetting(ctx, "approvals:enabled", "false"))

	v, err = s.Setting(ctx, "approvals:enabled", "")
	require.NoError(t, err)
	assert.Equal(t, "false", v)
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(storetest.NewDB(t))

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		if err := tx.CreateNest(ctx, &model.Nest{Name: "Minecraft"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	nests, err := s.ListNests(ctx)
	require.NoError(t, err)
	assert.Empty(t, nests)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
