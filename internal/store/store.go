package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	// Transaction runs fn against a Store bound to a single database
	// transaction. Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *model.User) error
	UserByID(ctx context.Context, id int64) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	SetUserVerified(ctx context.Context, id int64, verified bool) error
	UpdateUserPassword(ctx context.Context, id int64, hash string) error
	DebitUser(ctx context.Context, id int64, debit Debit) error
	CreditUser(ctx context.Context, id int64, credits int64) error
	PendingUsers(ctx context.Context) ([]model.User, error)
	ApproveUser(ctx context.Context, id int64) (*model.User, error)
	DeletePendingUser(ctx context.Context, id int64) (*model.User, error)
	ApprovePendingUsers(ctx context.Context) (int64, error)
	DeletePendingUsers(ctx context.Context) (int64, error)

	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	APIKeyByIdentifier(ctx context.Context, identifier string) (*model.APIKey, error)
	TouchAPIKey(ctx context.Context, id int64, at time.Time) error

	Setting(ctx context.Context, key, fallback string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	ListNodes(ctx context.Context) ([]model.Node, error)
	DeployableNodes(ctx context.Context) ([]model.Node, error)
	NodeByID(ctx context.Context, id int64) (*model.Node, error)
	CreateNode(ctx context.Context, node *model.Node, ip string, ports []int) error
	FreeAllocations(ctx context.Context, nodeID int64, limit int) ([]model.Allocation, error)
	AssignAllocations(ctx context.Context, serverID int64, ids []int64) error

	ListNests(ctx context.Context) ([]model.Nest, error)
	PublicNests(ctx context.Context) ([]model.Nest, error)
	NestByID(ctx context.Context, id int64) (*model.Nest, error)
	CreateNest(ctx context.Context, nest *model.Nest) error
	EggsForNest(ctx context.Context, nestID int64) ([]model.Egg, error)
	EggByID(ctx context.Context, id int64) (*model.Egg, error)
	CreateEgg(ctx context.Context, egg *model.Egg) error

	ListServers(ctx context.Context) ([]model.Server, error)
	ServersByOwner(ctx context.Context, ownerID int64) ([]model.Server, error)
	ServerByIdentifier(ctx context.Context, identifier string) (*model.Server, error)
	CreateServer(ctx context.Context, server *model.Server) error
	DeleteServer(ctx context.Context, id int64) error

	RecordAnalytics(ctx context.Context, sample *model.AnalyticsData, maxEntries int) error
	RecentAnalytics(ctx context.Context, serverID int64, limit int) ([]model.AnalyticsData, error)

	ListCoupons(ctx context.Context) ([]model.Coupon, error)
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error
	DeleteCoupon(ctx context.Context, id int64) error
	CouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	ExpireCoupons(ctx context.Context, now time.Time) ([]model.Coupon, error)
	RedeemCoupon(ctx context.Context, couponID, userID int64, at time.Time) error

	ListTickets(ctx context.Context) ([]model.Ticket, error)
	TicketsByUser(ctx context.Context, userID int64) ([]model.Ticket, error)
	TicketByID(ctx context.Context, id int64) (*model.Ticket, error)
	CreateTicket(ctx context.Context, ticket *model.Ticket) error
	AddTicketMessage(ctx context.Context, msg *model.TicketMessage) error
	SetTicketStatus(ctx context.Context, id int64, status string) error

	SavePushSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeletePushSubscription(ctx context.Context, userID int64, endpoint string) error
	PushSubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
}

// Debit is the set of quota counters removed from a user by a deployment.
type Debit struct {
	Balance   int64
	CPU       int
	Memory    int
	Disk      int
	Slots     int
	Ports     int
	Backups   int
	Databases int
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// notFound maps gorm's missing-row error onto apperr.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

// ErrDuplicate is returned when an insert violates a unique index. It needs
// the connection to be opened with TranslateError.
var ErrDuplicate = errors.New("record already exists")

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// ErrAllocationTaken is returned when an allocation was bound to another
// server between being listed as free and being assigned.
var ErrAllocationTaken = errors.New("allocation is already assigned")

// ErrInsufficientQuota is returned by DebitUser when the user's counters no
// longer cover the debit.
var ErrInsufficientQuota = errors.New("insufficient store quota")
