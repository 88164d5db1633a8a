// Package coupons expires coupons on a schedule and lets users redeem them
// for store credits.
package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"panel-backend/internal/apperr"
	"panel-backend/internal/metrics"
	"panel-backend/internal/model"
	"panel-backend/internal/store"
)

// ExpiryLayout is the format admins use for coupon expiry times.
const ExpiryLayout = "2006-01-02 15:04:05"

// Service manages coupons.
type Service struct {
	store store.Store
	loc   *time.Location
}

// NewService creates a coupon service. Expiry times entered by admins are
// read in the timezone tz.
func NewService(s store.Store, tz string) (*Service, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}
	return &Service{store: s, loc: loc}, nil
}

// ExpireAll flags every coupon whose expiry time is at or before now and
// returns their ids.
func (s *Service) ExpireAll(ctx context.Context, now time.Time) ([]int64, error) {
	expired, err := s.store.ExpireCoupons(ctx, now)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(expired))
	for _, c := range expired {
		log.WithFields(log.Fields{
			"coupon_id": c.ID,
			"code":      c.Code,
			"expires":   c.Expires,
		}).Info("Coupon has expired")
		ids = append(ids, c.ID)
	}
	metrics.CouponsExpired.Add(float64(len(ids)))
	return ids, nil
}

// Redeem grants the coupon's credits to the user and consumes one use.
func (s *Service) Redeem(ctx context.Context, userID int64, code string) (*model.Coupon, error) {
	code = strings.TrimSpace(code)
	coupon, err := s.store.CouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Display("The coupon code %q does not exist.", code)
		}
		return nil, err
	}

	if coupon.Expired || !time.Now().Before(coupon.Expires) {
		return nil, apperr.Display("This coupon has expired.")
	}
	if coupon.Uses < 1 {
		return nil, apperr.Display("This coupon has no uses left.")
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.RedeemCoupon(ctx, coupon.ID, userID, time.Now().UTC()); err != nil {
			return err
		}
		return tx.CreditUser(ctx, userID, coupon.Cr)
	})
	switch {
	case errors.Is(err, store.ErrCouponRedeemed):
		return nil, apperr.Display("You have already redeemed this coupon.")
	case errors.Is(err, store.ErrCouponExhausted):
		return nil, apperr.Display("This coupon has no uses left.")
	case err != nil:
		return nil, err
	}

	log.WithFields(log.Fields{"coupon_id": coupon.ID, "user_id": userID}).Info("Coupon redeemed")
	coupon.Uses--
	return coupon, nil
}

// CreateRequest is the admin form for a new coupon.
type CreateRequest struct {
	Code    string `json:"code" binding:"required,max=191"`
	Credits int64  `json:"cr" binding:"required,min=1"`
	Uses    int    `json:"uses" binding:"required,min=1"`
	Expires string `json:"expires" binding:"required"`
}

// Create stores a new coupon.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Coupon, error) {
	expires, err := ParseExpiry(req.Expires, s.loc)
	if err != nil {
		return nil, apperr.Display("The expiry time must use the format %s.", ExpiryLayout)
	}

	coupon := &model.Coupon{
		Code:    strings.TrimSpace(req.Code),
		Cr:      req.Credits,
		Uses:    req.Uses,
		Expires: expires,
	}
	err = s.store.CreateCoupon(ctx, coupon)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Display("The coupon code %s is already in use.", coupon.Code)
	}
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

// List returns every coupon.
func (s *Service) List(ctx context.Context) ([]model.Coupon, error) {
	return s.store.ListCoupons(ctx)
}

// Delete removes a coupon and its redemptions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteCoupon(ctx, id)
}

// ParseExpiry converts an admin-entered expiry time into UTC.
func ParseExpiry(value string, loc *time.Location) (time.Time, error) {
	parsed, err := time.ParseInLocation(ExpiryLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse expiry %q: %w", value, err)
	}
	return parsed.UTC(), nil
}
