package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
)

var (
	// ErrCouponRedeemed is returned when the user already used the coupon.
	ErrCouponRedeemed = errors.New("coupon already redeemed by user")
	// ErrCouponExhausted is returned when the coupon has no uses left.
	ErrCouponExhausted = errors.New("coupon has no uses left")
)

func (s *gormStore) ListCoupons(ctx context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := s.db.WithContext(ctx).Order("id").Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *gormStore) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	if err := s.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return fmt.Errorf("failed to create coupon %q: %w", coupon.Code, duplicate(err))
	}
	return nil
}

func (s *gormStore) DeleteCoupon(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coupon_id = ?", id).Delete(&model.CouponRedemption{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Coupon{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("failed to delete coupon %d: %w", id, err)
	}
	return err
}

func (s *gormStore) CouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, notFound(err)
	}
	return &coupon, nil
}

// ExpireCoupons flags every coupon whose expiry time is at or before now and
// returns the coupons that changed.
func (s *gormStore) ExpireCoupons(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	var due []model.Coupon
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expired = ? AND expires <= ?", false, now).Order("id").Find(&due).Error; err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}

		ids := make([]int64, len(due))
		for i, c := range due {
			ids[i] = c.ID
		}
		return tx.Model(&model.Coupon{}).Where("id IN ?", ids).Update("expired", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expire coupons: %w", err)
	}
	for i := range due {
		due[i].Expired = true
	}
	return due, nil
}

// RedeemCoupon consumes one use of the coupon for the user. It does not
// credit the user; callers do that in the same transaction.
func (s *gormStore) RedeemCoupon(ctx context.Context, couponID, userID int64, at time.Time) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&model.CouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to check redemptions for coupon %d: %w", couponID, err)
	}
	if existing > 0 {
		return ErrCouponRedeemed
	}

	res := s.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ? AND uses > 0", couponID).
		Update("uses", gorm.Expr("uses - 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to consume coupon %d: %w", couponID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCouponExhausted
	}

	redemption := model.CouponRedemption{CouponID: couponID, UserID: userID, RedeemedAt: at}
	if err := s.db.WithContext(ctx).Create(&redemption).Error; err != nil {
		return fmt.Errorf("failed to record redemption of coupon %d: %w", couponID, err)
	}
	return nil
}
