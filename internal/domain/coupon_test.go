package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func makeCoupon() domain.Coupon {
	now := time.Now().UTC()
	return domain.Coupon{
		ID:         "coupon-1",
		Code:       "SAVE10",
		Type:       domain.CouponTypePercentage,
		Amount:     10,
		ActiveFrom: now.Add(-time.Hour),
		ExpireAt:   now.Add(time.Hour),
		IsValid:    true,
		IsApprove:  true,
	}
}

func TestCouponUsableAt(t *testing.T) {
	now := time.Now().UTC()

	t.Run("ok", func(t *testing.T) {
		c := makeCoupon()
		if err := c.UsableAt(now, 10000); err != nil {
			t.Fatalf("expected usable coupon, got %v", err)
		}
	})

	t.Run("before window", func(t *testing.T) {
		c := makeCoupon()
		c.ActiveFrom = now.Add(time.Hour)
		c.ExpireAt = now.Add(2 * time.Hour)
		if err := c.UsableAt(now, 10000); !errors.Is(err, domain.ErrCouponExpired) {
			t.Fatalf("got %v, want ErrCouponExpired", err)
		}
	})

	t.Run("after window", func(t *testing.T) {
		c := makeCoupon()
		c.ExpireAt = now.Add(-time.Minute)
		if err := c.UsableAt(now, 10000); !errors.Is(err, domain.ErrCouponExpired) {
			t.Fatalf("got %v, want ErrCouponExpired", err)
		}
	})

	t.Run("not approved", func(t *testing.T) {
		c := makeCoupon()
		c.IsApprove = false
		if err := c.UsableAt(now, 10000); !errors.Is(err, domain.ErrCouponNotApproved) {
			t.Fatalf("got %v, want ErrCouponNotApproved", err)
		}
	})

	t.Run("not valid", func(t *testing.T) {
		c := makeCoupon()
		c.IsValid = false
		if err := c.UsableAt(now, 10000); !errors.Is(err, domain.ErrCouponNotApproved) {
			t.Fatalf("got %v, want ErrCouponNotApproved", err)
		}
	})

	t.Run("minimum not met", func(t *testing.T) {
		c := makeCoupon()
		c.MinimumCartAmountMinor = 20000
		if err := c.UsableAt(now, 10000); !errors.Is(err, domain.ErrCouponMinimumNotMet) {
			t.Fatalf("got %v, want ErrCouponMinimumNotMet", err)
		}
	})
}

func TestCouponDiscountFor(t *testing.T) {
	cases := []struct {
		name         string
		couponType   domain.CouponType
		amount       int64
		subtotal     int64
		wantDiscount int64
		wantFree     bool
	}{
		{"percentage 10%", domain.CouponTypePercentage, 10, 10000, 1000, false},
		{"percentage caps at subtotal", domain.CouponTypePercentage, 200, 10000, 10000, false},
		{"fixed", domain.CouponTypeFixed, 500, 10000, 500, false},
		{"fixed caps at subtotal", domain.CouponTypeFixed, 20000, 10000, 10000, false},
		{"default behaves as fixed", domain.CouponTypeDefault, 300, 10000, 300, false},
		{"free shipping gives no item discount", domain.CouponTypeFreeShipping, 0, 10000, 0, true},
		{"negative amount clamps to zero", domain.CouponTypeFixed, -100, 10000, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := makeCoupon()
			c.Type = tc.couponType
			c.Amount = tc.amount

			discount, free := c.DiscountFor(tc.subtotal)
			if discount != tc.wantDiscount {
				t.Fatalf("discount = %d, want %d", discount, tc.wantDiscount)
			}
			if free != tc.wantFree {
				t.Fatalf("freeShipping = %v, want %v", free, tc.wantFree)
			}
		})
	}
}
