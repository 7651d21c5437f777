package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

func seedCoupon(t *testing.T, repo domain.CouponRepository, c domain.Coupon) {
	t.Helper()
	if err := repo.Create(c); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
}

func TestValidator_Validate(t *testing.T) {
	now := time.Now().UTC()
	repo := memory.NewCouponRepository()
	seedCoupon(t, repo, domain.Coupon{
		ID:         "c1",
		Code:       "SAVE10",
		Type:       domain.CouponTypePercentage,
		Amount:     10,
		ActiveFrom: now.Add(-time.Hour),
		ExpireAt:   now.Add(time.Hour),
		IsValid:    true,
		IsApprove:  true,
	})

	v := NewValidator(repo, nil)

	result, err := v.Validate("SAVE10", 10000, now)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.CouponID != "c1" {
		t.Fatalf("coupon id = %s, want c1", result.CouponID)
	}
	if result.DiscountMinor != 1000 {
		t.Fatalf("discount = %d, want 1000", result.DiscountMinor)
	}
	if result.FreeShipping {
		t.Fatal("percentage coupon must not grant free shipping")
	}

	// Код регистронезависим.
	if _, err := v.Validate("save10", 10000, now); err != nil {
		t.Fatalf("lowercase code: %v", err)
	}
}

func TestValidator_ValidateErrors(t *testing.T) {
	now := time.Now().UTC()
	repo := memory.NewCouponRepository()
	seedCoupon(t, repo, domain.Coupon{
		ID:                     "c2",
		Code:                   "BIG50",
		Type:                   domain.CouponTypeFixed,
		Amount:                 5000,
		MinimumCartAmountMinor: 20000,
		ActiveFrom:             now.Add(-time.Hour),
		ExpireAt:               now.Add(time.Hour),
		IsValid:                true,
		IsApprove:              false,
	})

	v := NewValidator(repo, nil)

	if _, err := v.Validate("UNKNOWN", 10000, now); !errors.Is(err, domain.ErrCouponNotFound) {
		t.Fatalf("got %v, want ErrCouponNotFound", err)
	}
	if _, err := v.Validate("BIG50", 30000, now); !errors.Is(err, domain.ErrCouponNotApproved) {
		t.Fatalf("got %v, want ErrCouponNotApproved", err)
	}
}

func TestValidator_FreeShipping(t *testing.T) {
	now := time.Now().UTC()
	repo := memory.NewCouponRepository()
	seedCoupon(t, repo, domain.Coupon{
		ID:         "c3",
		Code:       "FREESHIP",
		Type:       domain.CouponTypeFreeShipping,
		ActiveFrom: now.Add(-time.Hour),
		ExpireAt:   now.Add(time.Hour),
		IsValid:    true,
		IsApprove:  true,
	})

	v := NewValidator(repo, nil)
	result, err := v.Validate("FREESHIP", 10000, now)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.DiscountMinor != 0 || !result.FreeShipping {
		t.Fatalf("unexpected result: %+v", result)
	}
}
