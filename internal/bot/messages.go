package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"membership-bot/internal/dto"
	"membership-bot/internal/event"
	"membership-bot/internal/model"
)

const dateLayout = "02 Jan 2006"

func activatedMessage(ev *event.SubscriptionActivated, loc *time.Location) string {
	verb := "activated"
	if ev.IsRenewal {
		verb = "renewed"
	}
	return fmt.Sprintf(
		"Payment received. Your %s membership has been %s (%d days).\nActive from %s until %s.",
		ev.PackageName, verb, ev.DurationDays,
		ev.StartAt.In(loc).Format(dateLayout), ev.EndAt.In(loc).Format(dateLayout),
	)
}

func expirySoonMessage(ev event.ExpirySoon, loc *time.Location) string {
	return fmt.Sprintf(
		"Heads up: your %s membership ends on %s. Use /buy with action renewal to extend it without losing any days.",
		ev.PackageID, ev.EndAt.In(loc).Format(dateLayout),
	)
}

func paymentFailedMessage(ev event.PaymentFailed) string {
	return fmt.Sprintf(
		"Your payment for %s (order %s) was not completed: %s. Run /buy again to get a new payment link.",
		ev.PackageID, ev.OrderID, ev.TransactionStatus,
	)
}

func buyMessage(pkg string, resp *dto.BuyResponse) string {
	kind := "purchase"
	if resp.IsRenewal {
		kind = "renewal"
	}
	return fmt.Sprintf(
		"Order `%s` for %s (%s): %s\nComplete the payment here: %s\nYour role is granted automatically once the payment settles.",
		resp.OrderID, pkg, kind, formatRupiah(resp.Amount), resp.PaymentURL,
	)
}

func statusMessage(status *dto.SubscriptionStatus, loc *time.Location) string {
	return fmt.Sprintf(
		"Package: %s\nActive since: %s\nEnds: %s (%d days left)",
		status.PackageID, status.StartAt.In(loc).Format(dateLayout), status.EndAt.In(loc).Format(dateLayout), status.DaysLeft,
	)
}

func statsMessage(stats *dto.Stats) string {
	var b strings.Builder
	b.WriteString("**Subscription statistics**\n")
	fmt.Fprintf(&b, "Active: %d\nTotal: %d\nRevenue: %s\n", stats.ActiveCount, stats.TotalCount, formatRupiah(stats.TotalRevenue))
	if len(stats.Breakdown) > 0 {
		b.WriteString("\nActive per package:\n")
		for _, row := range stats.Breakdown {
			fmt.Fprintf(&b, "- %s: %d\n", row.PackageID, row.Count)
		}
	}
	return b.String()
}

func discountMessage(discount *model.DiscountCode, loc *time.Location) string {
	return fmt.Sprintf(
		"Discount code `%s` created: %d%% off, valid until %s, usage limit %d.",
		discount.Code, discount.DiscountPercentage, discount.ValidUntil.In(loc).Format(dateLayout), discount.UsageLimit,
	)
}

// formatRupiah renders 1499000 as "Rp 1.499.000".
func formatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return "Rp " + sign + b.String()
}
