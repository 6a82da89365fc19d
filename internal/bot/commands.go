package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-bot/internal/dto"
	"membership-bot/internal/service"

	"github.com/sirupsen/logrus"
)

const (
	msgAdminOnly       = "This command is for administrators only."
	msgSomethingWrong  = "Something went wrong, please try again later."
	msgNoSubscription  = "You have no active membership. Use /buy to get one."
	msgRenewalRequired = "You have no active membership to renew. Use /buy with action new instead."
)

// Caller identifies who invoked a command.
type Caller struct {
	UserID   string
	Username string
	IsAdmin  bool
}

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reply is the ephemeral response to a command.
type Reply struct {
	Content string
	File    *Attachment
}

// Commands implements the chat commands independently of the platform SDK.
type Commands struct {
	purchase service.PurchaseService
	admin    service.AdminService
	loc      *time.Location
	log      logrus.FieldLogger
}

func NewCommands(purchase service.PurchaseService, admin service.AdminService, loc *time.Location, log logrus.FieldLogger) *Commands {
	return &Commands{
		purchase: purchase,
		admin:    admin,
		loc:      loc,
		log:      log,
	}
}

func (c *Commands) Buy(ctx context.Context, caller Caller, packageID, action, email string) Reply {
	resp, err := c.purchase.Buy(ctx, dto.BuyRequest{
		BuyerID:   caller.UserID,
		BuyerName: caller.Username,
		PackageID: packageID,
		Action:    action,
		Email:     email,
	})
	switch {
	case err == nil:
		return Reply{Content: buyMessage(packageID, resp)}
	case errors.Is(err, service.ErrRenewalWithoutSubscription):
		return Reply{Content: msgRenewalRequired}
	default:
		return c.failure("buy", caller, err)
	}
}

func (c *Commands) Status(ctx context.Context, caller Caller) Reply {
	status, err := c.purchase.Status(ctx, caller.UserID)
	switch {
	case err == nil:
		return Reply{Content: statusMessage(status, c.loc)}
	case errors.Is(err, service.ErrSubscriptionNotFound):
		return Reply{Content: msgNoSubscription}
	default:
		return c.failure("status", caller, err)
	}
}

func (c *Commands) Statistik(ctx context.Context, caller Caller) Reply {
	if !caller.IsAdmin {
		return Reply{Content: msgAdminOnly}
	}

	stats, err := c.admin.Stats(ctx)
	if err != nil {
		return c.failure("statistik", caller, err)
	}
	return Reply{Content: statsMessage(stats)}
}

func (c *Commands) ExportMonthly(ctx context.Context, caller Caller, year, month int) Reply {
	if !caller.IsAdmin {
		return Reply{Content: msgAdminOnly}
	}

	export, err := c.admin.ExportMonthly(ctx, year, month)
	if err != nil {
		return c.failure("export_monthly", caller, err)
	}

	return Reply{
		Content: fmt.Sprintf("Transactions for %04d-%02d: %d rows.", year, month, export.Rows),
		File: &Attachment{
			Name:        export.Filename,
			ContentType: "text/csv",
			Data:        export.Content,
		},
	}
}

func (c *Commands) CreateDiscount(ctx context.Context, caller Caller, req dto.CreateDiscountRequest) Reply {
	if !caller.IsAdmin {
		return Reply{Content: msgAdminOnly}
	}

	discount, err := c.admin.CreateDiscount(ctx, req)
	switch {
	case err == nil:
		return Reply{Content: discountMessage(discount, c.loc)}
	case errors.Is(err, service.ErrDuplicateDiscount):
		return Reply{Content: fmt.Sprintf("Discount code `%s` already exists.", req.Code)}
	default:
		return c.failure("creat_discount", caller, err)
	}
}

// failure shows validation problems to the caller and hides everything else.
func (c *Commands) failure(command string, caller Caller, err error) Reply {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return Reply{Content: "Invalid input: " + ve.Error()}
	}

	c.log.WithError(err).WithFields(logrus.Fields{
		"command": command,
		"user_id": caller.UserID,
	}).Error("command failed")
	return Reply{Content: msgSomethingWrong}
}
