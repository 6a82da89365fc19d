package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"membership-bot/internal/client"
	"membership-bot/internal/dto"
	"membership-bot/internal/model"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const commandTimeout = 30 * time.Second

// Bot connects the chat commands to a Discord gateway session.
type Bot struct {
	discord  *client.DiscordClient
	commands *Commands
	packages []*model.Package
	log      logrus.FieldLogger
}

func New(discord *client.DiscordClient, commands *Commands, packages []*model.Package, log logrus.FieldLogger) *Bot {
	return &Bot{
		discord:  discord,
		commands: commands,
		packages: packages,
		log:      log,
	}
}

// Start opens the session, registers the guild commands and blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	session := b.discord.Session()
	remove := session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.onInteraction(ctx, s, i)
	})
	defer remove()

	if err := b.discord.Open(); err != nil {
		return err
	}
	defer b.discord.Close()

	if _, err := session.ApplicationCommandBulkOverwrite(session.State.User.ID, b.discord.GuildID(), commandDefinitions(b.packages)); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	b.log.WithField("user", session.State.User.Username).Info("bot connected")
	<-ctx.Done()
	b.log.Info("bot disconnecting")
	return nil
}

func (b *Bot) onInteraction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	// Defer first: gateway calls can outlast the 3 second response window.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.log.WithError(err).Warn("defer interaction response")
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	data := i.ApplicationCommandData()
	reply := b.route(cmdCtx, callerOf(i), data.Name, newOptions(data.Options))

	edit := &discordgo.WebhookEdit{Content: &reply.Content}
	if reply.File != nil {
		edit.Files = []*discordgo.File{{
			Name:        reply.File.Name,
			ContentType: reply.File.ContentType,
			Reader:      bytes.NewReader(reply.File.Data),
		}}
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.log.WithError(err).WithField("command", data.Name).Warn("send interaction response")
	}
}

func (b *Bot) route(ctx context.Context, caller Caller, name string, opts options) Reply {
	switch name {
	case "buy":
		return b.commands.Buy(ctx, caller, opts.stringValue("package"), opts.stringValue("action"), opts.stringValue("email"))
	case "status":
		return b.commands.Status(ctx, caller)
	case "statistik":
		return b.commands.Statistik(ctx, caller)
	case "export_monthly":
		return b.commands.ExportMonthly(ctx, caller, opts.intValue("year"), opts.intValue("month"))
	case "creat_discount":
		return b.commands.CreateDiscount(ctx, caller, dto.CreateDiscountRequest{
			Code:       opts.stringValue("code"),
			Percentage: opts.intValue("percentage"),
			ValidDays:  opts.intValue("valid_days"),
			UsageLimit: opts.intValue("usage_limit"),
		})
	default:
		return Reply{Content: fmt.Sprintf("Unknown command %q.", name)}
	}
}

func callerOf(i *discordgo.InteractionCreate) Caller {
	if i.Member != nil && i.Member.User != nil {
		return Caller{
			UserID:   i.Member.User.ID,
			Username: i.Member.User.Username,
			IsAdmin:  i.Member.Permissions&discordgo.PermissionAdministrator != 0,
		}
	}
	if i.User != nil {
		return Caller{UserID: i.User.ID, Username: i.User.Username}
	}
	return Caller{}
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) stringValue(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	return opt.StringValue()
}

func (o options) intValue(name string) int {
	opt, ok := o[name]
	if !ok {
		return 0
	}
	return int(opt.IntValue())
}

func commandDefinitions(packages []*model.Package) []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	minOne := 1.0

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(packages))
	for _, pkg := range packages {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%s (%s)", pkg.Name, formatRupiah(pkg.Price)),
			Value: pkg.ID,
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "buy",
			Description: "Buy or renew a membership",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "package",
					Description: "Membership package",
					Required:    true,
					Choices:     choices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "New purchase or renewal of the current membership",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "new", Value: "new"},
						{Name: "renewal", Value: "renewal"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "email",
					Description: "Email for the payment receipt",
				},
			},
		},
		{
			Name:        "status",
			Description: "Show your membership window",
		},
		{
			Name:                     "statistik",
			Description:              "Subscription statistics",
			DefaultMemberPermissions: &adminOnly,
		},
		{
			Name:                     "export_monthly",
			Description:              "Export one month of transactions as CSV",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "year",
					Description: "Year, e.g. 2026",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "month",
					Description: "Month 1-12",
					Required:    true,
					MinValue:    &minOne,
					MaxValue:    12,
				},
			},
		},
		{
			Name:                     "creat_discount",
			Description:              "Create a discount code",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "code",
					Description: "Code, stored upper-case",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "percentage",
					Description: "Discount percentage 1-100",
					Required:    true,
					MinValue:    &minOne,
					MaxValue:    100,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "valid_days",
					Description: "Days the code stays valid",
					Required:    true,
					MinValue:    &minOne,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "usage_limit",
					Description: "Maximum number of uses",
					Required:    true,
					MinValue:    &minOne,
				},
			},
		},
	}
}
