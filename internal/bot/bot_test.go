package bot

import (
	"context"
	"testing"

	"membership-bot/internal/dto"
	"membership-bot/internal/model"
	"membership-bot/internal/observability"
	"membership-bot/internal/repository"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerOf(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "A1", Username: "root"},
			Permissions: discordgo.PermissionAdministrator | discordgo.PermissionSendMessages,
		},
	}}
	assert.Equal(t, Caller{UserID: "A1", Username: "root", IsAdmin: true}, callerOf(guild))

	plain := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "B1", Username: "alice"},
			Permissions: discordgo.PermissionSendMessages,
		},
	}}
	assert.False(t, callerOf(plain).IsAdmin)

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		User: &discordgo.User{ID: "B2", Username: "bob"},
	}}
	assert.Equal(t, Caller{UserID: "B2", Username: "bob"}, callerOf(dm))
}

func TestOptions(t *testing.T) {
	opts := newOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "code", Type: discordgo.ApplicationCommandOptionString, Value: "PROMO50"},
		{Name: "percentage", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(50)},
	})

	assert.Equal(t, "PROMO50", opts.stringValue("code"))
	assert.Equal(t, 50, opts.intValue("percentage"))
	assert.Equal(t, "", opts.stringValue("email"))
	assert.Equal(t, 0, opts.intValue("usage_limit"))
}

func TestRoute(t *testing.T) {
	purchase := &fakePurchase{buyResp: &dto.BuyResponse{OrderID: "SUB-1", Amount: 299000}}
	adminSvc := &fakeAdmin{discount: &model.DiscountCode{Code: "PROMO50"}}
	b := New(nil, newTestCommands(purchase, adminSvc), nil, observability.NewNopLogger())
	ctx := context.Background()

	b.route(ctx, member, "buy", options{
		"package": {Name: "package", Type: discordgo.ApplicationCommandOptionString, Value: "warrior_1month"},
		"action":  {Name: "action", Type: discordgo.ApplicationCommandOptionString, Value: "renewal"},
	})
	assert.Equal(t, "warrior_1month", purchase.lastBuy.PackageID)
	assert.Equal(t, "renewal", purchase.lastBuy.Action)
	assert.Equal(t, "B1", purchase.lastBuy.BuyerID)

	reply := b.route(ctx, admin, "creat_discount", options{
		"code": {Name: "code", Type: discordgo.ApplicationCommandOptionString, Value: "promo50"},
	})
	assert.Contains(t, reply.Content, "PROMO50")

	reply = b.route(ctx, member, "statistik", options{})
	assert.Equal(t, msgAdminOnly, reply.Content)

	reply = b.route(ctx, member, "refund", options{})
	assert.Equal(t, `Unknown command "refund".`, reply.Content)
}

func TestCommandDefinitions(t *testing.T) {
	packages := make([]*model.Package, 0, len(repository.DefaultPackages))
	for i := range repository.DefaultPackages {
		packages = append(packages, &repository.DefaultPackages[i])
	}

	defs := commandDefinitions(packages)
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"buy", "status", "statistik", "export_monthly", "creat_discount"}, names)

	buy := defs[0]
	require.NotEmpty(t, buy.Options)
	choices := buy.Options[0].Choices
	require.Len(t, choices, 4)
	assert.Equal(t, "warrior_1month", choices[0].Value)
	assert.Equal(t, "Warrior 1 Month (Rp 299.000)", choices[0].Name)

	for _, def := range defs[2:] {
		require.NotNil(t, def.DefaultMemberPermissions, def.Name)
		assert.Equal(t, int64(discordgo.PermissionAdministrator), *def.DefaultMemberPermissions)
	}
}
