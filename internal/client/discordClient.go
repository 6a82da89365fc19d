package client

import (
	"context"
	"fmt"

	"membership-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// DiscordClient owns the bot's gateway session and performs role grants and DMs.
type DiscordClient struct {
	session *discordgo.Session
	guildID string
	roleID  string
}

func NewDiscordClient(cfg *config.Discord) (*DiscordClient, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &DiscordClient{
		session: session,
		guildID: cfg.GuildID,
		roleID:  cfg.RoleID,
	}, nil
}

func (c *DiscordClient) Session() *discordgo.Session {
	return c.session
}

func (c *DiscordClient) GuildID() string {
	return c.guildID
}

func (c *DiscordClient) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (c *DiscordClient) Close() error {
	return c.session.Close()
}

// GrantRole adds the membership role to userID in the configured guild.
func (c *DiscordClient) GrantRole(ctx context.Context, userID string) error {
	if err := c.session.GuildMemberRoleAdd(c.guildID, userID, c.roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: add role %s to %s: %v", ErrPlatformUnavailable, c.roleID, userID, err)
	}
	return nil
}

// SendDM opens (or reuses) the direct message channel with userID and posts content.
func (c *DiscordClient) SendDM(ctx context.Context, userID, content string) error {
	channel, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: open dm channel with %s: %v", ErrPlatformUnavailable, userID, err)
	}

	if _, err := c.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: send dm to %s: %v", ErrPlatformUnavailable, userID, err)
	}
	return nil
}
