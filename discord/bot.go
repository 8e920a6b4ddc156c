// Package discord connects the donation service to the configured guild:
// assigning and removing roles, and posting donation notifications.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"go-donations/perk"
)

type Config struct {
	Token                 string        `yaml:"token"`
	GuildID               string        `yaml:"guildId"`
	NotificationChannelID string        `yaml:"notificationChannelId"`
	ExpireRolesEvery      time.Duration `yaml:"expireRolesEvery"`
}

// Enabled reports whether enough is configured to connect a bot.
func (c Config) Enabled() bool {
	return c.Token != "" && c.GuildID != ""
}

// Bot is a REST connection to Discord bound to a single guild.
type Bot struct {
	session *discordgo.Session
	guildID string
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Bot, error) {
	if !cfg.Enabled() {
		return nil, errors.New("discord bot token and guild id are required")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{session: session, guildID: cfg.GuildID, logger: logger}, nil
}

// Open connects the gateway. REST calls work without it.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	b.logger.Info("connected to discord", zap.String("guild", b.guildID))
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) AddRole(ctx context.Context, userID, roleID string) error {
	return b.session.GuildMemberRoleAdd(b.guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (b *Bot) RemoveRole(ctx context.Context, userID, roleID string) error {
	err := b.session.GuildMemberRoleRemove(b.guildID, userID, roleID, discordgo.WithContext(ctx))
	if isUnknown(err) {
		// member left the guild or the role was deleted
		return nil
	}
	return err
}

// MemberRoles returns the role ids of a guild member. A user that is not a
// member of the guild has no roles.
func (b *Bot) MemberRoles(ctx context.Context, userID string) ([]string, error) {
	member, err := b.session.GuildMember(b.guildID, userID, discordgo.WithContext(ctx))
	if isUnknown(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}

func (b *Bot) GuildRoles(ctx context.Context) ([]perk.Role, error) {
	roles, err := b.session.GuildRoles(b.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]perk.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, perk.Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

// Notify posts text into channelID.
func (b *Bot) Notify(ctx context.Context, channelID, text string) error {
	_, err := b.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

func isUnknown(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	if restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownRole:
		return true
	}
	return false
}
