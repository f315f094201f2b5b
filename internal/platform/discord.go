package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Discord implements Platform on top of a discordgo session.
type Discord struct {
	session *discordgo.Session
}

// NewDiscord wraps an opened or about-to-open session.
func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

// Session exposes the underlying session for event registration.
func (d *Discord) Session() *discordgo.Session {
	return d.session
}

func (d *Discord) Guild(ctx context.Context, guildID string) (Guild, error) {
	g, err := d.session.State.Guild(guildID)
	if err != nil {
		g, err = d.session.Guild(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return Guild{}, mapError(err)
		}
	}
	return Guild{ID: g.ID, Name: g.Name, IconURL: g.IconURL("")}, nil
}

func (d *Discord) SendMessage(ctx context.Context, channelID string, msg Message) (SentMessage, error) {
	sent, err := d.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return SentMessage{}, mapError(err)
	}
	return SentMessage{ID: sent.ID, ChannelID: sent.ChannelID}, nil
}

func (d *Discord) EditMessage(ctx context.Context, channelID, messageID string, msg Message) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Content = &msg.Content
	embeds := toEmbeds(msg.Embed)
	edit.Embeds = &embeds
	components := toComponents(msg.Buttons)
	edit.Components = &components
	_, err := d.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return mapError(err)
}

func (d *Discord) FetchMessage(ctx context.Context, channelID, messageID string) (SentMessage, error) {
	m, err := d.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return SentMessage{}, mapError(err)
	}
	return SentMessage{ID: m.ID, ChannelID: m.ChannelID}, nil
}

func (d *Discord) GuildChannels(ctx context.Context, guildID string) ([]Channel, error) {
	channels, err := d.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]Channel, 0, len(channels))
	for _, c := range channels {
		if c.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		out = append(out, fromChannel(c))
	}
	return out, nil
}

func (d *Discord) Channel(ctx context.Context, channelID string) (Channel, error) {
	c, err := d.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return Channel{}, mapError(err)
	}
	return fromChannel(c), nil
}

func (d *Discord) CreateChannel(ctx context.Context, guildID string, spec ChannelSpec) (Channel, error) {
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(spec.Overwrites))
	for _, o := range spec.Overwrites {
		kind := discordgo.PermissionOverwriteTypeRole
		if o.Kind == OverwriteMember {
			kind = discordgo.PermissionOverwriteTypeMember
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    o.ID,
			Type:  kind,
			Allow: toDiscordPermissions(o.Allow),
			Deny:  toDiscordPermissions(o.Deny),
		})
	}
	c, err := d.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		ParentID:             spec.ParentID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return Channel{}, mapError(err)
	}
	return fromChannel(c), nil
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := d.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return mapError(err)
}

func (d *Discord) Member(ctx context.Context, guildID, userID, channelID string) (Member, error) {
	m, err := d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return Member{}, mapError(err)
	}
	perms, err := d.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return Member{}, mapError(err)
	}
	return Member{
		UserID:            userID,
		RoleIDs:           m.Roles,
		CanManageChannels: perms&discordgo.PermissionManageChannels != 0,
	}, nil
}

func (d *Discord) SendDirect(ctx context.Context, userID string, msg Message) error {
	dm, err := d.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	_, err = d.session.ChannelMessageSendComplex(dm.ID, toMessageSend(msg), discordgo.WithContext(ctx))
	return mapError(err)
}

func (d *Discord) SetStatus(_ context.Context, text string) error {
	return d.session.UpdateCustomStatus(text)
}

// InteractionResponder answers a single component interaction.
type InteractionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

// NewInteractionResponder binds a responder to interaction.
func NewInteractionResponder(session *discordgo.Session, interaction *discordgo.Interaction) *InteractionResponder {
	return &InteractionResponder{session: session, interaction: interaction}
}

func (r *InteractionResponder) Reply(ctx context.Context, reply Reply) error {
	data := &discordgo.InteractionResponseData{
		Content:    reply.Content,
		Embeds:     toEmbeds(reply.Embed),
		Components: toComponents(reply.Buttons),
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	return mapError(err)
}

func fromChannel(c *discordgo.Channel) Channel {
	ch := Channel{ID: c.ID, GuildID: c.GuildID, Name: c.Name, Topic: c.Topic, ParentID: c.ParentID}
	if created, err := discordgo.SnowflakeTimestamp(c.ID); err == nil {
		ch.CreatedAt = created
	}
	return ch
}

func toMessageSend(msg Message) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     toEmbeds(msg.Embed),
		Components: toComponents(msg.Buttons),
	}
}

func toEmbeds(e *Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return []*discordgo.MessageEmbed{}
	}
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer, IconURL: e.FooterIconURL}
	}
	return []*discordgo.MessageEmbed{embed}
}

func toComponents(buttons []Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			CustomID: b.CustomID,
			Style:    toButtonStyle(b.Style),
		})
	}
	return []discordgo.MessageComponent{row}
}

func toButtonStyle(s ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case ButtonPrimary:
		return discordgo.PrimaryButton
	case ButtonSuccess:
		return discordgo.SuccessButton
	case ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.SecondaryButton
	}
}

func toDiscordPermissions(p Permission) int64 {
	var out int64
	if p&PermViewChannel != 0 {
		out |= discordgo.PermissionViewChannel
	}
	if p&PermSendMessages != 0 {
		out |= discordgo.PermissionSendMessages
	}
	if p&PermReadMessageHistory != 0 {
		out |= discordgo.PermissionReadMessageHistory
	}
	if p&PermAttachFiles != 0 {
		out |= discordgo.PermissionAttachFiles
	}
	return out
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}
