// Package discordlog posts resolution summaries and interactive prompts to
// the table's shared Discord channel.
package discordlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vttforge/areatrigger/internal/errors"
	"github.com/vttforge/areatrigger/internal/services/delivery"
	"github.com/vttforge/areatrigger/internal/services/resolution"
)

// ApplyButtonPrefix namespaces this engine's component custom ids
const ApplyButtonPrefix = "areatrigger:apply:"

// Session is the slice of discordgo.Session the notifier uses
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier implements delivery.Notifier on a Discord channel
type Notifier struct {
	session   Session
	channelID string
}

// NotifierConfig holds configuration for the notifier
type NotifierConfig struct {
	Session   Session
	ChannelID string
}

// NewNotifier creates a new Discord notifier
func NewNotifier(cfg *NotifierConfig) *Notifier {
	if cfg.Session == nil {
		panic("discord session is required")
	}
	if cfg.ChannelID == "" {
		panic("discord channel ID is required")
	}
	return &Notifier{
		session:   cfg.Session,
		channelID: cfg.ChannelID,
	}
}

// PostSummary posts an embed describing one applied resolution
func (n *Notifier) PostSummary(ctx context.Context, result *resolution.Result) error {
	_, err := n.session.ChannelMessageSendComplex(n.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{buildSummaryEmbed(result)},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to post summary for area %s", result.AreaID)
	}
	return nil
}

// PostPrompt posts the interactive card and returns its message id as the
// durable control id
func (n *Notifier) PostPrompt(ctx context.Context, prompt *delivery.Prompt) (string, error) {
	msg, err := n.session.ChannelMessageSendComplex(n.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{buildPromptEmbed(prompt)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Apply",
						Style:    discordgo.DangerButton,
						CustomID: ApplyButtonPrefix + prompt.AreaID,
					},
				},
			},
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to post prompt for area %s", prompt.AreaID)
	}
	return msg.ID, nil
}

// DisablePrompt swaps the prompt's button for a disabled one
func (n *Notifier) DisablePrompt(ctx context.Context, promptID string, note string) error {
	label := "Applied"
	if note != "" {
		label = fmt.Sprintf("Applied (%s)", note)
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.SecondaryButton,
					CustomID: ApplyButtonPrefix + "done",
					Disabled: true,
				},
			},
		},
	}

	_, err := n.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    n.channelID,
		ID:         promptID,
		Components: &components,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to disable prompt %s", promptID)
	}
	return nil
}

func buildSummaryEmbed(result *resolution.Result) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("✨ %s affects %s", result.AreaName, result.TargetName),
		Color:  0xe67e22,
		Fields: []*discordgo.MessageEmbedField{},
	}

	if result.SaveDetail != nil {
		outcome := "❌ **FAILED**"
		if result.SaveDetail.Success {
			outcome = "✅ **SAVED**"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "🎲 Saving Throw",
			Value: fmt.Sprintf("%s: d20(%d) = **%d** vs DC %d\n%s",
				strings.ToUpper(result.SaveDetail.Ability), result.SaveDetail.Rolled,
				result.SaveDetail.Total, result.SaveDetail.DC, outcome),
			Inline: true,
		})
	}

	if result.DamageApplied > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "💥 Damage",
			Value:  fmt.Sprintf("**%d** %s", result.DamageApplied, result.DamageType),
			Inline: true,
		})
	}

	if len(result.GrantedEffects) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🌀 Conditions",
			Value:  strings.Join(result.GrantedEffects, ", "),
			Inline: false,
		})
	}

	if result.MacroInvoked {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "📜 Macro",
			Value:  "Item macro executed",
			Inline: false,
		})
	}

	if len(embed.Fields) == 0 {
		embed.Description = "No effect"
	}
	return embed
}

func buildPromptEmbed(prompt *delivery.Prompt) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("⏳ %s triggers on %s", prompt.AreaName, prompt.TargetTokenID),
		Description: fmt.Sprintf("Trigger: `%s`", prompt.Kind),
		Color:       0x3498db,
		Fields:      []*discordgo.MessageEmbedField{},
	}

	if prompt.DamageFormula != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "💥 Damage",
			Value:  fmt.Sprintf("`%s` %s", prompt.DamageFormula, prompt.DamageType),
			Inline: true,
		})
	}
	if prompt.SaveDC > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🎲 Save",
			Value:  fmt.Sprintf("DC %d %s", prompt.SaveDC, strings.ToUpper(prompt.SaveAbility)),
			Inline: true,
		})
	}
	if len(prompt.EffectRefs) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🌀 Conditions",
			Value:  strings.Join(prompt.EffectRefs, ", "),
			Inline: false,
		})
	}
	return embed
}
