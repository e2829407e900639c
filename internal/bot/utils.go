package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// respondWithError replaces the deferred reply with an error
func (b *Bot) respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, errMsg string) {
	content := "Error: " + errMsg
	b.editResponse(s, i, &discordgo.WebhookEdit{
		Content: &content,
	})
}

// respondWithSuccess replaces the deferred reply with msg
func (b *Bot) respondWithSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	b.editResponse(s, i, &discordgo.WebhookEdit{
		Content: &msg,
	})
}

func (b *Bot) respondWithFile(s *discordgo.Session, i *discordgo.InteractionCreate, msg string, file *discordgo.File) {
	b.editResponse(s, i, &discordgo.WebhookEdit{
		Content: &msg,
		Files:   []*discordgo.File{file},
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, edit *discordgo.WebhookEdit) {
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.log.Error("Error editing interaction response",
			"command", i.ApplicationCommandData().Name,
			"user", interactionUsername(i),
			"error", err,
		)
	}
}

func interactionUsername(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

func getServerName(s *discordgo.Session, guildID string) string {
	if guildID == "" {
		return "DM"
	}
	if guild, err := s.State.Guild(guildID); err == nil && guild.Name != "" {
		return guild.Name
	}
	return guildID
}

// secretOptions are never written to the log.
var secretOptions = map[string]bool{
	"password": true,
}

// logCommand logs who ran which command with which options
func (b *Bot) logCommand(i *discordgo.InteractionCreate, commandName string) {
	b.log.Info("Command executed",
		"command", commandName,
		"user", interactionUsername(i),
		"guild", i.GuildID,
		"params", formatParams(i.ApplicationCommandData().Options),
	)
}

func formatParams(options []*discordgo.ApplicationCommandInteractionDataOption) string {
	var params []string
	for _, opt := range options {
		if secretOptions[opt.Name] {
			params = append(params, opt.Name+":***")
			continue
		}
		params = append(params, fmt.Sprintf("%s:%v", opt.Name, opt.Value))
	}
	return strings.Join(params, ", ")
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func optionString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func optionBool(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt, ok := opts[name]; ok {
		return opt.BoolValue()
	}
	return false
}

// formatTable creates a Discord-friendly table with fixed-width columns
func formatTable(headers []string, rows [][]string) string {
	// Find the maximum width for each column
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var result strings.Builder

	result.WriteString("```\n")
	for i, header := range headers {
		result.WriteString(fmt.Sprintf("%-*s", widths[i]+2, header))
	}
	result.WriteString("\n")

	for _, width := range widths {
		result.WriteString(strings.Repeat("-", width+2))
	}
	result.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			result.WriteString(fmt.Sprintf("%-*s", widths[i]+2, cell))
		}
		result.WriteString("\n")
	}
	result.WriteString("```")

	return result.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
