package bot

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"attendbot/internal/attendance"
	"attendbot/internal/config"
	"attendbot/internal/logger"
	"attendbot/internal/models"

	"github.com/bwmarrin/discordgo"
)

var (
	dmAllowedCommands = map[string]bool{
		"help": true, // everything else needs guild member permissions
	}

	// commands that work without camera and location access
	ungatedCommands = map[string]bool{
		"help":   true,
		"logout": true,
	}
)

type Bot struct {
	config     *config.Config
	app        *attendance.App
	log        logger.Logger
	session    *discordgo.Session
	shutdownCh chan struct{}
	isShutdown bool
	mu         sync.Mutex
	wg         sync.WaitGroup

	shutdownOnce sync.Once
	shutdownErr  error

	// device serializes every interaction against app; the app is driven by
	// one action at a time.
	device sync.Mutex
}

func New(config *config.Config, app *attendance.App, log logger.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + config.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds

	// Required permissions for visibility
	config.Discord.Permissions = int64(
		discordgo.PermissionViewChannel |
			discordgo.PermissionSendMessages |
			discordgo.PermissionAttachFiles |
			discordgo.PermissionUseSlashCommands)

	log.Info("Bot configured",
		"intents", session.Identify.Intents,
		"permissions", config.Discord.Permissions,
		"guild", config.Discord.GuildID,
	)

	return &Bot{
		config:     config,
		app:        app,
		log:        log,
		session:    session,
		shutdownCh: make(chan struct{}),
		isShutdown: false,
	}, nil
}

// Helper function to register commands for a guild
func (b *Bot) registerGuildCommands(guildID string) error {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := b.registerGuildCommandsOnce(guildID)
		if err == nil {
			return nil
		}
		lastErr = err
		b.log.Warn("Command registration attempt failed", "guild", guildID, "attempt", i+1, "error", err)
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return fmt.Errorf("failed to register commands after %d attempts: %w", maxRetries, lastErr)
}

func (b *Bot) registerGuildCommandsOnce(guildID string) error {
	log := b.log.With("guild", guildID, "server", getServerName(b.session, guildID))
	log.Info("Registering commands")

	// Bulk overwrite replaces whatever an older build left behind.
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.config.Discord.ClientID, guildID, commands)
	if err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	for _, cmd := range registered {
		log.Debug("Registered command", "command", cmd.Name)
	}
	return nil
}

// guildAllowed limits the bot to the configured guild when one is set.
func (b *Bot) guildAllowed(guildID string) bool {
	return b.config.Discord.GuildID == "" || b.config.Discord.GuildID == guildID
}

func (b *Bot) Start(ctx context.Context) error {
	b.log.Info("Starting attendance bot")

	// Keep trying to open session until successful
	for {
		err := b.session.Open()
		if err == nil {
			break
		}
		b.log.Error("Error opening Discord session, retrying in 5 seconds", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
	b.log.Info("Session opened", "session_id", b.session.State.SessionID)

	// Register handlers
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			b.handleCommand(s, i)
		case discordgo.InteractionApplicationCommandAutocomplete:
			b.handleAutocomplete(s, i)
		}
	})

	for _, guild := range b.session.State.Guilds {
		if !b.guildAllowed(guild.ID) {
			continue
		}
		if err := b.registerGuildCommands(guild.ID); err != nil {
			b.log.Error("Error registering commands", "guild", guild.ID, "error", err)
		}
	}

	// Now add the guild create handler for future guilds
	b.session.AddHandler(b.handleGuildCreate)

	b.log.Info("Bot is now running. Press CTRL-C to exit.")

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case <-b.shutdownCh:
	}
	return b.Shutdown()
}

// Shutdown performs a graceful shutdown of the bot. Concurrent callers block
// until the first one has finished.
func (b *Bot) Shutdown() error {
	b.shutdownOnce.Do(func() {
		b.shutdownErr = b.shutdown()
	})
	return b.shutdownErr
}

func (b *Bot) shutdown() error {
	b.mu.Lock()
	b.isShutdown = true
	close(b.shutdownCh)
	b.mu.Unlock()

	b.log.Info("Initiating graceful shutdown")

	// Wait for all handlers to complete
	b.log.Info("Waiting for active handlers to complete")
	b.wg.Wait()

	// The session is in memory only; say so in the log so nobody expects it back.
	b.device.Lock()
	if s := b.app.Session(); s != nil {
		b.log.Warn("Discarding active session", "session", s.ID, "user", s.Name())
		b.app.Logout()
	}
	b.device.Unlock()

	for _, guild := range b.session.State.Guilds {
		if !b.guildAllowed(guild.ID) {
			continue
		}
		log := b.log.With("guild", guild.ID, "server", getServerName(b.session, guild.ID))

		registeredCommands, err := b.session.ApplicationCommands(b.config.Discord.ClientID, guild.ID)
		if err != nil {
			log.Error("Error getting commands", "error", err)
			continue
		}
		for _, cmd := range registeredCommands {
			if err := b.session.ApplicationCommandDelete(b.config.Discord.ClientID, guild.ID, cmd.ID); err != nil {
				log.Error("Failed to remove command", "command", cmd.Name, "error", err)
			} else {
				log.Debug("Removed command", "command", cmd.Name)
			}
		}
	}

	b.log.Info("Closing Discord session")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("error closing Discord session: %w", err)
	}

	b.log.Info("Shutdown completed successfully")
	return nil
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("Bot is ready", "guilds", len(r.Guilds), "user", r.User.Username)
}

func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if !b.guildAllowed(g.ID) {
		b.log.Debug("Ignoring guild", "guild", g.ID, "server", g.Name)
		return
	}
	b.log.Info("Bot joined guild", "guild", g.ID, "server", g.Name)

	if err := b.registerGuildCommands(g.ID); err != nil {
		b.log.Error("Error registering commands", "guild", g.ID, "server", g.Name, "error", err)
	}
}

// begin tracks an in-flight handler; it reports false once shutdown has started.
func (b *Bot) begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isShutdown {
		return false
	}
	b.wg.Add(1)
	return true
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.begin() {
		return
	}
	defer b.wg.Done()

	commandName := i.ApplicationCommandData().Name
	username := interactionUsername(i)

	// Add defer to catch panics with stack trace
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			b.log.Error("Panic in command handler",
				"command", commandName,
				"user", username,
				"guild", i.GuildID,
				"panic", r,
				"stack", string(buf[:n]),
			)
			b.respondWithError(s, i, "An internal error occurred")
		}
	}()

	// Acknowledge first; every reply below edits this ephemeral response.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Error("Error acknowledging interaction", "command", commandName, "error", err)
		return
	}

	// Strict DM check
	if i.GuildID == "" && !dmAllowedCommands[commandName] {
		b.respondWithError(s, i, fmt.Sprintf("The `/%s` command can only be used in a server", commandName))
		return
	}
	if i.GuildID != "" && !b.guildAllowed(i.GuildID) {
		b.respondWithError(s, i, "This server is not linked to the attendance device")
		return
	}

	b.logCommand(i, commandName)

	b.device.Lock()
	defer b.device.Unlock()

	ctx := context.Background()
	if !ungatedCommands[commandName] {
		if err := b.app.RequestPermissions(ctx, memberPermissions{member: i.Member}); err != nil {
			b.respondWithError(s, i, "No access to camera or location: "+err.Error())
			return
		}
	}

	// Handle the command
	switch commandName {
	case "help":
		b.handleHelp(s, i)
	case "login":
		b.handleLogin(s, i)
	case "logout":
		b.handleLogout(s, i)
	case "photo":
		b.handlePhoto(ctx, s, i)
	case "location":
		b.handleLocation(ctx, s, i)
	case "retake":
		b.handleRetake(s, i)
	case "checkin":
		b.handleSubmit(ctx, s, i, models.CheckIn)
	case "checkout":
		b.handleSubmit(ctx, s, i, models.CheckOut)
	case "status":
		b.handleStatus(s, i)
	case "history":
		b.handleHistory(s, i)
	case "view":
		b.handleView(s, i)
	case "dashboard":
		b.handleDashboard(s, i)
	case "record":
		b.handleRecord(s, i)
	default:
		b.log.Warn("Unknown command", "command", commandName)
		b.respondWithError(s, i, "Unknown command")
	}
}
