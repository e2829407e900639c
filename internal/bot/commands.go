package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendbot/internal/attendance"
	"attendbot/internal/models"
	"attendbot/internal/query"
	"attendbot/internal/session"

	"github.com/bwmarrin/discordgo"
)

// Option limits that keep the dashboard title within the message limit.
const (
	maxDepartmentLength = 50
	maxSearchLength     = 100
)

var (
	minLatitude  = -90.0
	minLongitude = -180.0
	minAccuracy  = 0.0

	commands = []*discordgo.ApplicationCommand{
		{
			Name:        "help",
			Description: "Show how to record attendance",
		},
		{
			Name:        "login",
			Description: "Sign in to the attendance device",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Username",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "password",
					Description: "Password",
					Required:    true,
				},
			},
		},
		{
			Name:        "logout",
			Description: "Sign out; any photo and location not yet submitted are discarded",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "confirm",
					Description: "Are you sure you want to logout?",
					Required:    true,
				},
			},
		},
		{
			Name:        "photo",
			Description: "Capture your attendance photo",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "image",
					Description: "A photo of yourself",
					Required:    true,
				},
			},
		},
		{
			Name:        "location",
			Description: "Capture your current location",
			Options:     locationOptions(true),
		},
		{
			Name:        "retake",
			Description: "Discard the captured photo and location",
		},
		{
			Name:        "checkin",
			Description: "Check in with the captured photo",
			Options:     locationOptions(false),
		},
		{
			Name:        "checkout",
			Description: "Check out with the captured photo",
			Options:     locationOptions(false),
		},
		{
			Name:        "status",
			Description: "Show the device clock, who is signed in and what has been captured",
		},
		{
			Name:        "history",
			Description: "Show your recent activity",
		},
		{
			Name:        "view",
			Description: "Switch between marking attendance and the dashboard (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "View to open",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{
							Name:  "Mark Attendance",
							Value: string(models.ViewEmployee),
						},
						{
							Name:  "Dashboard",
							Value: string(models.ViewAdmin),
						},
					},
				},
			},
		},
		{
			Name:        "dashboard",
			Description: "Show attendance records and statistics",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "department",
					Description:  "Filter by department",
					Required:     false,
					MaxLength:    maxDepartmentLength,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "Time period (default: today)",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{
							Name:  "Today",
							Value: string(query.RangeToday),
						},
						{
							Name:  "Last 7 Days",
							Value: string(query.RangeWeek),
						},
						{
							Name:  "Last Month",
							Value: string(query.RangeMonth),
						},
						{
							Name:  "All Time",
							Value: string(query.RangeAll),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "search",
					Description: "Search by name",
					Required:    false,
					MaxLength:   maxSearchLength,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "format",
					Description: "Output format",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{
							Name:  "Text",
							Value: "text",
						},
						{
							Name:  "CSV",
							Value: "csv",
						},
					},
				},
			},
		},
		{
			Name:        "record",
			Description: "Show the details of one attendance record",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "id",
					Description: "Record ID",
					Required:    true,
				},
			},
		},
	}
)

func locationOptions(required bool) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionNumber,
			Name:        "latitude",
			Description: "Latitude in degrees",
			Required:    required,
			MinValue:    &minLatitude,
			MaxValue:    90,
		},
		{
			Type:        discordgo.ApplicationCommandOptionNumber,
			Name:        "longitude",
			Description: "Longitude in degrees",
			Required:    required,
			MinValue:    &minLongitude,
			MaxValue:    180,
		},
		{
			Type:        discordgo.ApplicationCommandOptionNumber,
			Name:        "accuracy",
			Description: "Accuracy in meters",
			Required:    false,
			MinValue:    &minAccuracy,
		},
	}
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.begin() {
		return
	}
	defer b.wg.Done()

	switch i.ApplicationCommandData().Name {
	case "dashboard":
		b.handleDepartmentAutocomplete(s, i)
	}
}

func (b *Bot) handleDepartmentAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	typed := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "department" && opt.Focused {
			typed = strings.ToLower(opt.StringValue())
		}
	}

	b.device.Lock()
	departments := append([]string{query.AllDepartments}, b.app.Departments()...)
	b.device.Unlock()

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, dep := range departments {
		if typed != "" && !strings.Contains(strings.ToLower(dep), typed) {
			continue
		}
		name := dep
		if dep == query.AllDepartments {
			name = "All Departments"
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: dep,
		})
		if len(choices) == 25 {
			break
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		b.log.Error("Error responding to autocomplete", "error", err)
	}
}

func (b *Bot) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.respondWithSuccess(s, i, strings.Join([]string{
		"# Attendance System",
		"1. `/login` with your username and password",
		"2. `/photo` to capture your photo",
		"3. `/location` to capture where you are (optional, `/checkin` and `/checkout` accept coordinates too)",
		"4. `/checkin` or `/checkout`",
		"",
		"`/retake` discards the capture, `/status` shows what is pending, `/history` shows your recent activity.",
		"Admins: `/view`, `/dashboard` and `/record`.",
		"`/logout confirm:true` when you are done.",
	}, "\n"))
}

func (b *Bot) handleLogin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	username := optionString(opts, "username")
	password := optionString(opts, "password")

	sess, err := b.app.Login(username, password)
	switch {
	case errors.Is(err, attendance.ErrAlreadyLoggedIn):
		b.respondWithError(s, i, fmt.Sprintf("%s is signed in on this device; they must `/logout` first", b.app.Session().Name()))
		return
	case err != nil:
		b.respondWithError(s, i, errorMessage(err))
		return
	}

	b.respondWithSuccess(s, i, fmt.Sprintf("Login successful!\n%s (%s)\nView: %s",
		sess.Name(), sess.Role(), viewLabel(sess.View())))
}

func (b *Bot) handleLogout(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	if !optionBool(opts, "confirm") {
		b.respondWithError(s, i, "Logout cancelled")
		return
	}

	sess := b.app.Session()
	if sess == nil {
		b.respondWithError(s, i, errorMessage(attendance.ErrNotLoggedIn))
		return
	}
	name := sess.Name()
	b.app.Logout()
	b.respondWithSuccess(s, i, fmt.Sprintf("%s logged out", name))
}

func (b *Bot) handlePhoto(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := optionMap(data.Options)

	if _, err := b.app.TakePhoto(ctx, attachmentCamera{attachment: resolveAttachment(data, opts["image"])}); err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}
	b.respondWithSuccess(s, i, "Photo captured ✓\n"+formatCaptureState(b.app.Session()))
}

func (b *Bot) handleLocation(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	geo := optionGeolocator{options: optionMap(i.ApplicationCommandData().Options)}

	loc, err := b.app.Locate(ctx, geo)
	if err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}
	b.respondWithSuccess(s, i, "Location captured ✓\n"+formatLocation(loc))
}

func (b *Bot) handleRetake(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := b.app.Retake(); err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}
	b.respondWithSuccess(s, i, "Photo and location cleared. Capture a new `/photo` to continue.")
}

func (b *Bot) handleSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, typ models.RecordType) {
	geo := optionGeolocator{options: optionMap(i.ApplicationCommandData().Options)}

	record, err := b.app.Submit(ctx, typ, geo)
	if err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}

	verb := "Check-in"
	if typ == models.CheckOut {
		verb = "Check-out"
	}
	b.respondWithSuccess(s, i, fmt.Sprintf("%s successful!\n%s", verb, formatRecordDetail(record, b.app.Department(record.User))))
}

func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.respondWithSuccess(s, i, formatStatus(b.app.Now(), b.app.Session()))
}

func (b *Bot) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	records, err := b.app.Recent(attendance.RecentLimit)
	if err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}
	b.respondWithSuccess(s, i, formatRecent(records))
}

func (b *Bot) handleView(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := b.app.Session()
	if sess == nil {
		b.respondWithError(s, i, errorMessage(attendance.ErrNotLoggedIn))
		return
	}
	if !sess.CanSwitchView() {
		b.respondWithError(s, i, "Only administrators can switch views")
		return
	}

	opts := optionMap(i.ApplicationCommandData().Options)
	view, err := models.ParseView(optionString(opts, "mode"))
	if err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}
	if err := b.app.SwitchView(view); err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}
	b.respondWithSuccess(s, i, "Switched to "+viewLabel(view))
}

func (b *Bot) handleRecord(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	id := int64(0)
	if opt, ok := opts["id"]; ok {
		id = opt.IntValue()
	}

	record, err := b.app.Record(id)
	if err != nil {
		b.respondWithError(s, i, errorMessage(err))
		return
	}
	b.respondWithSuccess(s, i, "# Attendance Details\n"+formatRecordDetail(record, b.app.Department(record.User)))
}

func viewLabel(v models.View) string {
	if v == models.ViewAdmin {
		return "Dashboard"
	}
	return "Mark Attendance"
}

// errorMessage turns core errors into the text shown to the user.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, attendance.ErrNotLoggedIn):
		return "You are not logged in. Use `/login` first"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Cancelled"
	default:
		msg := err.Error()
		if msg == "" {
			return "Unknown error"
		}
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
}
