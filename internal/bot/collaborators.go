package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendbot/internal/models"

	"github.com/bwmarrin/discordgo"
)

// attachmentCamera treats the image attached to /photo as the captured picture.
type attachmentCamera struct {
	attachment *discordgo.MessageAttachment
}

func (c attachmentCamera) Capture(ctx context.Context) (models.PhotoHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.attachment == nil {
		return "", errors.New("no image attached")
	}
	if !strings.HasPrefix(c.attachment.ContentType, "image/") {
		return "", fmt.Errorf("%s is not an image", c.attachment.Filename)
	}
	return models.PhotoHandle(c.attachment.URL), nil
}

// optionGeolocator reads a position shared through command options.
type optionGeolocator struct {
	options map[string]*discordgo.ApplicationCommandInteractionDataOption
}

func (g optionGeolocator) CurrentLocation(ctx context.Context) (models.LocationReading, error) {
	if err := ctx.Err(); err != nil {
		return models.LocationReading{}, err
	}

	lat, hasLat := g.options["latitude"]
	lon, hasLon := g.options["longitude"]
	if !hasLat || !hasLon {
		return models.LocationReading{}, errors.New("location unavailable; share latitude and longitude or use `/location`")
	}

	reading := models.LocationReading{
		Latitude:  lat.FloatValue(),
		Longitude: lon.FloatValue(),
	}
	if acc, ok := g.options["accuracy"]; ok {
		reading.Accuracy = acc.FloatValue()
	}
	return reading, nil
}

// memberPermissions grants camera and location access to members who may
// attach files in the channel, since photos arrive as attachments.
type memberPermissions struct {
	member *discordgo.Member
}

func (p memberPermissions) Granted(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.member == nil {
		return false, nil
	}
	perms := p.member.Permissions
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return perms&discordgo.PermissionAttachFiles != 0, nil
}

func resolveAttachment(data discordgo.ApplicationCommandInteractionData, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.MessageAttachment {
	if opt == nil || data.Resolved == nil {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	return data.Resolved.Attachments[id]
}
