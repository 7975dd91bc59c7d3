package discord

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"honeypot-bot/internal/banner"

	"github.com/bwmarrin/discordgo"
	"github.com/kyokomi/emoji/v2"
)

const (
	WarningColor     = 0xFF0000
	WarningImageName = "warn.png"
	warningFooter    = "Будьте внимательны и осторожны!"
)

var (
	warningDescription = emoji.Sprint(":warning: **ВНИМАНИЕ!** :warning: **Не пишите сюда!** :warning:\n" +
		"Этот канал создан, чтобы отлавливать спам-ботов, которые могут украсть ваши данные.\n" +
		"*Do not post here. Anyone who writes in this channel is banned.*")

	bannerLines = []string{"! WARNING !", "DO NOT POST HERE", "posting in this channel = instant ban"}
)

// Warning is the notice posted into every new decoy channel.
type Warning struct {
	image []byte
}

// LoadWarning reads the attachment from path, rendering a plain banner when the
// file does not exist.
func LoadWarning(path string) (Warning, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil && len(data) > 0:
			return Warning{image: data}, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return Warning{}, fmt.Errorf("read warning image: %w", err)
		}
	}
	data, err := banner.Render(bannerLines, banner.DefaultOptions())
	if err != nil {
		return Warning{}, fmt.Errorf("render warning image: %w", err)
	}
	return Warning{image: data}, nil
}

func (w Warning) Message() *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:        WarningImageName,
			ContentType: "image/png",
			Reader:      bytes.NewReader(w.image),
		}},
		Embeds: []*discordgo.MessageEmbed{{
			Color:       WarningColor,
			Description: warningDescription,
			Image:       &discordgo.MessageEmbedImage{URL: "attachment://" + WarningImageName},
			Footer:      &discordgo.MessageEmbedFooter{Text: warningFooter},
		}},
	}
}
