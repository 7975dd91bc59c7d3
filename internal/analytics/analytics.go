package analytics

import (
	"context"
	"time"

	"honeypot-bot/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	Total   int            `json:"total"`
	ByLevel map[string]int `json:"by_level"`
	ByEvent map[string]int `json:"by_event"`
	Guilds  int            `json:"guilds"`
}

// Report summarizes audit entries since the given time. An empty guildID covers every guild.
func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{ByLevel: make(map[string]int), ByEvent: make(map[string]int)}
	guilds := make(map[string]struct{})
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
		report.ByEvent[log.Event]++
		guilds[log.GuildID] = struct{}{}
	}
	report.Guilds = len(guilds)
	return report, nil
}
