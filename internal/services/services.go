package services

import (
	"context"
	"strings"
	"time"

	"github.com/taskswap/taskswap/internal/models"
)

const DefaultQueryTimeout = 5 * time.Second

// Publisher fans domain changes out to real-time subscribers of a task.
type Publisher interface {
	MessageCreated(msg models.Message)
	ProposalsUpdated(taskID string, proposals []models.Proposal)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, d)
}

// normalizeSkills trims entries, drops blanks and duplicates, and keeps the
// first-seen order.
func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))

	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}

	return out
}
