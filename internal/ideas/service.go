// ABOUTME: Idea generation service building continuation prompts and persisting results
// ABOUTME: Tracks per-niche day counters and suppresses duplicate titles

package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Animus004/ideahub/internal/genai"
	"github.com/Animus004/ideahub/internal/store"
)

// Service errors
var (
	// ErrNoNiches is returned when a generation request names no niches.
	ErrNoNiches = errors.New("no niches requested")

	// ErrNothingGenerated is returned when parsing produced zero usable
	// ideas (all empty or duplicates).
	ErrNothingGenerated = errors.New("no usable ideas generated")
)

// ideasPerNiche is how many ideas one run produces for each niche.
const ideasPerNiche = 3

// Service generates content ideas through a Generator and persists them
// with per-niche continuation tracking.
type Service struct {
	store  store.Store
	gen    genai.Generator
	logger *slog.Logger
}

// NewService creates an idea service.
func NewService(st store.Store, gen genai.Generator) *Service {
	return &Service{
		store:  st,
		gen:    gen,
		logger: slog.Default().With("component", "ideas"),
	}
}

// generatedIdea is the shape the model is asked to return per idea.
type generatedIdea struct {
	Title string `json:"title"`
	Niche string `json:"niche"`
	Body  string `json:"body"`
}

// Generate runs one generation for the given niches. Each niche
// continues from the day after its highest recorded continuation day.
// Ideas whose title already exists in the niche are dropped rather than
// saved twice. A non-empty teamID shares the generated ideas with that
// team.
func (s *Service) Generate(ctx context.Context, userID, teamID string, niches []string) ([]*store.Idea, error) {
	if len(niches) == 0 {
		return nil, ErrNoNiches
	}

	days := make(map[string]int, len(niches))
	for _, niche := range niches {
		current, err := s.store.CurrentDay(ctx, niche)
		if err != nil {
			return nil, err
		}
		days[niche] = current + 1
	}

	prompt := buildPrompt(niches, days)
	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	parsed, err := parseIdeas(raw)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var saved []*store.Idea
	for _, gi := range parsed {
		title := strings.TrimSpace(gi.Title)
		niche := strings.TrimSpace(gi.Niche)
		if title == "" || niche == "" {
			continue
		}

		exists, err := s.store.TitleExists(ctx, niche, title)
		if err != nil {
			return nil, err
		}
		if exists {
			s.logger.Debug("dropped duplicate title", "niche", niche, "title", title)
			continue
		}

		day, ok := days[niche]
		if !ok {
			// Model answered with a niche we didn't ask for
			s.logger.Warn("dropped idea for unrequested niche", "niche", niche)
			continue
		}

		idea := &store.Idea{
			ID:              uuid.New().String(),
			TeamID:          teamID,
			UserID:          userID,
			Title:           title,
			Body:            gi.Body,
			Niche:           niche,
			ContinuationDay: day,
			CreatedAt:       now,
		}
		if err := s.store.SaveIdea(ctx, idea); err != nil {
			return nil, err
		}
		saved = append(saved, idea)
	}

	if len(saved) == 0 {
		return nil, ErrNothingGenerated
	}

	stat := &store.GenerationStat{
		ID:             uuid.New().String(),
		UserID:         userID,
		TeamID:         teamID,
		IdeasGenerated: len(saved),
		Niches:         strings.Join(niches, ","),
		Occurred:       now,
	}
	if err := s.store.SaveGenerationStat(ctx, stat); err != nil {
		s.logger.Warn("failed to record generation stat", "user_id", userID, "error", err)
	}

	s.logger.Info("generated ideas", "user_id", userID, "count", len(saved), "niches", stat.Niches)
	return saved, nil
}

// Get returns a single idea by id.
func (s *Service) Get(ctx context.Context, id string) (*store.Idea, error) {
	return s.store.GetIdea(ctx, id)
}

// List returns ideas filtered by team and niche, newest first.
func (s *Service) List(ctx context.Context, teamID, niche string, limit int) ([]*store.Idea, error) {
	return s.store.ListIdeas(ctx, teamID, niche, limit)
}

// Stats aggregates a user's generation history.
func (s *Service) Stats(ctx context.Context, userID string) (*store.UserStats, error) {
	return s.store.GetUserStats(ctx, userID)
}

// buildPrompt assembles the continuation prompt. Each niche states its
// day so the model continues the series instead of restarting it.
func buildPrompt(niches []string, days map[string]int) string {
	var b strings.Builder
	b.WriteString("You are a short-form content strategist. Generate original video content ideas.\n\n")

	for _, niche := range niches {
		fmt.Fprintf(&b, "## %s - generate %d ideas for day %d of this series\n",
			niche, ideasPerNiche, days[niche])
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Every title must be completely original, never generated before.\n")
	b.WriteString("- Titles are catchy hooks, at most 60 characters.\n")
	b.WriteString("- The body is a markdown script outline for the video.\n")
	b.WriteString("\nRespond with a JSON array only. Each element: ")
	b.WriteString(`{"title": string, "niche": string, "body": string}.`)
	b.WriteString(" Use the niche names exactly as given above.\n")
	return b.String()
}

// parseIdeas decodes the model output. Accepts either a bare array or an
// object wrapping it under "ideas", since models alternate between the
// two shapes.
func parseIdeas(raw string) ([]generatedIdea, error) {
	raw = strings.TrimSpace(raw)
	// Some models wrap JSON in a markdown fence despite instructions
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var list []generatedIdea
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Ideas []generatedIdea `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, fmt.Errorf("parsing generated ideas: %w", err)
	}
	return wrapped.Ideas, nil
}
