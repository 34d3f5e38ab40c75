package concierge

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"reva/internal/app/policies"
	domainlistings "reva/internal/domain/listings"
)

const (
	searchTool = "searchChalets"

	ReplyUnconfigured = "I'm sorry, my AI brain is missing its API key. Please check the configuration."
	ReplyUnavailable  = "I apologize, but I'm currently experiencing high traffic. Please try again later."
	ReplyEmpty        = "I'm having trouble connecting to the mountains right now. Please try again."
	ReplyUndescribed  = "I found some options but couldn't describe them."
)

const systemInstruction = `You are Reva, the concierge of Reva Chalet, a luxury chalet booking platform in Jordan.
Use the searchChalets tool whenever the guest asks for recommendations or a specific kind of stay.
Present matches with name, location and nightly price in JD.
When nothing matches, say so and suggest well-known destinations such as Wadi Rum or Ajloun.
Answer general questions about travelling in Jordan directly. Keep a warm, professional tone.`

// Catalog is the slice of the catalog the assistant may search.
type Catalog interface {
	Find(ctx context.Context, criteria domainlistings.SearchCriteria) ([]*domainlistings.Listing, error)
}

type Reply struct {
	Text     string
	Listings []*domainlistings.Listing
}

type Service struct {
	Model   policies.LanguageModel
	Catalog Catalog
	Logger  *slog.Logger
}

// Reply answers one user message. It never fails: every problem maps to a fixed apology.
func (s *Service) Reply(ctx context.Context, message string, history []policies.Turn) Reply {
	if s.Model == nil {
		return Reply{Text: ReplyUnconfigured}
	}
	turns := make([]policies.Turn, 0, len(history)+3)
	for _, t := range history {
		role := policies.TurnModel
		if t.Role == policies.TurnUser {
			role = policies.TurnUser
		}
		turns = append(turns, policies.Turn{Role: role, Text: t.Text})
	}
	turns = append(turns, policies.Turn{Role: policies.TurnUser, Text: strings.TrimSpace(message)})

	first, err := s.Model.Generate(ctx, policies.GenerateRequest{
		System: systemInstruction,
		Turns:  turns,
		Tools:  []policies.ToolSpec{searchToolSpec()},
	})
	if err != nil {
		s.logFailure("assistant generate failed", err)
		return Reply{Text: ReplyUnavailable}
	}
	if first.Call == nil || first.Call.Name != searchTool {
		if strings.TrimSpace(first.Text) == "" {
			return Reply{Text: ReplyEmpty}
		}
		return Reply{Text: first.Text}
	}

	criteria := criteriaFromArgs(first.Call.Args)
	var found []*domainlistings.Listing
	if s.Catalog != nil {
		found, err = s.Catalog.Find(ctx, criteria)
		if err != nil {
			s.logFailure("assistant catalog search failed", err)
			return Reply{Text: ReplyUnavailable}
		}
	}
	if s.Logger != nil {
		s.Logger.Debug("assistant tool call", "tool", first.Call.Name, "args", first.Call.Args, "matches", len(found))
	}

	turns = append(turns,
		policies.Turn{Role: policies.TurnModel, Call: first.Call},
		policies.Turn{Role: policies.TurnUser, Result: &policies.ToolResult{
			Name:     searchTool,
			Response: map[string]any{"name": searchTool, "content": map[string]any{"chalets": toolPayload(found)}},
		}},
	)
	final, err := s.Model.Generate(ctx, policies.GenerateRequest{System: systemInstruction, Turns: turns})
	if err != nil {
		s.logFailure("assistant follow-up failed", err)
		return Reply{Text: ReplyUnavailable, Listings: found}
	}
	text := strings.TrimSpace(final.Text)
	if text == "" {
		text = ReplyUndescribed
	}
	return Reply{Text: text, Listings: found}
}

func (s *Service) logFailure(msg string, err error) {
	if s.Logger != nil {
		s.Logger.Error(msg, "error", err)
	}
}

func searchToolSpec() policies.ToolSpec {
	return policies.ToolSpec{
		Name:        searchTool,
		Description: "Search for chalets in Jordan by location (governorate or city), nightly price range in JD, or guest capacity.",
		Parameters: map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"location": map[string]any{"type": "STRING", "description": "Location or governorate, e.g. Amman, Dead Sea, Wadi Rum, Aqaba, Ajloun."},
				"minPrice": map[string]any{"type": "NUMBER", "description": "Minimum price per night in JD."},
				"maxPrice": map[string]any{"type": "NUMBER", "description": "Maximum price per night in JD."},
				"guests":   map[string]any{"type": "NUMBER", "description": "Number of guests."},
			},
		},
	}
}

func criteriaFromArgs(args map[string]any) domainlistings.SearchCriteria {
	var c domainlistings.SearchCriteria
	if v, ok := args["location"].(string); ok {
		c.Location = v
	}
	c.MinPrice = int64(math.Floor(number(args["minPrice"])))
	c.MaxPrice = int64(math.Ceil(number(args["maxPrice"])))
	c.MinGuests = int(math.Ceil(number(args["guests"])))
	return c
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toolPayload(items []*domainlistings.Listing) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, l := range items {
		out = append(out, map[string]any{
			"id":          string(l.ID),
			"name":        l.Name,
			"location":    l.Location,
			"price":       l.NightlyPrice,
			"guests":      l.Capacity,
			"bedrooms":    l.Bedrooms,
			"rating":      l.Rating,
			"amenities":   l.Amenities,
			"description": l.Description,
		})
	}
	return out
}
