package inngest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/pubsub"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/elliotchance/pie/v2"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
)

// New registers the match summary workflow on inngestClient.
func New(inngestClient inngestgo.Client, results results.Store, roster roster.Store, notifier notifier.Notifier) InngestClient {
	c := &client{
		inngestClient: inngestClient,
		results:       results,
		roster:        roster,
		notifier:      notifier,
	}
	c.createMatchSummaryFunction()
	return c
}

func (i *client) createMatchSummaryFunction() inngestgo.ServableFunction {
	config := inngestgo.FunctionOpts{
		ID:   "match-summary",
		Name: "Post match summary",
	}
	f, err := inngestgo.CreateFunction(
		i.inngestClient,
		config,
		inngestgo.EventTrigger(EventMatchFinished, nil),
		func(ctx context.Context, input inngestgo.Input[map[string]any]) (any, error) {
			data, err := decodeMatchData(input.Event)
			if err != nil {
				return nil, err
			}

			summary, err := step.Run(ctx, "load-summary", func(ctx context.Context) (notifier.MatchSummary, error) {
				return BuildSummary(ctx, i.results, i.roster, data.MatchID)
			})
			if err != nil {
				return nil, err
			}

			_, err = step.Run(ctx, "post-stats", func(ctx context.Context) (string, error) {
				if err := i.notifier.SendMatchStats(ctx, data.Key(), summary); err != nil {
					return "", err
				}
				log.Info("Match summary posted", "chat", data.Key(), "match", data.MatchID, "players", len(summary.Players))
				return "OK", nil
			})
			if err != nil {
				return nil, err
			}
			return summary.MatchID, nil
		},
	)
	if err != nil {
		log.Fatal("Failed to create function", "error", err)
	}
	return f
}

func (i *client) Serve() http.Handler {
	return i.inngestClient.Serve()
}

func (i *client) SendMatchFinished(ctx context.Context, ev pubsub.MatchFinished) error {
	data, err := toEventData(MatchData{
		EventID:      ev.EventID,
		ChannelID:    ev.ChannelID,
		ThreadID:     ev.ThreadID,
		MatchID:      ev.MatchID,
		Score:        ev.Score,
		SeasonNumber: ev.SeasonNumber,
		At:           ev.At,
	})
	if err != nil {
		return err
	}
	if _, err := i.inngestClient.Send(ctx, inngestgo.Event{Name: EventMatchFinished, Data: data}); err != nil {
		return fmt.Errorf("failed to send %s event: %w", EventMatchFinished, err)
	}
	return nil
}

func toEventData(d MatchData) (map[string]any, error) {
	raw, err := sonic.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match data: %w", err)
	}
	var out map[string]any
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode match data: %w", err)
	}
	return out, nil
}

// decodeMatchData reads the data field of a raw inngest event.
func decodeMatchData(event map[string]any) (MatchData, error) {
	var d MatchData
	raw, err := sonic.Marshal(event["data"])
	if err != nil {
		return d, fmt.Errorf("failed to read event data: %w", err)
	}
	if err := sonic.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("failed to decode match data: %w", err)
	}
	if d.MatchID == 0 || d.ChannelID == "" {
		return d, fmt.Errorf("event carries no match: %s", raw)
	}
	return d, nil
}

// BuildSummary collects every player's line of a finished match, team 1
// first, then by points and name.
func BuildSummary(ctx context.Context, rs results.Store, rr roster.Store, matchID int64) (notifier.MatchSummary, error) {
	match, err := rs.GetMatch(ctx, matchID)
	if err != nil {
		return notifier.MatchSummary{}, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	season, err := rs.SeasonNumber(ctx, matchID)
	if err != nil {
		return notifier.MatchSummary{}, fmt.Errorf("failed to compute season number: %w", err)
	}
	history, err := rs.ListHistory(ctx, matchID)
	if err != nil {
		return notifier.MatchSummary{}, fmt.Errorf("failed to load history of match %d: %w", matchID, err)
	}

	summary := notifier.MatchSummary{MatchID: match.ID, Score: match.Score, SeasonNumber: season}
	if match.Championship != nil {
		summary.Championship = *match.Championship
	}
	for _, h := range history {
		name := fmt.Sprintf("#%d", h.PlayerID)
		if p, err := rr.GetPlayer(ctx, h.PlayerID); err == nil {
			name = p.Name
		} else {
			log.Warn("Player of match history not found", "match", matchID, "player", h.PlayerID, "error", err)
		}
		team, _ := strconv.Atoi(h.Team)
		summary.Players = append(summary.Players, notifier.PlayerLine{
			Name:         name,
			Team:         team,
			Points:       h.Points,
			Goals:        h.Goals,
			Autogoals:    h.Autogoals,
			Assists:      h.Assists,
			YellowCards:  h.YellowCards,
			RedCards:     h.RedCards,
			BestDefender: h.BestDefender,
			Captain:      h.IsCaptain,
		})
	}
	summary.Players = pie.SortStableUsing(summary.Players, func(pa, pb notifier.PlayerLine) bool {
		if pa.Team != pb.Team {
			return pa.Team < pb.Team
		}
		if pa.Points != pb.Points {
			return pa.Points > pb.Points
		}
		return pa.Name < pb.Name
	})
	return summary, nil
}
