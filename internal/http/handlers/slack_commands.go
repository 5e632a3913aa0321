package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/balancer"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/draw"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
)

const commandHelp = "Usage: /football <command>\n" +
	"`join [attacker|defender|goalkeeper]`, `leave`, `out`, `roster`\n" +
	"`add <position> <name>`, `remove <player id>`, `promote`\n" +
	"`draw [all|gk|none] [variants]`, `draft <captain id> <captain id>`, `finish`, `clear`\n" +
	"`score <a:b>`, `minute <0-130>`, `set <setting> <value>`"

// command is one /football subcommand. It returns the ephemeral reply.
type command func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error)

func parsePosition(args []string) (roster.Position, error) {
	if len(args) == 0 {
		return roster.Attacker, nil
	}
	switch p := roster.Position(strings.ToLower(args[0])); p {
	case roster.Attacker, roster.Defender, roster.Goalkeeper:
		return p, nil
	default:
		return "", apperrors.Invalidf("unknown position %q", args[0])
	}
}

func parseID(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, apperrors.Invalidf("missing player id")
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, apperrors.Invalidf("%q is not a player id", args[i])
	}
	return id, nil
}

var commands = map[string]command{
	"join": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		position, err := parsePosition(args)
		if err != nil {
			return "", err
		}
		reg, err := svc.Registration.Register(ctx, key, actor, position)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You are registered as %s (%s).", reg.Position, reg.Status), nil
	},
	"leave": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ []string) (string, error) {
		return "You left the roster.", svc.Registration.Unregister(ctx, key, actor)
	},
	"out": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ []string) (string, error) {
		return "Marked as not coming.", svc.Registration.SetNotComing(ctx, key, actor)
	},
	"roster": func(ctx context.Context, svc Services, key chat.Key, _ auth.Actor, _ []string) (string, error) {
		board, err := svc.Registration.Board(ctx, key)
		if err != nil {
			return "", err
		}
		if err := svc.Notifier.SendRoster(ctx, key, board); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d of %d slots taken.", board.Occupied, board.Target), nil
	},
	"add": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		if len(args) < 2 {
			return "", apperrors.Invalidf("usage: add <position> <name>")
		}
		position, err := parsePosition(args[:1])
		if err != nil {
			return "", err
		}
		reg, err := svc.Registration.AddLegionnaire(ctx, key, actor, strings.Join(args[1:], " "), position)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s added (%s).", reg.Name(), reg.Status), nil
	},
	"remove": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		id, err := parseID(args, 0)
		if err != nil {
			return "", err
		}
		return "Player removed.", svc.Registration.ForceRemove(ctx, key, actor, id)
	},
	"promote": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ []string) (string, error) {
		if err := auth.Require(ctx, svc.Auth, actor, key); err != nil {
			return "", err
		}
		reg, err := svc.Registration.PromoteFromQueue(ctx, key)
		if err != nil {
			return "", err
		}
		if reg == nil {
			return "Nobody is waiting in the queue.", nil
		}
		return fmt.Sprintf("Offered the free slot to %s.", reg.Name()), nil
	},
	"draw": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		req := draw.Request{}
		for _, a := range args {
			switch m := balancer.Mode(strings.ToLower(a)); m {
			case balancer.ModeAll, balancer.ModeGK, balancer.ModeNone:
				req.Mode = m
			default:
				n, err := strconv.Atoi(a)
				if err != nil || n < 1 || n > 5 {
					return "", apperrors.Invalidf("unknown draw option %q", a)
				}
				req.Variants = n
			}
		}
		st, err := svc.Draw.StartVoting(ctx, key, actor, req)
		if err != nil {
			return "", err
		}
		if st.Committed() {
			return "Teams are set.", nil
		}
		return fmt.Sprintf("Voting opened over %d variants.", len(st.Variants)), nil
	},
	"draft": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		var captains []int64
		for i := range args {
			id, err := parseID(args, i)
			if err != nil {
				return "", err
			}
			captains = append(captains, id)
		}
		if _, err := svc.Draw.StartDraft(ctx, key, actor, captains); err != nil {
			return "", err
		}
		return "Draft started.", nil
	},
	"finish": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ []string) (string, error) {
		out, err := svc.Voting.ForceFinish(ctx, key, actor)
		if err != nil {
			return "", err
		}
		if out.Winner == nil {
			return "Voting closed.", nil
		}
		return fmt.Sprintf("Voting closed, variant %s wins.", out.Winner.ID), nil
	},
	"clear": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, _ []string) (string, error) {
		return "Session cleared.", svc.Draw.Clear(ctx, key, actor)
	},
	"score": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		if _, err := svc.Processor.EnterScore(ctx, key, actor, strings.Join(args, " ")); err != nil {
			return "", err
		}
		return "Score recorded.", nil
	},
	"minute": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		if len(args) != 1 {
			return "", apperrors.Invalidf("usage: minute <0-130>")
		}
		minute, err := strconv.Atoi(args[0])
		if err != nil {
			return "", apperrors.Invalidf("%q is not a minute", args[0])
		}
		st, err := svc.Drafts.Get(ctx, key)
		if err != nil {
			return "", err
		}
		if st != nil && st.Cards != nil && st.Cards.Step == draft.CardPickMinute {
			_, err = svc.Processor.EnterCardMinute(ctx, key, actor, minute)
		} else {
			_, err = svc.Processor.EnterMinute(ctx, key, actor, minute)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Minute %d saved.", minute), nil
	},
	"set": func(ctx context.Context, svc Services, key chat.Key, actor auth.Actor, args []string) (string, error) {
		if len(args) < 2 {
			return "", apperrors.Invalidf("usage: set <setting> <value>")
		}
		if err := auth.Require(ctx, svc.Auth, actor, key); err != nil {
			return "", err
		}
		value := strings.Join(args[1:], " ")
		if err := svc.Settings.Set(ctx, key, args[0], value); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s set to %s.", args[0], value), nil
	},
}

// FootballCommandHandler serves the /football slash command.
func FootballCommandHandler(svc Services, signingSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := verifySlackRequest(r, signingSecret); err != nil {
			log.Warn("Rejected Slack command", "error", err)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		fields := strings.Fields(cmd.Text)
		if len(fields) == 0 {
			respondWithSlackMsg(w, ephemeral(commandHelp))
			return
		}
		name := strings.ToLower(fields[0])
		run, ok := commands[name]
		if !ok {
			respondWithSlackMsg(w, ephemeral(commandHelp))
			return
		}

		key := chat.NewKey(cmd.ChannelID, "")
		actor := auth.Actor{AccountID: cmd.UserID, Name: cmd.UserName}
		log.Info("Received football command", "command", name, "chat", key, "user", actor.AccountID)
		reply, err := run(r.Context(), svc, key, actor, fields[1:])
		if err != nil {
			if StatusFor(err) == http.StatusInternalServerError {
				log.Error("Football command failed", "command", name, "chat", key, "error", err)
			}
			reply = userMessage(err)
		}
		respondWithSlackMsg(w, ephemeral(reply))
	}
}
