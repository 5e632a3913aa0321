package slack

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Valikazar/football-magager-bot/internal/draft"
	"github.com/Valikazar/football-magager-bot/internal/notifier"
	"github.com/Valikazar/football-magager-bot/internal/results"
	"github.com/Valikazar/football-magager-bot/internal/roster"
	"github.com/Valikazar/football-magager-bot/internal/settings"
	internalslack "github.com/Valikazar/football-magager-bot/internal/slack"
	"github.com/slack-go/slack"
)

// buttonsPerBlock keeps long candidate lists readable on mobile.
const buttonsPerBlock = 5

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("plain_text", text, true, false)
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("mrkdwn", text, false, false)
}

func header(text string) slack.Block {
	return slack.NewHeaderBlock(plain(text))
}

func section(text string) slack.Block {
	return slack.NewSectionBlock(markdown(text), nil, nil)
}

func note(text string) slack.Block {
	return slack.NewContextBlock("", markdown(text))
}

type button struct {
	label string
	value string
	style slack.Style
}

// actions lays buttons out in rows of buttonsPerBlock.
func actions(id internalslack.ActionID, buttons []button) []slack.Block {
	var blocks []slack.Block
	for start := 0; start < len(buttons); start += buttonsPerBlock {
		end := min(start+buttonsPerBlock, len(buttons))
		var elements []slack.BlockElement
		for i, b := range buttons[start:end] {
			el := slack.NewButtonBlockElement(id.Element(start+i), b.value, plain(b.label))
			if b.style != "" {
				el = el.WithStyle(b.style)
			}
			elements = append(elements, el)
		}
		blocks = append(blocks, slack.NewActionBlock("", elements...))
	}
	return blocks
}

func memberButtons(id internalslack.ActionID, members []draft.Member, value func(m draft.Member) string) []slack.Block {
	buttons := make([]button, 0, len(members))
	for _, m := range members {
		buttons = append(buttons, button{label: m.Name, value: value(m)})
	}
	return actions(id, buttons)
}

func playerValue(m draft.Member) string {
	return internalslack.Value(m.PlayerID)
}

func mention(accountID, name string) string {
	if accountID == "" {
		return name
	}
	return fmt.Sprintf("<@%s>", accountID)
}

func memberList(members []draft.Member) string {
	if len(members) == 0 {
		return "_nobody_"
	}
	lines := make([]string, len(members))
	for i, m := range members {
		lines[i] = "• " + mention(m.AccountID, m.Name)
	}
	return strings.Join(lines, "\n")
}

func registrationList(regs []roster.Registration) string {
	if len(regs) == 0 {
		return "_nobody_"
	}
	lines := make([]string, len(regs))
	for i, r := range regs {
		lines[i] = fmt.Sprintf("%d. %s (%s)", i+1, mention(r.Player.AccountID, r.Name()), r.Position)
	}
	return strings.Join(lines, "\n")
}

func teamBlock(index int, team []draft.Member) slack.Block {
	var names []string
	for i, m := range team {
		name := mention(m.AccountID, m.Name)
		if i == 0 {
			name += " (C)"
		}
		names = append(names, name)
	}
	return section(fmt.Sprintf("*Team %d*\n%s", index, strings.Join(names, "\n")))
}

func formatRoster(board roster.Board) slack.Message {
	blocks := []slack.Block{
		header(fmt.Sprintf("⚽ Roster %d/%d", board.Occupied, board.Target)),
		section("*Playing*\n" + registrationList(board.Active)),
	}
	if len(board.Pending) > 0 {
		blocks = append(blocks, section("*Offered a spot*\n"+registrationList(board.Pending)))
	}
	if len(board.Queue) > 0 {
		blocks = append(blocks, section("*Queue*\n"+registrationList(board.Queue)))
	}
	if len(board.NotComing) > 0 {
		blocks = append(blocks, section("*Not coming*\n"+registrationList(board.NotComing)))
	}
	blocks = append(blocks, actions(internalslack.ActionRegister, []button{
		{label: "Attacker", value: string(roster.Attacker), style: slack.StylePrimary},
		{label: "Defender", value: string(roster.Defender), style: slack.StylePrimary},
		{label: "Goalkeeper", value: string(roster.Goalkeeper), style: slack.StylePrimary},
	})...)
	blocks = append(blocks, slack.NewActionBlock("",
		slack.NewButtonBlockElement(string(internalslack.ActionUnregister), "", plain("Unregister")),
		slack.NewButtonBlockElement(string(internalslack.ActionNotComing), "", plain("Not coming")).WithStyle(slack.StyleDanger),
	))
	return slack.NewBlockMessage(blocks...)
}

func formatPromotionOffer(reg roster.Registration) slack.Message {
	value := internalslack.Value(reg.PlayerID)
	return slack.NewBlockMessage(
		section(fmt.Sprintf("%s, a spot opened up. Are you playing?", mention(reg.Player.AccountID, reg.Name()))),
		slack.NewActionBlock("",
			slack.NewButtonBlockElement(string(internalslack.ActionConfirmPromotion), value, plain("I'm in")).WithStyle(slack.StylePrimary),
			slack.NewButtonBlockElement(string(internalslack.ActionDeclinePromotion), value, plain("Can't make it")),
		),
	)
}

func formatDraftStatus(st *draft.State) slack.Message {
	blocks := []slack.Block{header("Captains are picking")}
	for _, c := range st.Captains {
		blocks = append(blocks, teamBlock(st.TeamIndex(c), st.Teams[c]))
	}
	if turn, ok := st.Member(st.Turn); ok && len(st.Available) > 0 {
		blocks = append(blocks, section(fmt.Sprintf("%s, your pick:", mention(turn.AccountID, turn.Name))))
		blocks = append(blocks, memberButtons(internalslack.ActionPick, st.Available, playerValue)...)
	}
	return slack.NewBlockMessage(blocks...)
}

func formatVariants(variants []draft.Variant) slack.Message {
	blocks := []slack.Block{header("Vote for the teams")}
	var buttons []button
	for i, v := range variants {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			section(fmt.Sprintf("*Variant %d* _(%s)_  %.1f vs %.1f", i+1, v.Label, v.Score1, v.Score2)),
			slack.NewSectionBlock(nil, []*slack.TextBlockObject{
				markdown("*Team 1*\n" + memberList(v.Team1)),
				markdown("*Team 2*\n" + memberList(v.Team2)),
			}, nil),
		)
		buttons = append(buttons, button{label: fmt.Sprintf("Variant %d", i+1), value: v.ID})
	}
	blocks = append(blocks, slack.NewDividerBlock())
	blocks = append(blocks, actions(internalslack.ActionVote, buttons)...)
	blocks = append(blocks, slack.NewActionBlock("",
		slack.NewButtonBlockElement(string(internalslack.ActionForceFinish), "", plain("Finish voting")).WithStyle(slack.StyleDanger),
	))
	return slack.NewBlockMessage(blocks...)
}

func formatVoteTally(tally notifier.Tally) slack.Message {
	ids := make([]string, 0, len(tally.Counts))
	for id := range tally.Counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var lines []string
	for i, id := range ids {
		lines = append(lines, fmt.Sprintf("Variant %d: %d", i+1, tally.Counts[id]))
	}
	text := strings.Join(lines, " · ")
	if text == "" {
		text = "No votes yet"
	}
	return slack.NewBlockMessage(
		section(text),
		note(fmt.Sprintf("%d of %d voters needed for a majority", tally.Needed, tally.Eligible)),
	)
}

func formatTeamsCommitted(st *draft.State, variantID string) slack.Message {
	blocks := []slack.Block{header("✅ Teams are set")}
	for _, c := range st.Captains {
		blocks = append(blocks, teamBlock(st.TeamIndex(c), st.Teams[c]))
	}
	if variantID != "" {
		blocks = append(blocks, note("Chosen by vote"))
	}
	return slack.NewBlockMessage(blocks...)
}

func formatDuplicatePrompt(existing results.Match, pending draft.PendingScore) slack.Message {
	text := fmt.Sprintf("A match played at %s is already recorded with score *%s*. Record *%s*?",
		existing.PlayedAt.Format("Mon 02 Jan 15:04"), existing.Score, pending.Score)
	return slack.NewBlockMessage(
		section(text),
		slack.NewActionBlock("",
			slack.NewButtonBlockElement(internalslack.ActionDuplicate.Element(0), "overwrite", plain("Overwrite")).WithStyle(slack.StyleDanger),
			slack.NewButtonBlockElement(internalslack.ActionDuplicate.Element(1), "new", plain("Save as new")).WithStyle(slack.StylePrimary),
			slack.NewButtonBlockElement(internalslack.ActionDuplicate.Element(2), "cancel", plain("Cancel")),
		),
	)
}

func minuteHint(floor int) string {
	if floor == 0 {
		return "Reply with `/football minute <0-130>`."
	}
	return fmt.Sprintf("Reply with `/football minute <0-130>`. Last minute entered: %d.", floor)
}

func formatScoringPrompt(p notifier.ScoringPrompt) slack.Message {
	title := fmt.Sprintf("Goal %d of %d", p.Goal, p.Total)
	blocks := []slack.Block{section("*" + title + "*")}
	switch p.Step {
	case draft.StepScorer:
		toggle := "Own goal: off"
		if p.Autogoal {
			toggle = "Own goal: on"
		}
		blocks = append(blocks, note("Who scored?"))
		blocks = append(blocks, memberButtons(internalslack.ActionScorer, p.Candidates, playerValue)...)
		blocks = append(blocks, slack.NewActionBlock("",
			slack.NewButtonBlockElement(string(internalslack.ActionToggleAutogoal), "", plain(toggle)),
		))
	case draft.StepMinute:
		blocks = append(blocks, note(scorerName(p.Scorer)+" scored. "+minuteHint(p.MinuteFloor)))
	case draft.StepAssist:
		blocks = append(blocks, note("Who assisted "+scorerName(p.Scorer)+"?"))
		blocks = append(blocks, memberButtons(internalslack.ActionAssist, p.Candidates, playerValue)...)
		blocks = append(blocks, slack.NewActionBlock("",
			slack.NewButtonBlockElement(string(internalslack.ActionNoAssist), "", plain("No assist")),
			slack.NewButtonBlockElement(string(internalslack.ActionPenalty), "", plain("Penalty")),
		))
	}
	return slack.NewBlockMessage(blocks...)
}

func scorerName(m *draft.Member) string {
	if m == nil {
		return "The scorer"
	}
	return mention(m.AccountID, m.Name)
}

func formatCardPrompt(p notifier.CardPrompt) slack.Message {
	blocks := []slack.Block{section("*Cards*")}
	switch p.Step {
	case draft.CardPickPlayer:
		blocks = append(blocks, note("Who was booked?"))
		blocks = append(blocks, memberButtons(internalslack.ActionCardPlayer, p.Candidates, playerValue)...)
		blocks = append(blocks, slack.NewActionBlock("",
			slack.NewButtonBlockElement(string(internalslack.ActionFinishCards), "", plain("No more cards")).WithStyle(slack.StylePrimary),
		))
	case draft.CardPickColor:
		blocks = append(blocks, note("Which card for "+scorerName(p.Player)+"?"))
		blocks = append(blocks, actions(internalslack.ActionCardColor, []button{
			{label: "🟨 Yellow", value: string(draft.Yellow)},
			{label: "🟥 Red", value: string(draft.Red), style: slack.StyleDanger},
		})...)
	case draft.CardPickMinute:
		blocks = append(blocks, note(minuteHint(p.MinuteFloor)))
	}
	return slack.NewBlockMessage(blocks...)
}

func formatRatingPrompt(p notifier.RatingPrompt) slack.Message {
	captain := p.Captain.PlayerID
	who := mention(p.Captain.AccountID, p.Captain.Name)
	blocks := []slack.Block{section(fmt.Sprintf("*Team %d rating*", p.Team))}

	switch p.Step {
	case "":
		blocks = append(blocks, note(who+", rate your teammates."))
		blocks = append(blocks, slack.NewActionBlock("",
			slack.NewButtonBlockElement(string(internalslack.ActionRateStart), internalslack.Value(captain), plain("Start rating")).WithStyle(slack.StylePrimary),
		))
	case draft.RatingRank:
		if p.Mode == string(settings.RatingScale5) {
			for _, m := range p.Candidates {
				blocks = append(blocks, section(mention(m.AccountID, m.Name)))
				var grades []button
				for g := 1; g <= 5; g++ {
					grades = append(grades, button{label: strconv.Itoa(g), value: internalslack.Value(captain, m.PlayerID, int64(g))})
				}
				blocks = append(blocks, actions(internalslack.ActionRateScore, grades)...)
			}
			break
		}
		blocks = append(blocks, note(fmt.Sprintf("%s, who earns %d point(s)?", who, p.NextPoints)))
		blocks = append(blocks, memberButtons(internalslack.ActionRatePick, p.Candidates, func(m draft.Member) string {
			return internalslack.Value(captain, m.PlayerID)
		})...)
	case draft.RatingDefender:
		blocks = append(blocks, note(who+", who was your best defender?"))
		blocks = append(blocks, memberButtons(internalslack.ActionDefender, p.Candidates, func(m draft.Member) string {
			return internalslack.Value(captain, m.PlayerID)
		})...)
	case draft.RatingDone:
		blocks = append(blocks, note("Thanks, the team is rated."))
	}
	return slack.NewBlockMessage(blocks...)
}

func formatPaymentReport(p notifier.PaymentReport) slack.Message {
	blocks := []slack.Block{
		header(fmt.Sprintf("💰 %s per player", strconv.FormatFloat(p.Cost, 'f', -1, 64))),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			markdown("*Unpaid*\n" + registrationList(p.Unpaid)),
			markdown("*Marked paid*\n" + registrationList(p.Claimed)),
			markdown("*Confirmed*\n" + registrationList(p.Confirmed)),
		}, nil),
	}

	var claim []button
	for _, r := range p.Unpaid {
		claim = append(claim, button{label: r.Name() + " paid", value: internalslack.Value(r.PlayerID, int64(roster.Claimed))})
	}
	blocks = append(blocks, actions(internalslack.ActionPayment, claim)...)

	if p.NeedConfirm && len(p.Claimed) > 0 {
		var confirm []button
		for _, r := range p.Claimed {
			confirm = append(confirm, button{
				label: "Confirm " + r.Name(),
				value: internalslack.Value(r.PlayerID, int64(roster.Confirmed)),
				style: slack.StylePrimary,
			})
		}
		blocks = append(blocks, note("An admin confirms each payment."))
		blocks = append(blocks, actions(internalslack.ActionPayment, confirm)...)
	}
	blocks = append(blocks, slack.NewActionBlock("",
		slack.NewButtonBlockElement(string(internalslack.ActionConfirmAll), "", plain("Confirm all")),
	))
	return slack.NewBlockMessage(blocks...)
}

func seasonLine(m notifier.MatchSummary) string {
	if m.Championship == "" {
		return fmt.Sprintf("Match #%d of the season", m.SeasonNumber)
	}
	return fmt.Sprintf("%s, match #%d", m.Championship, m.SeasonNumber)
}

func formatMatchFinished(m notifier.MatchSummary) slack.Message {
	return slack.NewBlockMessage(
		header("🏁 Match finished: "+m.Score),
		note(seasonLine(m)+". See you next game!"),
	)
}

func statLine(p notifier.PlayerLine) string {
	var parts []string
	if p.Goals > 0 {
		parts = append(parts, fmt.Sprintf("⚽ %d", p.Goals))
	}
	if p.Assists > 0 {
		parts = append(parts, fmt.Sprintf("🅰️ %d", p.Assists))
	}
	if p.Autogoals > 0 {
		parts = append(parts, fmt.Sprintf("🙈 %d", p.Autogoals))
	}
	if p.YellowCards > 0 {
		parts = append(parts, fmt.Sprintf("🟨 %d", p.YellowCards))
	}
	if p.RedCards > 0 {
		parts = append(parts, fmt.Sprintf("🟥 %d", p.RedCards))
	}
	if p.BestDefender {
		parts = append(parts, "🛡️")
	}
	parts = append(parts, fmt.Sprintf("%d pts", p.Points))

	name := p.Name
	if p.Captain {
		name += " (C)"
	}
	return fmt.Sprintf("%s: %s", name, strings.Join(parts, " "))
}

func formatMatchStats(m notifier.MatchSummary) slack.Message {
	teams := map[int][]string{}
	for _, p := range m.Players {
		teams[p.Team] = append(teams[p.Team], statLine(p))
	}
	var fields []*slack.TextBlockObject
	for _, team := range []int{1, 2} {
		lines := teams[team]
		if len(lines) == 0 {
			continue
		}
		fields = append(fields, markdown(fmt.Sprintf("*Team %d*\n%s", team, strings.Join(lines, "\n"))))
	}
	blocks := []slack.Block{header("📊 Match stats " + m.Score)}
	if len(fields) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}
	blocks = append(blocks, note(seasonLine(m)))
	return slack.NewBlockMessage(blocks...)
}
