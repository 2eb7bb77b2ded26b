package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/drawbot-lab/backend/internal/client"
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/xcontext"
)

// Notifier delivers best-effort messages around lifecycle events. Failures
// are logged by implementations and never propagate into the transition that
// triggered them.
type Notifier interface {
	LotteryActivated(ctx context.Context, lottery *entity.Lottery,
		settings *entity.LotterySettings, prizes []entity.Prize)
	DrawCompleted(ctx context.Context, lottery *entity.Lottery,
		settings *entity.LotterySettings, prizes []entity.Prize,
		winners []entity.PrizeWinner, participants []entity.Participant)
}

type chatNotifier struct {
	chatClient client.ChatClient
}

func NewChatNotifier(chatClient client.ChatClient) *chatNotifier {
	return &chatNotifier{chatClient: chatClient}
}

func (n *chatNotifier) LotteryActivated(
	ctx context.Context,
	lottery *entity.Lottery,
	settings *entity.LotterySettings,
	prizes []entity.Prize,
) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎉 Your lottery %q is now live!\n\n", settings.Title)
	sb.WriteString("🎁 Prizes:\n")
	for _, prize := range prizes {
		fmt.Fprintf(&sb, "-- %s x%d\n", prize.Name, prize.TotalCount)
	}

	switch cfg := settings.JoinConfig(); cfg.Method {
	case entity.JoinGroupKeyword:
		fmt.Fprintf(&sb, "\nJoin by sending %q in %s\n",
			cfg.Keyword.Keyword, n.groupTitle(ctx, cfg.Keyword.GroupID))
	case entity.JoinGroupMessage:
		fmt.Fprintf(&sb, "\nJoin by sending %d messages in %s within %d hours\n",
			cfg.Message.Count, n.groupTitle(ctx, cfg.Message.GroupID), cfg.Message.WithinHours)
	default:
		sb.WriteString("\nJoin through the bot in a private chat\n")
	}

	if settings.DrawMethod == entity.DrawWhenFull {
		fmt.Fprintf(&sb, "🎲 Draws automatically at %d participants", settings.ParticipantCount)
	} else {
		fmt.Fprintf(&sb, "🎲 Draws at %s", settings.DrawTime.Format("2006-01-02 15:04:05"))
	}

	if err := n.chatClient.SendMessage(ctx, lottery.CreatorID, sb.String()); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot notify creator of lottery %s: %v", lottery.ID, err)
	}
}

func (n *chatNotifier) DrawCompleted(
	ctx context.Context,
	lottery *entity.Lottery,
	settings *entity.LotterySettings,
	prizes []entity.Prize,
	winners []entity.PrizeWinner,
	participants []entity.Participant,
) {
	prizeNames := map[string]string{}
	for _, prize := range prizes {
		prizeNames[prize.ID] = prize.Name
	}

	participantsByID := map[string]entity.Participant{}
	for _, p := range participants {
		participantsByID[p.ID] = p
	}

	for _, winner := range winners {
		participant, ok := participantsByID[winner.ParticipantID]
		if !ok {
			continue
		}

		text := fmt.Sprintf("🎉 Congratulations! You won %q in the lottery %q.\n"+
			"The creator will contact you about your prize.",
			prizeNames[winner.PrizeID], settings.Title)
		if err := n.chatClient.SendMessage(ctx, participant.UserID, text); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot notify winner %d of lottery %s: %v",
				participant.UserID, lottery.ID, err)
		}
	}

	summary := n.resultSummary(settings, prizeNames, participantsByID, winners)
	if err := n.chatClient.SendMessage(ctx, lottery.CreatorID, summary); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot notify creator of lottery %s: %v", lottery.ID, err)
	}

	for _, groupID := range announceGroups(settings) {
		if err := n.chatClient.SendMessage(ctx, groupID, summary); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot announce lottery %s result to group %d: %v",
				lottery.ID, groupID, err)
		}
	}
}

func (n *chatNotifier) resultSummary(
	settings *entity.LotterySettings,
	prizeNames map[string]string,
	participantsByID map[string]entity.Participant,
	winners []entity.PrizeWinner,
) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎊 Lottery %q has been drawn!\n\n🏆 Winners:\n", settings.Title)
	for _, winner := range winners {
		participant := participantsByID[winner.ParticipantID]
		name := participant.Nickname
		if participant.Username != "" {
			name = "@" + participant.Username
		}

		fmt.Fprintf(&sb, "-- %s: %s\n", prizeNames[winner.PrizeID], name)
	}

	sb.WriteString("\n🔔 Winners are notified in a private chat.")
	return sb.String()
}

func (n *chatNotifier) groupTitle(ctx context.Context, groupID int64) string {
	title, err := n.chatClient.GetChatTitle(ctx, groupID)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot resolve title of group %d: %v", groupID, err)
		return fmt.Sprintf("group %d", groupID)
	}

	return title
}

// announceGroups collects the distinct groups the result is posted to: the
// join group, if any, plus all required groups.
func announceGroups(settings *entity.LotterySettings) []int64 {
	seen := map[int64]bool{}
	var groups []int64

	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			groups = append(groups, id)
		}
	}

	switch cfg := settings.JoinConfig(); cfg.Method {
	case entity.JoinGroupKeyword:
		add(cfg.Keyword.GroupID)
	case entity.JoinGroupMessage:
		add(cfg.Message.GroupID)
	}

	for _, id := range settings.RequiredGroups {
		add(id)
	}

	return groups
}
