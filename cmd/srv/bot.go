package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/drawbot-lab/backend/internal/model"
	"github.com/drawbot-lab/backend/pkg/errorx"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/urfave/cli/v2"
)

func (s *srv) startBot(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRepos()
	if err := s.loadChatClient(); err != nil {
		return err
	}
	s.loadDomains()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := s.botAPI.GetUpdatesChan(u)

	xcontext.Logger(s.ctx).Infof("Bot started as @%s", s.botAPI.Self.UserName)
	for update := range updates {
		s.handleUpdate(update)
	}

	return nil
}

func (s *srv) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if msg.Chat.IsPrivate() {
		s.handlePrivateMessage(msg)
		return
	}

	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		s.handleGroupMessage(msg)
	}
}

func (s *srv) handlePrivateMessage(msg *tgbotapi.Message) {
	user := chatUser(msg.From)

	switch msg.Command() {
	case "start":
		arg := strings.TrimSpace(msg.CommandArguments())
		switch {
		case strings.HasPrefix(arg, "join_"):
			s.joinLottery(user, strings.TrimPrefix(arg, "join_"))
		case strings.HasPrefix(arg, "open_"):
			s.openForm(user, strings.TrimPrefix(arg, "open_"))
		default:
			s.reply(user.ID, "Hi! Use /new to create a lottery or follow a lottery link to join one.")
		}

	case "new":
		resp, err := s.lotteryDomain.Create(s.ctx, &model.CreateLotteryRequest{Creator: user})
		if err != nil {
			s.replyError(user.ID, err)
			return
		}

		s.reply(user.ID, fmt.Sprintf(
			"Your lottery draft is ready. Fill in the form within an hour:\n%s", resp.FormURL))

	case "mylottery":
		resp, err := s.lotteryDomain.ListByCreator(s.ctx, &model.ListLotteriesRequest{CreatorID: user.ID})
		if err != nil {
			s.replyError(user.ID, err)
			return
		}

		s.reply(user.ID, formatLotteryList(resp.Lotteries))

	case "cancel":
		lotteryID := strings.TrimSpace(msg.CommandArguments())
		if lotteryID == "" {
			s.reply(user.ID, "Usage: /cancel <lottery id>")
			return
		}

		_, err := s.lotteryDomain.Cancel(s.ctx, &model.CancelLotteryRequest{
			LotteryID: lotteryID,
			UserID:    user.ID,
		})
		if err != nil {
			s.replyError(user.ID, err)
			return
		}

		s.reply(user.ID, "The lottery has been cancelled.")

	default:
		s.reply(user.ID, "Unknown command. Try /new or /mylottery.")
	}
}

func (s *srv) handleGroupMessage(msg *tgbotapi.Message) {
	resp, err := s.participationDomain.HandleGroupMessage(s.ctx, &model.GroupMessageRequest{
		GroupID: msg.Chat.ID,
		Text:    msg.Text,
		SentAt:  msg.Time(),
		User:    chatUser(msg.From),
	})
	if err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot handle message in group %d: %v", msg.Chat.ID, err)
		return
	}

	for _, result := range resp.Results {
		if result.Joined {
			s.reply(msg.Chat.ID, fmt.Sprintf("%s joined the lottery %q!",
				displayName(msg.From), result.Title))
		} else {
			s.reply(msg.Chat.ID, fmt.Sprintf("%s cannot join the lottery %q: %s",
				displayName(msg.From), result.Title, result.Reason))
		}
	}
}

func (s *srv) joinLottery(user model.ChatUser, lotteryID string) {
	resp, err := s.participationDomain.JoinPrivate(s.ctx, &model.JoinLotteryRequest{
		LotteryID: lotteryID,
		User:      user,
	})
	if err != nil {
		s.replyError(user.ID, err)
		return
	}

	s.reply(user.ID, fmt.Sprintf("You joined %q! There are now %d participants.",
		resp.Title, resp.ParticipantCount))
}

func (s *srv) openForm(user model.ChatUser, lotteryID string) {
	_, err := s.lotteryDomain.OpenForm(s.ctx, &model.OpenLotteryFormRequest{
		LotteryID: lotteryID,
		UserID:    user.ID,
	})
	if err != nil {
		s.replyError(user.ID, err)
		return
	}

	s.reply(user.ID, "The form is open. Submit it within 90 minutes to start the lottery.")
}

func (s *srv) reply(chatID int64, text string) {
	if err := s.chatClient.SendMessage(s.ctx, chatID, text); err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot send message to %d: %v", chatID, err)
	}
}

func (s *srv) replyError(chatID int64, err error) {
	var xerr errorx.Error
	if errors.As(err, &xerr) && !errors.Is(xerr, errorx.Unknown) {
		s.reply(chatID, xerr.Message)
		return
	}

	s.reply(chatID, "Something went wrong, please try again later.")
}

func chatUser(from *tgbotapi.User) model.ChatUser {
	return model.ChatUser{
		ID:       from.ID,
		Nickname: from.FirstName,
		Username: from.UserName,
	}
}

func displayName(from *tgbotapi.User) string {
	if from.UserName != "" {
		return "@" + from.UserName
	}

	return from.FirstName
}

func formatLotteryList(lotteries []model.Lottery) string {
	if len(lotteries) == 0 {
		return "You have no lotteries yet. Use /new to create one."
	}

	var sb strings.Builder
	sb.WriteString("Your lotteries:\n")
	for _, lottery := range lotteries {
		title := lottery.Title
		if title == "" {
			title = "(no title yet)"
		}

		fmt.Fprintf(&sb, "-- %s [%s] %s\n", title, lottery.Status, lottery.ID)
	}

	return sb.String()
}
