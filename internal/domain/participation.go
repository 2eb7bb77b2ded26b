package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drawbot-lab/backend/internal/client"
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/model"
	"github.com/drawbot-lab/backend/internal/repository"
	"github.com/drawbot-lab/backend/pkg/errorx"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParticipationDomain interface {
	JoinPrivate(context.Context, *model.JoinLotteryRequest) (*model.JoinLotteryResponse, error)
	HandleGroupMessage(context.Context, *model.GroupMessageRequest) (*model.GroupMessageResponse, error)
}

type participationDomain struct {
	lotteryRepo      repository.LotteryRepository
	participantRepo  repository.ParticipantRepository
	messageCountRepo repository.MessageCountRepository
	chatClient       client.ChatClient
}

func NewParticipationDomain(
	lotteryRepo repository.LotteryRepository,
	participantRepo repository.ParticipantRepository,
	messageCountRepo repository.MessageCountRepository,
	chatClient client.ChatClient,
) *participationDomain {
	return &participationDomain{
		lotteryRepo:      lotteryRepo,
		participantRepo:  participantRepo,
		messageCountRepo: messageCountRepo,
		chatClient:       chatClient,
	}
}

func (d *participationDomain) JoinPrivate(
	ctx context.Context, req *model.JoinLotteryRequest,
) (*model.JoinLotteryResponse, error) {
	lottery, err := getLottery(ctx, d.lotteryRepo, req.LotteryID)
	if err != nil {
		return nil, err
	}

	settings, err := d.lotteryRepo.GetSettingsByLotteryID(ctx, lottery.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Unavailable, "The lottery is not open")
		}

		xcontext.Logger(ctx).Errorf("Cannot get settings of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	if settings.JoinMethod != entity.JoinPrivateChat {
		return nil, errorx.New(errorx.Unavailable, "Join this lottery in its group")
	}

	if err := d.admit(ctx, lottery, settings, req.User); err != nil {
		return nil, err
	}

	count, err := d.participantRepo.Count(ctx, lottery.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count participants of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	return &model.JoinLotteryResponse{Title: settings.Title, ParticipantCount: count}, nil
}

// HandleGroupMessage routes one group message: it may admit the sender into
// the keyword lottery matching the trimmed text, and it advances message
// counters for every active message-count lottery tracking this group.
func (d *participationDomain) HandleGroupMessage(
	ctx context.Context, req *model.GroupMessageRequest,
) (*model.GroupMessageResponse, error) {
	resp := &model.GroupMessageResponse{}

	keyword := strings.TrimSpace(req.Text)
	if keyword != "" {
		result, err := d.handleKeyword(ctx, req, keyword)
		if err != nil {
			return nil, err
		}

		if result != nil {
			resp.Results = append(resp.Results, *result)
		}
	}

	results, err := d.handleMessageCount(ctx, req)
	if err != nil {
		return nil, err
	}

	resp.Results = append(resp.Results, results...)
	return resp, nil
}

func (d *participationDomain) handleKeyword(
	ctx context.Context, req *model.GroupMessageRequest, keyword string,
) (*model.GroupJoinResult, error) {
	settings, err := d.lotteryRepo.GetActiveKeywordSettings(ctx, req.GroupID, keyword)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot match keyword in group %d: %v", req.GroupID, err)
		return nil, errorx.Unknown
	}

	lottery, err := getLottery(ctx, d.lotteryRepo, settings.LotteryID)
	if err != nil {
		return nil, err
	}

	result := &model.GroupJoinResult{LotteryID: lottery.ID, Title: settings.Title}
	if err := d.admit(ctx, lottery, settings, req.User); err != nil {
		result.Reason, err = rejectReason(err)
		if err != nil {
			return nil, err
		}

		return result, nil
	}

	result.Joined = true
	return result, nil
}

func (d *participationDomain) handleMessageCount(
	ctx context.Context, req *model.GroupMessageRequest,
) ([]model.GroupJoinResult, error) {
	settingsList, err := d.lotteryRepo.ListActiveMessageSettings(ctx, req.GroupID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list tracked lotteries of group %d: %v", req.GroupID, err)
		return nil, errorx.Unknown
	}

	var results []model.GroupJoinResult
	for i := range settingsList {
		settings := &settingsList[i]

		lottery, err := getLottery(ctx, d.lotteryRepo, settings.LotteryID)
		if err != nil {
			return nil, err
		}

		result, err := d.trackMessage(ctx, lottery, settings, req)
		if err != nil {
			return nil, err
		}

		if result != nil {
			results = append(results, *result)
		}
	}

	return results, nil
}

// trackMessage counts one qualifying message and attempts admission once the
// configured count is reached. Messages outside the counting window, counted
// from activation, are dropped. A nil result means the message was only
// accumulated.
func (d *participationDomain) trackMessage(
	ctx context.Context,
	lottery *entity.Lottery,
	settings *entity.LotterySettings,
	req *model.GroupMessageRequest,
) (*model.GroupJoinResult, error) {
	cfg := settings.JoinConfig()
	if cfg.Method != entity.JoinGroupMessage {
		return nil, nil
	}

	if !settings.MessageCountTracked {
		if err := d.lotteryRepo.MarkMessageCountTracked(ctx, lottery.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot mark tracking of lottery %s: %v", lottery.ID, err)
			return nil, errorx.Unknown
		}
	}

	// The counting window is anchored at activation, which is the last status
	// change of an active lottery.
	deadline := lottery.UpdatedAt.Add(time.Duration(cfg.Message.WithinHours) * time.Hour)
	if req.SentAt.Before(lottery.UpdatedAt) || req.SentAt.After(deadline) {
		return nil, nil
	}

	_, err := d.participantRepo.Get(ctx, lottery.ID, req.User.ID)
	if err == nil {
		return nil, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get participant of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	err = d.messageCountRepo.Increment(ctx, lottery.ID, req.User.ID, req.GroupID, req.SentAt)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count message of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	counter, err := d.messageCountRepo.Get(ctx, lottery.ID, req.User.ID, req.GroupID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get message count of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	if counter.MessageCount < cfg.Message.Count {
		return nil, nil
	}

	result := &model.GroupJoinResult{LotteryID: lottery.ID, Title: settings.Title}
	if err := d.admit(ctx, lottery, settings, req.User); err != nil {
		result.Reason, err = rejectReason(err)
		if err != nil {
			return nil, err
		}

		return result, nil
	}

	result.Joined = true
	return result, nil
}

// admit runs the eligibility checks in their fixed order and, when all pass,
// records the participant. The unique index on (lottery_id, user_id) is the
// final arbiter under concurrent attempts.
func (d *participationDomain) admit(
	ctx context.Context,
	lottery *entity.Lottery,
	settings *entity.LotterySettings,
	user model.ChatUser,
) error {
	if lottery.Status != entity.LotteryActive {
		return errorx.New(errorx.Unavailable, "The lottery is not open")
	}

	_, err := d.participantRepo.Get(ctx, lottery.ID, user.ID)
	if err == nil {
		return errorx.New(errorx.AlreadyExists, "You have already joined this lottery")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get participant of lottery %s: %v", lottery.ID, err)
		return errorx.Unknown
	}

	if settings.DrawMethod == entity.DrawWhenFull {
		count, err := d.participantRepo.Count(ctx, lottery.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot count participants of lottery %s: %v", lottery.ID, err)
			return errorx.Unknown
		}

		if count >= int64(settings.ParticipantCount) {
			return errorx.New(errorx.Unavailable, "The lottery is full")
		}
	}

	if settings.RequireUsername && user.Username == "" {
		return errorx.New(errorx.BadRequest, "A username is required to join this lottery")
	}

	for _, groupID := range settings.RequiredGroups {
		if err := d.checkMembership(ctx, groupID, user.ID); err != nil {
			return err
		}
	}

	inserted, err := d.participantRepo.CreateIfNotExist(ctx, &entity.Participant{
		Base:      entity.Base{ID: uuid.NewString()},
		LotteryID: lottery.ID,
		UserID:    user.ID,
		Nickname:  user.Nickname,
		Username:  user.Username,
		JoinTime:  time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create participant of lottery %s: %v", lottery.ID, err)
		return errorx.Unknown
	}

	if !inserted {
		return errorx.New(errorx.AlreadyExists, "You have already joined this lottery")
	}

	if err := d.messageCountRepo.DeleteByUser(ctx, lottery.ID, user.ID); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot clean message counts of lottery %s user %d: %v",
			lottery.ID, user.ID, err)
	}

	return nil
}

// checkMembership verifies a required group within the configured call
// timeout. Any failure, including a timeout, rejects this group only.
func (d *participationDomain) checkMembership(
	ctx context.Context, groupID, userID int64,
) error {
	callCtx := ctx
	if timeout := xcontext.Configs(ctx).Bot.RequestTimeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	status, err := d.chatClient.GetMemberStatus(callCtx, groupID, userID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot check membership of %d in group %d: %v",
			userID, groupID, err)
		return errorx.New(errorx.PermissionDenied,
			"You must join %s first", d.groupName(ctx, groupID))
	}

	if !status.Joined() {
		return errorx.New(errorx.PermissionDenied,
			"You must join %s first", d.groupName(ctx, groupID))
	}

	return nil
}

func (d *participationDomain) groupName(ctx context.Context, groupID int64) string {
	title, err := d.chatClient.GetChatTitle(ctx, groupID)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot resolve title of group %d: %v", groupID, err)
		return fmt.Sprintf("group %d", groupID)
	}

	return title
}

// rejectReason extracts the user-facing message of an eligibility rejection.
// Unexpected errors are returned unchanged so callers abort instead of
// reporting them as a rejection.
func rejectReason(err error) (string, error) {
	var xerr errorx.Error
	if errors.As(err, &xerr) && !errors.Is(xerr, errorx.Unknown) {
		return xerr.Message, nil
	}

	return "", err
}
