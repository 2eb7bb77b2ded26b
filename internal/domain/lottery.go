package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/drawbot-lab/backend/internal/client"
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/model"
	"github.com/drawbot-lab/backend/internal/repository"
	"github.com/drawbot-lab/backend/pkg/enum"
	"github.com/drawbot-lab/backend/pkg/errorx"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LotteryDomain interface {
	Create(context.Context, *model.CreateLotteryRequest) (*model.CreateLotteryResponse, error)
	OpenForm(context.Context, *model.OpenLotteryFormRequest) (*model.OpenLotteryFormResponse, error)
	Activate(context.Context, *model.ActivateLotteryRequest) (*model.ActivateLotteryResponse, error)
	Cancel(context.Context, *model.CancelLotteryRequest) (*model.CancelLotteryResponse, error)
	Get(context.Context, *model.GetLotteryRequest) (*model.GetLotteryResponse, error)
	ListByCreator(context.Context, *model.ListLotteriesRequest) (*model.ListLotteriesResponse, error)
}

type lotteryDomain struct {
	lotteryRepo     repository.LotteryRepository
	prizeRepo       repository.PrizeRepository
	participantRepo repository.ParticipantRepository
	chatClient      client.ChatClient
	notifier        Notifier
	idNode          *snowflake.Node
}

func NewLotteryDomain(
	lotteryRepo repository.LotteryRepository,
	prizeRepo repository.PrizeRepository,
	participantRepo repository.ParticipantRepository,
	chatClient client.ChatClient,
	notifier Notifier,
	idNode *snowflake.Node,
) *lotteryDomain {
	return &lotteryDomain{
		lotteryRepo:     lotteryRepo,
		prizeRepo:       prizeRepo,
		participantRepo: participantRepo,
		chatClient:      chatClient,
		notifier:        notifier,
		idNode:          idNode,
	}
}

func (d *lotteryDomain) Create(
	ctx context.Context, req *model.CreateLotteryRequest,
) (*model.CreateLotteryResponse, error) {
	cfg := xcontext.Configs(ctx)
	if homeGroup := cfg.Bot.HomeGroupID; homeGroup != 0 {
		status, err := d.chatClient.GetMemberStatus(ctx, homeGroup, req.Creator.ID)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot check home group membership of %d: %v",
				req.Creator.ID, err)
			return nil, errorx.New(errorx.PermissionDenied,
				"Join the bot group before creating a lottery")
		}

		if !status.Joined() {
			return nil, errorx.New(errorx.PermissionDenied,
				"Join the bot group before creating a lottery")
		}
	}

	lottery := &entity.Lottery{
		Base:        entity.Base{ID: d.idNode.Generate().String()},
		CreatorID:   req.Creator.ID,
		CreatorName: req.Creator.Nickname,
		Status:      entity.LotteryDraft,
	}

	if err := d.lotteryRepo.Create(ctx, lottery); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create lottery: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateLotteryResponse{
		LotteryID: lottery.ID,
		FormURL: fmt.Sprintf("%s/?lottery_id=%s&user_id=%d",
			cfg.Bot.FormBaseURL, lottery.ID, req.Creator.ID),
	}, nil
}

func (d *lotteryDomain) OpenForm(
	ctx context.Context, req *model.OpenLotteryFormRequest,
) (*model.OpenLotteryFormResponse, error) {
	lottery, err := getLottery(ctx, d.lotteryRepo, req.LotteryID)
	if err != nil {
		return nil, err
	}

	if err := ensureCreator(lottery, req.UserID); err != nil {
		return nil, err
	}

	switch lottery.Status {
	case entity.LotteryDraft:
		expiry := xcontext.Configs(ctx).Lottery.DraftExpiry.Duration
		if time.Since(lottery.CreatedAt) > expiry {
			err := d.lotteryRepo.Transition(ctx,
				lottery.ID, entity.LotteryDraft, entity.LotteryCancelled)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf("Cannot expire draft lottery %s: %v", lottery.ID, err)
				return nil, errorx.Unknown
			}

			return nil, errorx.New(errorx.Unavailable, "The creation link has expired")
		}

		err := d.lotteryRepo.Transition(ctx,
			lottery.ID, entity.LotteryDraft, entity.LotteryCreating)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.Unavailable, "The lottery state changed, try again")
			}

			xcontext.Logger(ctx).Errorf("Cannot open form of lottery %s: %v", lottery.ID, err)
			return nil, errorx.Unknown
		}

		return &model.OpenLotteryFormResponse{Status: string(entity.LotteryCreating)}, nil

	case entity.LotteryCreating:
		// Reopening the form is allowed until the creating window runs out.
		return &model.OpenLotteryFormResponse{Status: string(entity.LotteryCreating)}, nil

	case entity.LotteryCancelled:
		return nil, errorx.New(errorx.Unavailable, "The lottery has been cancelled")

	default:
		return nil, errorx.New(errorx.Unavailable, "The lottery is no longer editable")
	}
}

func (d *lotteryDomain) Activate(
	ctx context.Context, req *model.ActivateLotteryRequest,
) (*model.ActivateLotteryResponse, error) {
	lottery, err := getLottery(ctx, d.lotteryRepo, req.LotteryID)
	if err != nil {
		return nil, err
	}

	if err := ensureCreator(lottery, req.CreatorID); err != nil {
		return nil, err
	}

	if lottery.Status != entity.LotteryCreating {
		return nil, errorx.New(errorx.Unavailable, "The lottery form is not open")
	}

	settings, prizes, err := d.validateActivation(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.lotteryRepo.CreateSettings(ctx, settings); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create settings of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	if err := d.prizeRepo.Create(ctx, prizes); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create prizes of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	err = d.lotteryRepo.Transition(ctx,
		lottery.ID, entity.LotteryCreating, entity.LotteryActive)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Unavailable, "The lottery is no longer awaiting submission")
		}

		xcontext.Logger(ctx).Errorf("Cannot activate lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	prizeValues := make([]entity.Prize, len(prizes))
	for i := range prizes {
		prizeValues[i] = *prizes[i]
	}

	d.notifier.LotteryActivated(ctx, lottery, settings, prizeValues)
	return &model.ActivateLotteryResponse{}, nil
}

func (d *lotteryDomain) Cancel(
	ctx context.Context, req *model.CancelLotteryRequest,
) (*model.CancelLotteryResponse, error) {
	lottery, err := getLottery(ctx, d.lotteryRepo, req.LotteryID)
	if err != nil {
		return nil, err
	}

	if err := ensureCreator(lottery, req.UserID); err != nil {
		return nil, err
	}

	if lottery.Status.IsTerminal() {
		return nil, errorx.New(errorx.Unavailable, "The lottery has already finished")
	}

	err = d.lotteryRepo.Transition(ctx, lottery.ID, lottery.Status, entity.LotteryCancelled)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Unavailable, "The lottery state changed, try again")
		}

		xcontext.Logger(ctx).Errorf("Cannot cancel lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	return &model.CancelLotteryResponse{}, nil
}

func (d *lotteryDomain) Get(
	ctx context.Context, req *model.GetLotteryRequest,
) (*model.GetLotteryResponse, error) {
	lottery, err := getLottery(ctx, d.lotteryRepo, req.LotteryID)
	if err != nil {
		return nil, err
	}

	settings, err := d.lotteryRepo.GetSettingsByLotteryID(ctx, lottery.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get settings of lottery %s: %v", lottery.ID, err)
			return nil, errorx.Unknown
		}

		// Not yet activated, only the bare lottery exists.
		return &model.GetLotteryResponse{Lottery: convertLottery(lottery, nil, nil, 0)}, nil
	}

	prizes, err := d.prizeRepo.GetByLotteryID(ctx, lottery.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	count, err := d.participantRepo.Count(ctx, lottery.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count participants of lottery %s: %v", lottery.ID, err)
		return nil, errorx.Unknown
	}

	return &model.GetLotteryResponse{
		Lottery: convertLottery(lottery, settings, prizes, count),
	}, nil
}

func (d *lotteryDomain) ListByCreator(
	ctx context.Context, req *model.ListLotteriesRequest,
) (*model.ListLotteriesResponse, error) {
	lotteries, err := d.lotteryRepo.GetByCreatorID(ctx, req.CreatorID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list lotteries of creator %d: %v", req.CreatorID, err)
		return nil, errorx.Unknown
	}

	resp := &model.ListLotteriesResponse{}
	for i := range lotteries {
		lottery := &lotteries[i]

		settings, err := d.lotteryRepo.GetSettingsByLotteryID(ctx, lottery.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf("Cannot get settings of lottery %s: %v", lottery.ID, err)
				return nil, errorx.Unknown
			}

			settings = nil
		}

		resp.Lotteries = append(resp.Lotteries, convertLottery(lottery, settings, nil, 0))
	}

	return resp, nil
}

func getLottery(
	ctx context.Context, repo repository.LotteryRepository, id string,
) (*entity.Lottery, error) {
	lottery, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found lottery")
		}

		xcontext.Logger(ctx).Errorf("Cannot get lottery %s: %v", id, err)
		return nil, errorx.Unknown
	}

	return lottery, nil
}

// validateActivation turns the submitted form into settings and prize rows,
// rejecting malformed definitions before anything is persisted.
func (d *lotteryDomain) validateActivation(
	ctx context.Context, req *model.ActivateLotteryRequest,
) (*entity.LotterySettings, []*entity.Prize, error) {
	if req.Title == "" {
		return nil, nil, errorx.New(errorx.BadRequest, "Require a title")
	}

	if len(req.Prizes) == 0 {
		return nil, nil, errorx.New(errorx.BadRequest, "Require at least one prize")
	}

	prizes := make([]*entity.Prize, 0, len(req.Prizes))
	for i, prize := range req.Prizes {
		if prize.Name == "" {
			return nil, nil, errorx.New(errorx.BadRequest, "Prize %d has no name", i+1)
		}

		if prize.Count <= 0 {
			return nil, nil, errorx.New(errorx.BadRequest,
				"The count of prize %q must be a positive number", prize.Name)
		}

		prizes = append(prizes, &entity.Prize{
			Base:       entity.Base{ID: uuid.NewString()},
			LotteryID:  req.LotteryID,
			Name:       prize.Name,
			TotalCount: prize.Count,
		})
	}

	joinMethod, err := enum.ToEnum[entity.JoinMethod](req.JoinMethod)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid join method: %v", err)
		return nil, nil, errorx.New(errorx.BadRequest, "Invalid join method")
	}

	switch joinMethod {
	case entity.JoinGroupKeyword:
		if req.KeywordGroupID == 0 || req.Keyword == "" {
			return nil, nil, errorx.New(errorx.BadRequest,
				"The keyword method requires a group and a keyword")
		}

	case entity.JoinGroupMessage:
		if req.MessageGroupID == 0 || req.MessageCount <= 0 || req.MessageCheckHours <= 0 {
			return nil, nil, errorx.New(errorx.BadRequest,
				"The message method requires a group, a message count, and a time range")
		}
	}

	drawMethod, err := enum.ToEnum[entity.DrawMethod](req.DrawMethod)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid draw method: %v", err)
		return nil, nil, errorx.New(errorx.BadRequest, "Invalid draw method")
	}

	switch drawMethod {
	case entity.DrawWhenFull:
		if req.ParticipantCount <= 0 {
			return nil, nil, errorx.New(errorx.BadRequest,
				"The number of participants must be a positive number")
		}

	case entity.DrawAtTime:
		if !req.DrawTime.After(time.Now()) {
			return nil, nil, errorx.New(errorx.BadRequest, "The draw time must be in the future")
		}
	}

	settings := &entity.LotterySettings{
		Base:              entity.Base{ID: uuid.NewString()},
		LotteryID:         req.LotteryID,
		Title:             req.Title,
		Description:       req.Description,
		MediaURL:          req.MediaURL,
		JoinMethod:        joinMethod,
		KeywordGroupID:    req.KeywordGroupID,
		Keyword:           req.Keyword,
		MessageGroupID:    req.MessageGroupID,
		MessageCount:      req.MessageCount,
		MessageCheckHours: req.MessageCheckHours,
		RequireUsername:   req.RequireUsername,
		RequiredGroups:    req.RequiredGroups,
		DrawMethod:        drawMethod,
		ParticipantCount:  req.ParticipantCount,
		DrawTime:          req.DrawTime,
	}

	return settings, prizes, nil
}

func ensureCreator(lottery *entity.Lottery, userID int64) error {
	if lottery.CreatorID != userID {
		return errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return nil
}
