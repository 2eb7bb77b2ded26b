package main

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/drawbot-lab/backend/config"
	"github.com/drawbot-lab/backend/internal/client"
	"github.com/drawbot-lab/backend/internal/domain"
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/repository"
	"github.com/drawbot-lab/backend/pkg/logger"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	ctx context.Context
	app *cli.App

	lotteryRepo      repository.LotteryRepository
	participantRepo  repository.ParticipantRepository
	prizeRepo        repository.PrizeRepository
	prizeWinnerRepo  repository.PrizeWinnerRepository
	messageCountRepo repository.MessageCountRepository

	botAPI     *tgbotapi.BotAPI
	chatClient client.ChatClient
	notifier   domain.Notifier

	lotteryDomain       domain.LotteryDomain
	participationDomain domain.ParticipationDomain
	drawDomain          domain.DrawDomain
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	configs, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(context.Background(), configs)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(configs.LogLevel))
	return nil
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx)
	db, err := gorm.Open(mysql.Open(cfg.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.lotteryRepo = repository.NewLotteryRepository()
	s.participantRepo = repository.NewParticipantRepository()
	s.prizeRepo = repository.NewPrizeRepository()
	s.prizeWinnerRepo = repository.NewPrizeWinnerRepository()
	s.messageCountRepo = repository.NewMessageCountRepository()
}

func (s *srv) loadChatClient() error {
	cfg := xcontext.Configs(s.ctx)
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Bot.Token, tgbotapi.APIEndpoint,
		&http.Client{Timeout: cfg.Bot.RequestTimeout.Duration})
	if err != nil {
		return err
	}

	s.botAPI = api
	s.chatClient = client.NewTelegramClient(api)
	s.notifier = domain.NewChatNotifier(s.chatClient)
	return nil
}

func (s *srv) loadDomains() {
	idNode, err := snowflake.NewNode(0)
	if err != nil {
		panic(err)
	}

	s.lotteryDomain = domain.NewLotteryDomain(
		s.lotteryRepo, s.prizeRepo, s.participantRepo, s.chatClient, s.notifier, idNode)
	s.participationDomain = domain.NewParticipationDomain(
		s.lotteryRepo, s.participantRepo, s.messageCountRepo, s.chatClient)
	s.drawDomain = domain.NewDrawDomain(
		s.lotteryRepo, s.prizeRepo, s.participantRepo, s.prizeWinnerRepo,
		s.messageCountRepo, s.notifier)
}
