package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/drawbot-lab/backend/internal/domain/cron"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRepos()
	if err := s.loadChatClient(); err != nil {
		return err
	}
	s.loadDomains()

	cronJobManager := cron.NewCronJobManager()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cronJobManager.Cancel(s.ctx)
	}()

	cronJobManager.Start(s.ctx, cron.NewLotterySchedulerCronJob(
		s.lotteryRepo,
		s.participantRepo,
		s.prizeRepo,
		s.prizeWinnerRepo,
		s.messageCountRepo,
		s.drawDomain,
		xcontext.Configs(s.ctx).Lottery.SchedulerInterval.Duration,
	))

	return nil
}
