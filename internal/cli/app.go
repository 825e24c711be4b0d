package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Houeta/heidi/internal/bot"
	"github.com/Houeta/heidi/internal/catalog"
	"github.com/Houeta/heidi/internal/config"
	"github.com/Houeta/heidi/internal/http-server/status"
	"github.com/Houeta/heidi/internal/notifier"
	"github.com/Houeta/heidi/internal/notifier/slack"
	"github.com/Houeta/heidi/internal/repository"
	"github.com/Houeta/heidi/internal/repository/file"
	"github.com/Houeta/heidi/internal/repository/sqlite"
	"github.com/Houeta/heidi/internal/services/checker"
	"github.com/Houeta/heidi/internal/services/detector"
	"github.com/Houeta/heidi/internal/services/poller"
	"github.com/Houeta/heidi/internal/services/renderer"
	"github.com/Houeta/heidi/internal/services/snapshot"
)

// app holds the long-running components of the daemon.
type app struct {
	log     *slog.Logger
	poller  *poller.Poller
	bot     *bot.Bot
	status  *status.Server
	closers []func() error
}

func newApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*app, error) {
	const opn = "cli.newApp"

	a := &app{log: log}

	var db *sqlite.Repository
	if cfg.Storage.Driver == config.DriverSqlite || cfg.TelegramEnabled() {
		var err error
		db, err = sqlite.NewRepository(ctx, log, cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open database: %w", opn, err)
		}
		a.closers = append(a.closers, db.Close)
	}

	var snapshots repository.SnapshotRepository = file.NewRepository(log, cfg.Storage.Path)
	if cfg.Storage.Driver == config.DriverSqlite {
		snapshots = db
	}
	store := snapshot.NewStore(log, snapshots)

	var sinks []notifier.Sink
	if cfg.SlackEnabled() {
		slackNotifier, err := slack.New(log, cfg.Slack.Token, cfg.Slack.Channel)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		sinks = append(sinks, notifier.Sink{Name: "slack", Notifier: slackNotifier})
	}
	if cfg.TelegramEnabled() {
		tgBot, err := bot.NewBot(log, cfg.Tg.Token, cfg.Tg.Timeout, db)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		a.bot = tgBot
		sinks = append(sinks, notifier.Sink{Name: "telegram", Notifier: tgBot})
	}

	chk := checker.NewChecker(
		log,
		catalog.NewClient(log, cfg.Catalog.URL, cfg.Catalog.APIKey, cfg.Catalog.Timeout),
		store,
		detector.New(log, store, cfg.TrackedFields),
		renderer.New(cfg.ShopURL, renderer.WithChannelMention(cfg.MentionChannel)),
		notifier.NewFanout(log, sinks...),
	)

	tracker := status.NewTracker()
	a.poller = poller.New(log, chk, cfg.FetchInterval, poller.WithReportHook(tracker.Record))

	if cfg.StatusAddress != "" {
		a.status = status.NewServer(log, cfg.StatusAddress, tracker)
	}

	return a, nil
}

// run blocks until ctx is cancelled and every component has stopped.
func (a *app) run(ctx context.Context) {
	var wg sync.WaitGroup

	if a.bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.bot.Start()
		}()
	}

	if a.status != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.status.Run(ctx); err != nil {
				a.log.Error("status server failed", "error", err)
			}
		}()
	}

	a.poller.Run(ctx)

	if a.bot != nil {
		a.bot.Stop()
	}
	wg.Wait()

	a.close()
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.Error("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}
