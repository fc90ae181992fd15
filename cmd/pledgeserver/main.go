package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/l2pledge/internal/adminapi"
	"github.com/udisondev/l2pledge/internal/clan"
	"github.com/udisondev/l2pledge/internal/config"
	"github.com/udisondev/l2pledge/internal/db"
	"github.com/udisondev/l2pledge/internal/event"
	"github.com/udisondev/l2pledge/internal/game/crest"
	"github.com/udisondev/l2pledge/internal/game/fort"
	"github.com/udisondev/l2pledge/internal/game/hall"
	"github.com/udisondev/l2pledge/internal/game/party"
	"github.com/udisondev/l2pledge/internal/game/siege"
	"github.com/udisondev/l2pledge/internal/idfactory"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	slog.Info("config loaded", "path", cfgPath, "admin", cfg.Admin.Enabled)

	dsn := cfg.Database.DSN()
	database, err := db.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, dsn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	bus := event.NewBus(cfg.Events.Workers, cfg.Events.QueueSize)
	subscribeLogging(bus)

	dissolver, err := clan.NewDissolutionScheduler(cfg.Clan.DissolveFloor)
	if err != nil {
		return fmt.Errorf("creating dissolution scheduler: %w", err)
	}
	dissolver.Start()
	defer func() {
		if err := dissolver.Shutdown(); err != nil {
			slog.Error("stopping dissolution scheduler", "err", err)
		}
	}()

	sieges := siege.NewManager(siege.DefaultCastles, siege.DefaultClanMinLevel)
	forts := fort.NewManager(fort.DefaultForts, func(fortID, oldOwner, newOwner int32, forced bool) {
		slog.Info("fort owner changed", "fort_id", fortID, "old", oldOwner, "new", newOwner, "forced", forced)
	})
	halls := hall.NewTable(hall.DefaultHalls, nil)

	crests := crest.NewTable(database.Crests())
	if err := crests.Load(ctx); err != nil {
		return fmt.Errorf("loading crests: %w", err)
	}

	reg := clan.NewRegistry(database.Clans(), idfactory.New(),
		clan.WithPublisher(bus),
		clan.WithSieges(sieges),
		clan.WithForts(forts),
		clan.WithHalls(halls),
		clan.WithCrests(crests),
		clan.WithDissolutionScheduler(dissolver),
		clan.WithRules(clan.Rules{
			MinCreateLevel: cfg.Clan.MinCreateLevel,
			CreateCooldown: cfg.Clan.CreateCooldown,
			DissolveDelay:  cfg.Clan.DissolveDelay,
			MinNameLen:     cfg.Clan.MinNameLen,
			MaxNameLen:     cfg.Clan.MaxNameLen,
		}),
	)
	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("loading clans: %w", err)
	}

	// Packet handlers drive parties through this manager; the admin API reads its counts.
	parties := party.NewManager(cfg.CommandChannel.RaidLootMinMembers)
	slog.Info("pledge server ready",
		"clans", reg.Count(),
		"crests", crests.Count(),
		"parties", parties.PartyCount())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting event bus", "workers", cfg.Events.Workers)
		if err := bus.Run(gctx); err != nil {
			return fmt.Errorf("event bus: %w", err)
		}
		return nil
	})

	if cfg.Admin.Enabled {
		api := adminapi.New(reg, adminapi.WithParties(parties))
		g.Go(func() error {
			slog.Info("starting admin api", "addr", cfg.Admin.BindAddress)
			if err := api.Run(gctx, cfg.Admin.BindAddress); err != nil {
				return fmt.Errorf("admin api: %w", err)
			}
			return nil
		})
	}

	<-gctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	reg.Shutdown(shutdownCtx)
	slog.Info("clans persisted", "count", reg.Count())

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// subscribeLogging records clan lifecycle events in the server log.
func subscribeLogging(bus *event.Bus) {
	bus.Subscribe(clan.EventClanCreated, func(_ context.Context, env event.Envelope) {
		e := env.Event.(clan.ClanCreated)
		slog.Info("clan created", "event_id", env.ID, "clan_id", e.ClanID, "name", e.ClanName, "leader_id", e.LeaderID)
	})
	bus.Subscribe(clan.EventClanDestroyed, func(_ context.Context, env event.Envelope) {
		e := env.Event.(clan.ClanDestroyed)
		var leaderID int64
		if e.Leader != nil {
			leaderID = e.Leader.PlayerID()
		}
		slog.Info("clan destroyed", "event_id", env.ID, "clan_id", e.ClanID, "name", e.ClanName, "leader_id", leaderID)
	})
	bus.Subscribe(clan.EventClanWarFinished, func(_ context.Context, env event.Envelope) {
		e := env.Event.(clan.ClanWarFinished)
		slog.Info("clan war finished", "event_id", env.ID,
			"attacker", e.AttackerID, "attacked", e.AttackedID,
			"winner", e.WinnerID, "state", e.State)
	})
}
