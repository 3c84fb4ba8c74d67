package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emersion/go-imap/v2"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mailwatch/mailwatch/handlers"
	"github.com/mailwatch/mailwatch/internal/config"
	"github.com/mailwatch/mailwatch/internal/imapconn"
	"github.com/mailwatch/mailwatch/internal/telemetry"
	"github.com/mailwatch/mailwatch/pkg/base"
	"github.com/mailwatch/mailwatch/pkg/models/registry"
	"github.com/mailwatch/mailwatch/pkg/models/watchman"
)

var (
	tracer = otel.Tracer("github.com/mailwatch/mailwatch/cmd/mailwatch")
	meter  = otel.Meter("github.com/mailwatch/mailwatch/cmd/mailwatch")
)

func main() {
	if err := run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	// .env is optional; environment variables may come from the deployment.
	_ = godotenv.Load(".env")

	app := &cli.App{
		Name:  "mailwatch",
		Usage: "event-driven IMAP mailbox watcher",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the YAML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "watch the configured mailboxes for new and removed mail",
				Action: watchAction,
			},
			{
				Name:   "mailboxes",
				Usage:  "list the mailboxes available on the server",
				Action: mailboxesAction,
			},
			{
				Name:   "validate",
				Usage:  "validate the config file and print a summary",
				Action: validateAction,
			},
		},
	}

	return app.Run(args)
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func watchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	imapEnv, err := config.IMAPEnvFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.SetupOTelSDK(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("telemetry shutdown failed", "error", err)
			}
		}()
		logger = otelslog.NewLogger("mailwatch")
	}

	client := imapconn.NewConnector(
		imapconn.WithAddr(fmt.Sprintf("%s:%d", imapEnv.Host, imapEnv.Port)),
		imapconn.WithCreds(imapEnv.User, imapEnv.Pass),
		imapconn.WithLogger(logger),
	)

	watchInterval, _ := cfg.WatchInterval()
	reconnectInterval, _ := cfg.ReconnectInterval()
	settleDelay, _ := cfg.SettleDelay()

	w, err := watchman.NewWatchman(
		watchman.WithClient(client),
		watchman.WithLogger(logger),
		watchman.WithCtx(ctx),
		watchman.WithWatchList(cfg.Watch.Mailboxes),
		watchman.WithWatchInterval(watchInterval),
		watchman.WithReconnectInterval(reconnectInterval),
		watchman.WithSettleDelay(settleDelay),
	)
	if err != nil {
		return err
	}

	arrivedCounter, err := meter.Int64Counter("mailwatch.mail.arrived")
	if err != nil {
		return err
	}
	removedCounter, err := meter.Int64Counter("mailwatch.mail.removed")
	if err != nil {
		return err
	}

	w.OnArrived(func(msg base.Message) {
		arrivedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mailbox", msg.Mailbox)))
		logger.Info("mail arrived", "mailbox", msg.Mailbox, "uid", msg.UID, "subject", msg.Subject)
	})
	w.OnLoaded(func(msg base.Message) {
		logger.Info("mail loaded", "mailbox", msg.Mailbox, "uid", msg.UID)
	})
	w.OnRemoved(func(uid imap.UID) {
		removedCounter.Add(ctx, 1)
		logger.Info("mail removed", "uid", uid)
	})

	w.Run()
	defer w.Stop()

	if cfg.Status.Enabled {
		statusApp := handlers.NewApp(w)
		go func() {
			if err := statusApp.Listen(cfg.StatusAddr()); err != nil {
				logger.Error("status server stopped", "error", err)
			}
		}()
		defer func() {
			if err := statusApp.Shutdown(); err != nil {
				logger.Error("status server shutdown failed", "error", err)
			}
		}()
	}

	logger.Info("watching mailboxes", "mailboxes", cfg.Watch.Mailboxes)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func mailboxesAction(c *cli.Context) error {
	imapEnv, err := config.IMAPEnvFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	client := imapconn.NewConnector(
		imapconn.WithAddr(fmt.Sprintf("%s:%d", imapEnv.Host, imapEnv.Port)),
		imapconn.WithCreds(imapEnv.User, imapEnv.Pass),
		imapconn.WithLogger(logger),
	)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if err := client.Connect(); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}()

	return listMailboxStates(ctx, client, logger, c.App.Writer)
}

// listMailboxStates performs one full scan and writes every mailbox state as
// indented JSON to out.
func listMailboxStates(ctx context.Context, client base.Client, logger *slog.Logger, out io.Writer) error {
	ctx, span := tracer.Start(ctx, "listMailboxStates")
	defer span.End()

	reg, err := registry.NewRegistry(
		registry.WithClient(client),
		registry.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if _, err := reg.LoadAll(ctx); err != nil {
		return fmt.Errorf("scanning mailboxes: %w", err)
	}

	states := reg.States()
	span.SetAttributes(attribute.Int("mailboxes.count", len(states)))

	encoded, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mailbox states: %w", err)
	}

	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func validateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, config.Summary(cfg))
	return err
}
