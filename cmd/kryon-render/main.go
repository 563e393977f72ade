package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-render/internal/app"
	"github.com/kryonlabs/kryon-render/internal/applog"
	"github.com/kryonlabs/kryon-render/internal/config"
	"github.com/kryonlabs/kryon-render/internal/diagnostics"
)

// env carries the state Before prepares for Action: the logger and the
// loaded configuration, threaded through the command context.
type env struct {
	log *zap.Logger
	cfg *config.Config
}

type envKey struct{}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{log: zap.NewNop(), cfg: config.Default()}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	level := cmd.String("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	e := &env{log: applog.New(level), cfg: cfg}
	return context.WithValue(ctx, envKey{}, e), nil
}

func after(ctx context.Context, _ *cli.Command) error {
	e := envFromContext(ctx)
	return e.log.Sync()
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

var exitCode diagnostics.ExitCode

func render(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	if cmd.Bool("dump-config") {
		data, err := config.Dump(e.cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected exactly one KRB file argument, got %d", cmd.NArg())
	}

	err := app.Run(app.Options{
		KRBPath:  cmd.Args().First(),
		Config:   e.cfg,
		Log:      e.log,
		DumpTree: cmd.Bool("debug-tree"),
	})
	if err == nil {
		exitCode = diagnostics.ExitOK
		return nil
	}

	switch err.(type) {
	case *app.ParseError:
		exitCode = diagnostics.ExitParseError
	case *app.RuntimeError:
		exitCode = diagnostics.ExitRuntimeError
	default:
		exitCode = diagnostics.ExitRuntimeError
	}
	e.log.Error("render session ended with error", zap.Error(err))
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := &cli.Command{
		Name:            "kryon-render",
		Usage:           "renders a compiled Kryon (.krb) UI document to a window",
		HideHelpCommand: true,
		Before:          before,
		After:           after,
		OnUsageError:    usageErrorHandler,
		Action:          render,
		ArgsUsage:       "KRB_FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "log-level", Usage: "one of none, info, debug (overrides the configuration file's log_level)"},
			&cli.BoolFlag{Name: "debug-tree", Usage: "dump the resolved render tree to the debug log once at startup"},
			&cli.BoolFlag{Name: "dump-config", Usage: "print the active configuration (defaults plus config file) as YAML and exit"},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "kryon-render: %v\n", err)
			os.Exit(int(exitCode))
		}
		os.Exit(int(exitCode))
	}()
	err = cmd.Run(ctx, os.Args)
}
