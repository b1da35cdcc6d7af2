// Package initcmd bootstraps a fresh launcher profile.
package initcmd

import (
	"context"
	"errors"

	"github.com/palgania/launcher/internal/config"
	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/i18n"
	"github.com/palgania/launcher/internal/logger"
	"github.com/palgania/launcher/internal/perf"
	"github.com/palgania/launcher/internal/telemetry"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

type initDeps struct {
	fs             afero.Fs
	logger         *logger.Logger
	manifestClient httpclient.Doer
	telemetry      func(telemetry.CommandTelemetry)
}

type initOptions struct {
	ConfigPath string
	Quiet      bool
	Debug      bool
}

type initRunner func(context.Context, *cobra.Command, initOptions, initDeps) error

func Command() *cobra.Command {
	return commandWithRunner(runInit)
}

func commandWithRunner(runner initRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: i18n.T("cmd.init.short"),
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.init")
			defer func() {
				span.SetAttributes(attribute.Bool("success", err == nil))
				span.End()
			}()

			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			quiet, err := cmd.Flags().GetBool("quiet")
			if err != nil {
				return err
			}
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}

			log := logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet, debug)
			deps := initDeps{
				fs:             afero.NewOsFs(),
				logger:         log,
				manifestClient: httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0)),
				telemetry:      telemetry.CaptureCommand,
			}
			opts := initOptions{
				ConfigPath: configPath,
				Quiet:      quiet,
				Debug:      debug,
			}

			err = runner(ctx, cmd, opts, deps)
			deps.telemetry(telemetry.CommandTelemetry{
				Command: "init",
				Success: err == nil,
				Error:   err,
			})
			return err
		},
	}

	return cmd
}

func runInit(ctx context.Context, _ *cobra.Command, opts initOptions, deps initDeps) error {
	meta := config.DefaultMetadata()
	if opts.ConfigPath != "" {
		meta = config.NewMetadata(opts.ConfigPath)
	}

	_, err := config.InitConfig(ctx, deps.fs, meta, deps.manifestClient)
	var alreadyExists *config.ConfigFileAlreadyExistsError
	if errors.As(err, &alreadyExists) {
		deps.logger.Log(i18n.T("init.exists", i18n.Tvars{
			Data: &i18n.TData{"path": alreadyExists.Path},
		}), true)
		return nil
	}
	if err != nil {
		return err
	}

	deps.logger.Log(i18n.T("init.created", i18n.Tvars{
		Data: &i18n.TData{"path": meta.ConfigPath},
	}), true)
	return nil
}
