// Package install resolves every configured add-on and activates it for the
// current profile.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/palgania/launcher/internal/activation"
	"github.com/palgania/launcher/internal/cachestore"
	"github.com/palgania/launcher/internal/config"
	"github.com/palgania/launcher/internal/httpclient"
	"github.com/palgania/launcher/internal/i18n"
	"github.com/palgania/launcher/internal/lifecycle"
	"github.com/palgania/launcher/internal/logger"
	"github.com/palgania/launcher/internal/minecraft"
	"github.com/palgania/launcher/internal/models"
	"github.com/palgania/launcher/internal/modrinth"
	"github.com/palgania/launcher/internal/perf"
	"github.com/palgania/launcher/internal/registry"
	"github.com/palgania/launcher/internal/resolver"
	"github.com/palgania/launcher/internal/telemetry"
	"github.com/palgania/launcher/internal/tui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

type installDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	catalog   httpclient.Doer
	manifest  httpclient.Doer
	telemetry func(telemetry.CommandTelemetry)
}

type installOptions struct {
	ConfigPath   string
	Offline      bool
	AllowPartial bool
	Quiet        bool
	Debug        bool
}

type Result struct {
	Resolved  int
	Activated int
}

var errPartialUnavailable = errors.New("some add-ons are unavailable")

type installRunner func(context.Context, *cobra.Command, installOptions, installDeps) (Result, error)

func Command() *cobra.Command {
	return commandWithRunner(runInstall)
}

func commandWithRunner(runner installRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install",
		Aliases: []string{"i"},
		Short:   i18n.T("cmd.install.short"),
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.install")

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				span.End()
				return err
			}

			log := logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.Quiet, opts.Debug)
			deps := installDeps{
				fs:        afero.NewOsFs(),
				logger:    log,
				catalog:   modrinth.NewClient(httpclient.NewRLClient(catalogLimiter())),
				manifest:  httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0)),
				telemetry: telemetry.CaptureCommand,
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			handlerID := lifecycle.Register(func(os.Signal) { cancel() })
			defer lifecycle.Unregister(handlerID)

			result, err := runner(ctx, cmd, opts, deps)
			span.SetAttributes(attribute.Bool("success", err == nil))
			span.End()

			deps.telemetry(telemetry.CommandTelemetry{
				Command: "install",
				Success: err == nil,
				Error:   err,
				Extra: map[string]interface{}{
					"resolved":  result.Resolved,
					"activated": result.Activated,
					"offline":   opts.Offline,
				},
			})

			return err
		},
	}

	cmd.Flags().Bool("offline", false, i18n.T("cmd.install.usage.offline"))
	cmd.Flags().Bool("allow-partial", false, i18n.T("cmd.install.usage.allow-partial"))

	return cmd
}

func optionsFromFlags(cmd *cobra.Command) (installOptions, error) {
	var opts installOptions
	var err error

	if opts.ConfigPath, err = cmd.Flags().GetString("config"); err != nil {
		return opts, err
	}
	if opts.Quiet, err = cmd.Flags().GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.Debug, err = cmd.Flags().GetBool("debug"); err != nil {
		return opts, err
	}
	if opts.Offline, err = cmd.Flags().GetBool("offline"); err != nil {
		return opts, err
	}
	if opts.AllowPartial, err = cmd.Flags().GetBool("allow-partial"); err != nil {
		return opts, err
	}
	return opts, nil
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions, deps installDeps) (Result, error) {
	meta := metadataFor(opts.ConfigPath)

	profile, err := config.ReadConfig(deps.fs, meta)
	if err != nil {
		return Result{}, err
	}

	reg := registry.New(deps.fs, meta.RegistryPath(), deps.logger)
	store := cachestore.New(deps.fs, meta.GameDirPath(profile), nil)

	batchOptions := resolver.BatchOptions{
		Offline:              opts.Offline,
		AllowVersionFallback: profile.AllowVersionFallback,
	}

	useTUI := tui.ShouldUseTUI(opts.Quiet, cmd.InOrStdin(), cmd.OutOrStdout())
	compatible := compatibleProvider(ctx, deps.manifest)

	var result Result
	for _, kind := range models.AllKinds() {
		keywords := profile.KeywordsFor(kind)
		if len(keywords) == 0 {
			continue
		}

		report, err := resolveKind(ctx, cmd, deps, reg, store, keywords, kind, profile, batchOptions, compatible, useTUI)
		if errors.Is(err, resolver.ErrBatchInProgress) {
			deps.logger.Error(resolver.BatchInProgressMessage())
			return result, err
		}
		if err != nil {
			return result, err
		}
		result.Resolved += len(report.Entries)

		if report.HasUnavailable() && !opts.AllowPartial {
			deps.logger.Warn(i18n.T("resolve.partial_warning"))
			return result, errPartialUnavailable
		}

		applied, err := activation.NewManager(deps.fs).Activate(report, store, kind)
		if err != nil {
			return result, err
		}
		result.Activated += len(applied.Applied)
		_ = store.Prune(kind)

		deps.logger.Log(i18n.T("install.activated", i18n.Tvars{Data: &i18n.TData{
			"count":     fmt.Sprintf("%d", len(applied.Applied)),
			"directory": applied.Dir,
		}}), true)
	}

	return result, nil
}

// resolveKind runs one kind's batch, with a live progress display when the
// command is attached to a terminal.
func resolveKind(
	ctx context.Context,
	cmd *cobra.Command,
	deps installDeps,
	reg *registry.Registry,
	store *cachestore.Store,
	keywords []string,
	kind models.Kind,
	profile models.ProfileJson,
	batchOptions resolver.BatchOptions,
	compatible resolver.Compatible,
	useTUI bool,
) (resolver.Report, error) {
	if !useTUI {
		deps.logger.Log(i18n.T("install.kind_heading", i18n.Tvars{Data: &i18n.TData{
			"kind": kind.ActiveDirName(),
		}}), true)

		res := resolver.New(reg, store, deps.catalog, resolver.WithCompatible(compatible))
		report, err := res.ResolveBatch(ctx, keywords, kind, profile.Loader, profile.GameVersion, batchOptions)
		if err != nil {
			return report, err
		}
		for _, line := range report.Lines() {
			deps.logger.Log(line, true)
		}
		deps.logger.Log(report.SummaryLine(), true)
		return report, nil
	}

	program := tea.NewProgram(
		tui.NewResolutionModel(kind, keywords),
		tui.ProgramOptions(cmd.InOrStdin(), cmd.OutOrStdout())...,
	)

	res := resolver.New(reg, store, deps.catalog,
		resolver.WithCompatible(compatible),
		resolver.WithProgress(func(index int, keyword string, outcome resolver.Outcome) {
			program.Send(tui.OutcomeMsg{Index: index, Keyword: keyword, Outcome: outcome})
		}),
		resolver.WithSender(program),
	)

	type batchResult struct {
		report resolver.Report
		err    error
	}
	results := make(chan batchResult, 1)

	go func() {
		report, err := res.ResolveBatch(ctx, keywords, kind, profile.Loader, profile.GameVersion, batchOptions)
		results <- batchResult{report: report, err: err}
		program.Send(tui.BatchDoneMsg{})
	}()

	if _, err := program.Run(); err != nil {
		return resolver.Report{}, err
	}

	batch := <-results
	if batch.err != nil {
		return batch.report, batch.err
	}

	deps.logger.Log(batch.report.SummaryLine(), true)
	return batch.report, nil
}

func metadataFor(configPath string) config.Metadata {
	if configPath == "" {
		return config.DefaultMetadata()
	}
	return config.NewMetadata(configPath)
}

// catalogLimiter keeps metadata traffic under the catalog's 300 req/min
// ceiling.
func catalogLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(5), 5)
}

// compatibleProvider checks the requested game version against Mojang's
// manifest once per run.
func compatibleProvider(ctx context.Context, manifest httpclient.Doer) resolver.Compatible {
	var once sync.Once
	var compatible bool
	return func(loader models.Loader, gameVersion string) bool {
		once.Do(func() {
			compatible = minecraft.IsCompatible(ctx, loader, gameVersion, manifest)
		})
		return compatible
	}
}
