// Package resolve turns add-on keywords into verified local cache files.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

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
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

type resolveDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	catalog   httpclient.Doer
	manifest  httpclient.Doer
	telemetry func(telemetry.CommandTelemetry)
}

type resolveOptions struct {
	ConfigPath           string
	Kind                 string
	Offline              bool
	AllowVersionFallback bool
	Activate             bool
	Quiet                bool
	Debug                bool
}

// Result carries what the runner produced, for telemetry.
type Result struct {
	Report  resolver.Report
	Profile *models.ProfileJson
}

type resolveRunner func(context.Context, *cobra.Command, []string, resolveOptions, resolveDeps) (Result, error)

func Command() *cobra.Command {
	return commandWithRunner(runResolve)
}

func commandWithRunner(runner resolveRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <keyword>...",
		Short: i18n.T("cmd.resolve.short"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.resolve",
				perf.WithAttributes(attribute.Int("keywords", len(args))),
			)
			defer func() {
				span.SetAttributes(attribute.Bool("success", err == nil))
				span.End()
			}()

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			log := logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.Quiet, opts.Debug)
			deps := resolveDeps{
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

			result, err := runner(ctx, cmd, args, opts, deps)

			summary := result.Report.Summary()
			deps.telemetry(telemetry.CommandTelemetry{
				Command: "resolve",
				Success: err == nil,
				Profile: result.Profile,
				Error:   err,
				Extra: map[string]interface{}{
					"keywords":    len(args),
					"cached":      summary.Cached,
					"downloaded":  summary.Downloaded,
					"unavailable": summary.Unavailable(),
				},
			})
			return err
		},
	}

	cmd.Flags().StringP("kind", "k", models.ModKind.String(), i18n.T("cmd.resolve.usage.kind", i18n.Tvars{
		Data: &i18n.TData{"kinds": allKinds()},
	}))
	cmd.Flags().Bool("offline", false, i18n.T("cmd.resolve.usage.offline"))
	cmd.Flags().Bool("allow-version-fallback", false, i18n.T("cmd.resolve.usage.fallback"))
	cmd.Flags().BoolP("activate", "a", false, i18n.T("cmd.resolve.usage.activate"))

	_ = cmd.RegisterFlagCompletionFunc("kind", completeKinds)

	return cmd
}

func optionsFromFlags(cmd *cobra.Command) (resolveOptions, error) {
	var opts resolveOptions
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
	if opts.Kind, err = cmd.Flags().GetString("kind"); err != nil {
		return opts, err
	}
	if opts.Offline, err = cmd.Flags().GetBool("offline"); err != nil {
		return opts, err
	}
	if opts.AllowVersionFallback, err = cmd.Flags().GetBool("allow-version-fallback"); err != nil {
		return opts, err
	}
	if opts.Activate, err = cmd.Flags().GetBool("activate"); err != nil {
		return opts, err
	}
	return opts, nil
}

func runResolve(ctx context.Context, _ *cobra.Command, keywords []string, opts resolveOptions, deps resolveDeps) (Result, error) {
	meta := metadataFor(opts.ConfigPath)

	profile, err := config.ReadConfig(deps.fs, meta)
	if err != nil {
		return Result{}, err
	}

	kind, err := models.ParseKind(opts.Kind)
	if err != nil {
		return Result{Profile: &profile}, err
	}

	// Each arg may itself be a comma-separated list.
	expanded := make([]string, 0, len(keywords))
	for _, arg := range keywords {
		for _, request := range models.ParseRequests(arg, kind) {
			expanded = append(expanded, request.Keyword)
		}
	}
	keywords = expanded

	reg := registry.New(deps.fs, meta.RegistryPath(), deps.logger)
	store := cachestore.New(deps.fs, meta.GameDirPath(profile), nil)
	res := resolver.New(reg, store, deps.catalog,
		resolver.WithCompatible(compatibleProvider(ctx, deps.manifest)),
	)

	report, err := res.ResolveBatch(ctx, keywords, kind, profile.Loader, profile.GameVersion, resolver.BatchOptions{
		Offline:              opts.Offline,
		AllowVersionFallback: opts.AllowVersionFallback || profile.AllowVersionFallback,
	})
	if errors.Is(err, resolver.ErrBatchInProgress) {
		deps.logger.Error(resolver.BatchInProgressMessage())
		return Result{Profile: &profile}, err
	}
	if err != nil {
		return Result{Report: report, Profile: &profile}, err
	}

	for _, line := range report.Lines() {
		deps.logger.Log(line, true)
	}
	deps.logger.Log(report.SummaryLine(), true)

	if opts.Activate {
		applied, err := activation.NewManager(deps.fs).Activate(report, store, kind)
		if err != nil {
			return Result{Report: report, Profile: &profile}, err
		}
		deps.logger.Log(i18n.T("install.activated", i18n.Tvars{Data: &i18n.TData{
			"count":     fmt.Sprintf("%d", len(applied.Applied)),
			"directory": applied.Dir,
		}}), true)
	}

	return Result{Report: report, Profile: &profile}, nil
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
// manifest once per batch.
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

func allKinds() string {
	kinds := models.AllKinds()
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, kind.String())
	}
	return strings.Join(parts, ", ")
}

func completeKinds(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	kinds := models.AllKinds()
	out := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, kind.String())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
