package version

import (
	"fmt"

	"github.com/palgania/launcher/internal/environment"
	"github.com/palgania/launcher/internal/i18n"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: i18n.T("cmd.version.short"),
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), environment.AppVersion())
		},
	}

	return versionCmd
}
