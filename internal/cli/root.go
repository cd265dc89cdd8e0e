package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rlei-miris/kit-render-service/internal/client"
	"github.com/rlei-miris/kit-render-service/pkg/buildinfo"
)

// defaultAddr is the service address client commands talk to.
const defaultAddr = "http://localhost:8011"

// Execute runs the renderserver CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose bool
		addr    string
	)

	root := &cobra.Command{
		Use:          "renderserver",
		Short:        "Remote render control over a 3D scene",
		Long:         `Renderserver exposes a small HTTP control surface over a 3D scene: open a stage, select a renderer mode, and render still images with resolved camera geometry.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "render service address for client commands")

	newClient := func() *client.Client { return client.New(addr) }

	root.AddCommand(newServeCmd())
	root.AddCommand(newOpenStageCmd(newClient))
	root.AddCommand(newSetRendererCmd(newClient))
	root.AddCommand(newRenderCmd(newClient))
	root.AddCommand(newJobsCmd(newClient))

	return root.ExecuteContext(ctx)
}
