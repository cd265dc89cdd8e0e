package cli

import (
	"github.com/spf13/cobra"

	"github.com/rlei-miris/kit-render-service/internal/client"
)

// newOpenStageCmd creates the open-stage command.
func newOpenStageCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "open-stage <path>",
		Short: "Load a scene file as the service's active stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newProgress(loggerFromContext(cmd.Context()))
			msg, err := newClient().OpenStage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p.done(msg)
			return nil
		},
	}
}

// newSetRendererCmd creates the set-renderer command.
func newSetRendererCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:       "set-renderer <interactive|realtime>",
		Short:     "Select the renderer mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"interactive", "realtime"},
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := newClient().SetRenderer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSuccess("%s", msg)
			return nil
		},
	}
}
