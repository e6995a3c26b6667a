package cli

import (
	"github.com/spf13/cobra"

	gio "github.com/drips-network/gardener/pkg/io"
)

// showCommand creates the show command, which re-displays a saved result.
func (c *CLI) showCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "show <result.json>",
		Short: "Display a saved analysis result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := gio.ImportResult(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("loaded result", "path", args[0], "entries", len(res.DripList))
			if interactive {
				return browse(res)
			}
			writeReport(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the drip list interactively")
	return cmd
}
