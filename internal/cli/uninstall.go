package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/pkg/version"
)

// uninstallCommand creates the uninstall command.
func (c *CLI) uninstallCommand() *cobra.Command {
	var keepArtifacts bool

	cmd := &cobra.Command{
		Use:     "uninstall <version>",
		Aliases: []string{"rm"},
		Short:   "Remove an installed editor version",
		Long: `Remove an installed editor version and every module in it.

Downloaded artifacts for the version are removed from the cache as well
unless --keep-artifacts is given.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeInstalled,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := version.Parse(args[0])
			if err != nil {
				return err
			}
			return c.runUninstall(v, keepArtifacts)
		},
	}
	cmd.Flags().BoolVar(&keepArtifacts, "keep-artifacts", false, "keep downloaded artifacts in the cache")
	return cmd
}

func (c *CLI) runUninstall(v version.Version, keepArtifacts bool) error {
	layout := c.layout()
	path := layout.Path(v)
	if err := layout.Remove(v); err != nil {
		return err
	}
	printSuccess("Removed %s", v)
	printFile(path)

	if keepArtifacts {
		return nil
	}
	if err := c.newLoader().Remove(v); err != nil {
		printWarning("cached artifacts not removed: %v", err)
	}
	return nil
}
