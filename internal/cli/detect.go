package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/pkg/project"
)

// detectCommand creates the detect command.
func (c *CLI) detectCommand() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "detect [path]",
		Short: "Print the editor version a project uses",
		Long: `Print the editor version a project uses.

The project is found by walking up from path (default: the current directory)
to the first directory holding ProjectSettings/ProjectVersion.txt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return c.runDetect(path, quiet)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the version")
	return cmd
}

func (c *CLI) runDetect(path string, quiet bool) error {
	p, err := project.Detect(path)
	if err != nil {
		return err
	}
	if quiet {
		fmt.Println(p.Version.FullString())
		return nil
	}

	printKeyValue("Project", p.Root)
	printKeyValue("Version", StyleHighlight.Render(p.Version.FullString()))
	inst, err := c.layout().Find(p.Version)
	if err != nil {
		printNewline()
		printWarning("%s is not installed", p.Version)
		printNextStep("Install it", fmt.Sprintf("%s install %q", appName, p.Version.FullString()))
		return nil
	}
	printKeyValue("Installed", inst.Path)
	return nil
}
