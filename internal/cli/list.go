package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed editor versions",
		Long: `List installed editor versions.

Every directory below the install root whose name is a version counts as an
installation. Modules are read from the installation record; installations
made by other tools show as unrecorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList()
		},
	}
}

func (c *CLI) runList() error {
	layout := c.layout()
	insts, err := layout.List()
	if err != nil {
		return err
	}
	if len(insts) == 0 {
		printInfo("No installations in %s", layout.Root)
		printNextStep("Install one", appName+" install <version>")
		return nil
	}

	rows := make([][]string, 0, len(insts))
	for _, inst := range insts {
		mods := StyleDim.Render("unrecorded")
		if inst.Record != nil {
			names := make([]string, 0, len(inst.Record.Modules))
			for _, id := range inst.Modules() {
				names = append(names, string(id))
			}
			mods = strings.Join(names, ", ")
		}
		rows = append(rows, []string{inst.Version.FullString(), mods, inst.Path})
	}
	fmt.Println(renderTable([]string{"Version", "Modules", "Path"}, rows))
	return nil
}
