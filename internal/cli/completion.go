package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/internal/config"
	"github.com/matzehuels/uvm/pkg/manifest"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for uvm.

Besides commands and flags, the scripts complete module ids for
"install --module" and installed versions for "uninstall".

Bash:
  $ source <(uvm completion bash)
  $ uvm completion bash > /etc/bash_completion.d/uvm

Zsh (compinit must be enabled):
  $ uvm completion zsh > "${fpath[1]}/_uvm"

Fish:
  $ uvm completion fish > ~/.config/fish/completions/uvm.fish

PowerShell:
  PS> uvm completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeModules offers the declared component ids. Values already on
// the command line are left out; a comma-separated prefix is kept so the
// shell completes the last element.
func completeModules(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, toComplete = toComplete[:i+1], toComplete[i+1:]
	}
	given := map[string]bool{}
	for _, s := range strings.Split(prefix, ",") {
		given[strings.ToLower(strings.TrimSpace(s))] = true
	}

	var out []string
	for _, id := range manifest.KnownComponents() {
		s := string(id)
		if id.IsEditor() || given[s] || !strings.HasPrefix(s, strings.ToLower(toComplete)) {
			continue
		}
		out = append(out, prefix+s)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeInstalled offers the versions found below the install root.
// Completion skips the pre-run hook, so the config is loaded here.
func (c *CLI) completeInstalled(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if c.Config == nil {
		cfg, _, err := config.Load(config.Options{File: c.configPath, Flags: cmd.Flags()})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		c.Config = cfg
	}
	insts, err := c.layout().List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, inst := range insts {
		if s := inst.Version.String(); strings.HasPrefix(s, toComplete) {
			out = append(out, s)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
