package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uvm/pkg/dag"
	"github.com/matzehuels/uvm/pkg/errors"
	"github.com/matzehuels/uvm/pkg/orchestrator"
	"github.com/matzehuels/uvm/pkg/version"
)

// catalogFlags are shared by commands that read a version's catalog.
type catalogFlags struct {
	dest    string
	offline bool
	noCache bool
}

func (f *catalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dest, "dest", "", "installation directory to compare against (default: below the install root)")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "use the cached catalog regardless of its age")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the catalog cache")
}

// loadGraph fetches the catalog for the version in args and builds its
// install graph with the status of the matching installation.
func (c *CLI) loadGraph(ctx context.Context, arg string, f catalogFlags) (*dag.Graph, orchestrator.Request, error) {
	v, err := version.Parse(arg)
	if err != nil {
		return nil, orchestrator.Request{}, err
	}
	req := c.request(v)
	req.Destination = f.dest
	req.Offline = f.offline

	cat, closeCat, err := c.newCatalog(ctx, f.noCache)
	if err != nil {
		return nil, req, err
	}
	defer closeCat()

	spinner := newSpinner(ctx, fmt.Sprintf("Fetching catalog for %s...", v))
	spinner.Start()
	g, _, err := c.newOrchestrator(cat).Graph(ctx, req)
	if err != nil {
		spinner.StopWithError("Catalog unavailable")
		return nil, req, err
	}
	spinner.Stop()
	return g, req, nil
}

// modulesCommand creates the modules command.
func (c *CLI) modulesCommand() *cobra.Command {
	var f catalogFlags

	cmd := &cobra.Command{
		Use:   "modules <version>",
		Short: "Show the modules available for a version",
		Long: `Show the modules available for a version.

Modules are listed as a tree: each module sits below the module it is
installed alongside. The status column compares against the installation
of that version, if there is one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, req, err := c.loadGraph(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			printModules(g, req)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func printModules(g *dag.Graph, req orchestrator.Request) {
	rows := make([][]string, 0, g.NodeCount())
	installed := 0
	for _, e := range g.Topological() {
		n, _ := g.Node(e.ID)
		if e.Status == dag.Installed {
			installed++
		}
		rows = append(rows, []string{
			strings.Repeat("  ", n.Depth) + string(n.ID),
			n.Module.Title,
			renderStatus(e.Status),
			humanBytes(n.Module.DownloadSize),
			humanBytes(n.Module.InstalledSize),
		})
	}
	fmt.Println(StyleTitle.Render(fmt.Sprintf("%s on %s/%s", req.Version, req.Platform, req.Arch)))
	fmt.Println(renderTable([]string{"Module", "Name", "Status", "Download", "Installed"}, rows))
	printDetail("%d of %d modules installed", installed, g.NodeCount())
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		f        catalogFlags
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph <version>",
		Short: "Export the install graph of a version",
		Long: `Export the install graph of a version as Graphviz DOT, SVG or JSON.

Installed modules are filled green. Without --output the graph is written to
stdout.`,
		Example: `  uvm graph 2022.3.10f1 | dot -Tpng > modules.png
  uvm graph 2022.3.10f1 --format svg -o modules.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "dot" && format != "svg" && format != "json" {
				return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (use dot, svg or json)", format)
			}
			g, req, err := c.loadGraph(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			return c.writeGraph(cmd.Context(), g, req, format, output, detailed)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, svg or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add status and depth to node labels")
	return cmd
}

func (c *CLI) writeGraph(ctx context.Context, g *dag.Graph, req orchestrator.Request, format, output string, detailed bool) error {
	var data []byte
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := g.WriteJSON(&buf); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "export graph")
		}
		data = buf.Bytes()
	default:
		data = []byte(g.ToDOT(dag.DOTOptions{
			Detailed: detailed,
			Title:    fmt.Sprintf("%s (%s)", req.Version, req.Platform),
		}))
	}
	if format == "svg" {
		sw := newStopwatch(c.Logger)
		svg, err := dag.RenderSVG(ctx, string(data))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		sw.done("Rendered graph", "nodes", g.NodeCount())
		data = svg
	}

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
	}
	printSuccess("Wrote %s graph", format)
	printFile(output)
	return nil
}
