package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags  resolveFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the resolved dependency graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "dot" && format != "json" {
				return fmt.Errorf("unknown format %q (want text, dot or json)", format)
			}
			s, err := c.resolve(cmd.Context(), &flags)
			if s != nil {
				defer s.Close()
			}
			if err != nil {
				return c.reportFailure(err)
			}

			g := s.resolution.Graph()
			switch format {
			case "dot":
				fmt.Fprint(c.out, g.ToDOT())
			case "json":
				data, err := g.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, string(data))
			default:
				fmt.Fprint(c.out, g.ToText())
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, dot or json")
	return cmd
}
