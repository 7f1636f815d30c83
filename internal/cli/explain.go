package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) explainCommand() *cobra.Command {
	var flags resolveFlags
	cmd := &cobra.Command{
		Use:   "explain <package>",
		Short: "Show how a package's version was selected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.resolve(cmd.Context(), &flags)
			if s != nil {
				defer s.Close()
			}
			if err != nil {
				return c.reportFailure(err)
			}
			text, err := s.resolution.Graph().ToExplainText(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, text)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) whyCommand() *cobra.Command {
	var flags resolveFlags
	cmd := &cobra.Command{
		Use:   "why <package>",
		Short: "List the dependency chains that pull a package in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.resolve(cmd.Context(), &flags)
			if s != nil {
				defer s.Close()
			}
			if err != nil {
				return c.reportFailure(err)
			}
			chains, err := s.resolution.Graph().WhyIncluded(args[0])
			if err != nil {
				return err
			}
			v, _ := s.resolution.Get(args[0])
			fmt.Fprintln(c.out, styleTitle.Render(args[0]+"@"+v.String()))
			for _, chain := range chains {
				fmt.Fprintln(c.out, "  "+styleDim.Render(iconArrow)+" "+chain.String())
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
