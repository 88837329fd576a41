package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/code-payments/greeter/pkg/greeter"
)

func newReportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the greeting counter without greeting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := c.newGreeter(cmd.Context())
			if err != nil {
				return err
			}

			s, err := g.Locate(greeter.Session{})
			if err != nil {
				return err
			}

			record, err := g.ReportGreetings(cmd.Context(), s)
			if err != nil {
				return err
			}

			report := greeter.Report{
				Greeting: s.Greeting,
				Counter:  record.Counter,
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return nil
		},
	}
}
