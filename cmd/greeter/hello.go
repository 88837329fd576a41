package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/code-payments/greeter/pkg/greeter"
	"github.com/code-payments/greeter/pkg/solana/helloworld"
)

func newHelloCmd(c *cli) *cobra.Command {
	var (
		age  int64
		name string
	)

	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Greet the program and report the greeting counter",
		Long: `Greet the program and report the greeting counter.

The payer is funded by airdrop when needed and its greeting account is
created on first use. Without flags the counter is incremented.`,
		Example: `  greeter hello
  greeter hello --age 7
  greeter hello --name alice --url https://api.devnet.solana.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			greeting := greeter.Increment()

			var err error
			switch {
			case cmd.Flags().Changed("age"):
				greeting, err = greeter.SetAge(age)
			case cmd.Flags().Changed("name"):
				greeting, err = greeter.SetName(name)
			}
			if err != nil {
				return err
			}

			g, err := c.newGreeter(cmd.Context())
			if err != nil {
				return err
			}

			report, err := g.Run(cmd.Context(), greeting)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return nil
		},
	}

	cmd.Flags().Int64Var(&age, "age", 0, "set the age, which the program stores in the counter")
	cmd.Flags().StringVar(&name, "name", helloworld.DefaultName, "set the name")
	cmd.Flags().Lookup("name").NoOptDefVal = helloworld.DefaultName
	cmd.Flags().Bool("increment", false, "increment the counter (default)")
	cmd.MarkFlagsMutuallyExclusive("age", "name", "increment")

	return cmd
}
