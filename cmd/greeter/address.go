package main

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/code-payments/greeter/pkg/greeter"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/helloworld"
)

func newAddressCmd(c *cli) *cobra.Command {
	var programDerived bool

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the payer's greeting account address",
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

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "payer:    %s\n", base58.Encode(s.PayerKey()))
			fmt.Fprintf(out, "program:  %s\n", base58.Encode(s.Program))
			fmt.Fprintf(out, "greeting: %s\n", base58.Encode(s.Greeting))

			if programDerived {
				pda, bump, err := solana.FindProgramAddressAndBump(s.Program, s.PayerKey(), []byte(helloworld.GreetingSeed))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "pda:      %s (bump %d)\n", base58.Encode(pda), bump)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&programDerived, "program-derived", false, "also print the program derived address for the same seeds")

	return cmd
}
