package main

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/greeter/pkg/greeter"
)

func newNFTCmd(_ *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nft",
		Short: "Sneaker NFT operations (not supported by the greeting program)",
	}

	cmd.AddCommand(
		newNFTMintCmd(),
		newNFTTransferCmd(),
		newNFTLeaderboardCmd(),
	)
	return cmd
}

func newNFTMintCmd() *cobra.Command {
	var (
		creator string
		seed    string
		amount  uint64
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint sneaker NFTs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creatorKey, err := parseKey("creator", creator)
			if err != nil {
				return err
			}
			return greeter.MintNFTForSneaker(cmd.Context(), creatorKey, seed, amount)
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "creator public key")
	cmd.Flags().StringVar(&seed, "seed", "", "sneaker seed")
	cmd.Flags().Uint64Var(&amount, "amount", 1, "number of NFTs to mint")
	_ = cmd.MarkFlagRequired("creator")
	_ = cmd.MarkFlagRequired("seed")

	return cmd
}

func newNFTTransferCmd() *cobra.Command {
	var nft, from, to string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer a sneaker NFT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nftKey, err := parseKey("nft", nft)
			if err != nil {
				return err
			}
			fromKey, err := parseKey("from", from)
			if err != nil {
				return err
			}

			var toKey ed25519.PublicKey
			if len(to) > 0 {
				if toKey, err = parseKey("to", to); err != nil {
					return err
				}
			}

			return greeter.TransferNFT(cmd.Context(), nftKey, fromKey, toKey)
		},
	}

	cmd.Flags().StringVar(&nft, "nft", "", "NFT public key")
	cmd.Flags().StringVar(&from, "from", "", "current owner public key")
	cmd.Flags().StringVar(&to, "to", "", "new owner public key (omit to burn)")
	_ = cmd.MarkFlagRequired("nft")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func newNFTLeaderboardCmd() *cobra.Command {
	var (
		top   int
		brand string
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank sneaker NFT holders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				entries []greeter.LeaderboardEntry
				err     error
			)
			if len(brand) > 0 {
				entries, err = greeter.GetLeaderboardBrand(cmd.Context(), top, brand)
			} else {
				entries, err = greeter.GetLeaderboardAll(cmd.Context(), top)
			}
			if err != nil {
				return err
			}

			for i, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s %s %d\n", i+1, base58.Encode(entry.Owner), entry.Brand, entry.Count)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of entries")
	cmd.Flags().StringVar(&brand, "brand", "", "limit to one brand")

	return cmd
}

func parseKey(name, encoded string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(encoded)
	if err != nil {
		return nil, errors.Wrapf(greeter.ErrInvalidArgument, "%s is not base58: %v", name, err)
	}
	return decoded, nil
}
