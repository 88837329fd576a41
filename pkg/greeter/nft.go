package greeter

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// LeaderboardEntry is one ranked holder on a sneaker leaderboard.
type LeaderboardEntry struct {
	Owner ed25519.PublicKey
	Brand string
	Count uint64
}

// MintNFTForSneaker mints amount sneaker NFTs to creator. Minting is not
// supported by the greeting program.
func MintNFTForSneaker(_ context.Context, creator ed25519.PublicKey, seed string, amount uint64) error {
	if err := validateKey("creator", creator); err != nil {
		return err
	}
	if len(seed) == 0 {
		return errors.Wrap(ErrInvalidArgument, "seed is required")
	}
	if amount == 0 {
		return errors.Wrap(ErrInvalidArgument, "amount must be positive")
	}
	return errors.Wrap(ErrNotImplemented, "mint nft")
}

// TransferNFT moves nft from one owner to another. A nil to burns it.
func TransferNFT(_ context.Context, nft, from, to ed25519.PublicKey) error {
	if err := validateKey("nft", nft); err != nil {
		return err
	}
	if err := validateKey("from", from); err != nil {
		return err
	}
	if to != nil {
		if err := validateKey("to", to); err != nil {
			return err
		}
	}
	return errors.Wrap(ErrNotImplemented, "transfer nft")
}

// GetLeaderboardAll ranks the top holders across all brands.
func GetLeaderboardAll(_ context.Context, top int) ([]LeaderboardEntry, error) {
	if top <= 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "top must be positive")
	}
	return nil, errors.Wrap(ErrNotImplemented, "leaderboard")
}

// GetLeaderboardBrand ranks the top holders of a single brand.
func GetLeaderboardBrand(_ context.Context, top int, brand string) ([]LeaderboardEntry, error) {
	if top <= 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "top must be positive")
	}
	if len(brand) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "brand is required")
	}
	return nil, errors.Wrap(ErrNotImplemented, "brand leaderboard")
}

func validateKey(name string, key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return errors.Wrapf(ErrInvalidArgument, "%s must be a %d byte public key", name, ed25519.PublicKeySize)
	}
	return nil
}
