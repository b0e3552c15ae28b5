package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/custody/errors"
	"github.com/spf13/cobra"
	slip10 "github.com/stellar/go/exp/crypto/derivation"
	"golang.org/x/crypto/ed25519"
)

// defaultDerivationPath is the first account of the ed25519 coin type
// used by wallets of the custody ledger.
const defaultDerivationPath = "m/44'/501'/0'/0'"

func keysCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage ed25519 private key files",
	}
	keyFlag := func(c *cobra.Command, dst *string) {
		c.Flags().StringVar(dst, "key", filepath.Join(os.ExpandEnv("$HOME"), ".custodyd.key"), "private key file")
	}

	var genKey string
	gen := &cobra.Command{
		Use:   "gen",
		Short: "Generate a new private key file",
		Long: `Generate a new private key.

When successful a new file with hex encoded private key is created. This
command fails if the private key file already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := genPrivateKey()
			if err != nil {
				return err
			}
			if err := savePrivateKey(key, genKey, false); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), keyAddress(key))
			return err
		},
	}
	keyFlag(gen, &genKey)

	var addrKey string
	address := &cobra.Command{
		Use:   "address",
		Short: "Print the address of a private key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadPrivateKey(addrKey)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), keyAddress(key))
			return err
		},
	}
	keyFlag(address, &addrKey)

	var (
		deriveKey  string
		seedHex    string
		path       string
		deriveSave bool
	)
	derive := &cobra.Command{
		Use:   "derive",
		Short: "Derive a private key from a hex seed and a SLIP-10 path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := deriveKeyForPath(seedHex, path)
			if err != nil {
				return err
			}
			if deriveSave {
				if err := savePrivateKey(key, deriveKey, false); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), keyAddress(key))
			return err
		},
	}
	keyFlag(derive, &deriveKey)
	derive.Flags().StringVar(&seedHex, "seed", "", "master seed in hex")
	derive.Flags().StringVar(&path, "path", defaultDerivationPath, "derivation path, hardened segments only")
	derive.Flags().BoolVar(&deriveSave, "save", false, "write the derived key to the key file")

	cmd.AddCommand(gen, address, derive)
	return cmd
}

// deriveKeyForPath derives an ed25519 private key from given hex seed.
func deriveKeyForPath(seedHex, path string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "seed: %s", err)
	}
	if len(seed) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "seed")
	}
	k, err := slip10.DeriveForPath(path, seed)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "derive using path %q: %s", path, err)
	}
	return ed25519.NewKeyFromSeed(k.Key), nil
}
