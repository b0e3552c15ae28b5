package main

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/spf13/cobra"
)

// parseSeed reads a seed given as <kind>:<value>.
func parseSeed(s string) ([]byte, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "seed %q, expected kind:value", s)
	}
	kind, value := parts[0], parts[1]
	switch kind {
	case "str":
		return []byte(value), nil
	case "addr":
		a, err := custody.ParseAddress(value)
		if err != nil {
			return nil, err
		}
		return a.Bytes(), nil
	case "u64":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "seed %q: %s", s, err)
		}
		return custody.SeedUint64(n), nil
	case "hex":
		raw, err := hex.DecodeString(value)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "seed %q: %s", s, err)
		}
		return raw, nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown seed kind %q", kind)
	}
}

type derivation struct {
	Address custody.Address `json:"address"`
	Bump    uint8           `json:"bump"`
}

func deriveCmd(s *settings) *cobra.Command {
	var (
		program string
		seeds   []string
	)
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the address and bump derived from a program and seeds",
		Example: `  custodyd derive --program Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS \
    --seed str:escrow --seed addr:<maker> --seed u64:7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			programID, err := custody.ParseAddress(program)
			if err != nil {
				return errors.Wrap(err, "program")
			}
			raw := make([][]byte, 0, len(seeds))
			for _, seed := range seeds {
				b, err := parseSeed(seed)
				if err != nil {
					return err
				}
				raw = append(raw, b)
			}
			addr, bump, err := custody.FindProgramAddress(programID, raw...)
			if err != nil {
				return err
			}
			return printJSON(cmd, derivation{Address: addr, Bump: bump})
		},
	}
	cmd.Flags().StringVar(&program, "program", "", "program id, base58")
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "seed as str:<text>, addr:<base58>, u64:<n> or hex:<bytes>, repeatable")
	return cmd
}

// printJSON writes an indented JSON document to the command output.
func printJSON(cmd *cobra.Command, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInvalidType, err.Error())
	}
	_, err = cmd.OutOrStdout().Write(append(raw, '\n'))
	return err
}
