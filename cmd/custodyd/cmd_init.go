package main

import (
	"fmt"
	"os"

	"github.com/iov-one/custody/app"
	custodyd "github.com/iov-one/custody/cmd/custodyd/app"
	"github.com/iov-one/custody/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// open loads the state under the home directory. When a chain id is
// configured the state must belong to it.
func (s *settings) open() (*custodyd.Host, error) {
	logger, err := s.logger()
	if err != nil {
		return nil, err
	}
	h, err := custodyd.Application(s.dbPath(), prometheus.NewRegistry(), logger)
	if err != nil {
		return nil, err
	}
	if want := s.chainID(); want != "" && h.ChainID() != "" && h.ChainID() != want {
		h.Close()
		return nil, errors.Wrapf(errors.ErrInvalidState, "state belongs to chain %q, not %q", h.ChainID(), want)
	}
	return h, nil
}

// openInitialized is open for commands that need a chain.
func (s *settings) openInitialized() (*custodyd.Host, error) {
	h, err := s.open()
	if err != nil {
		return nil, err
	}
	if h.ChainID() == "" {
		h.Close()
		return nil, errors.Wrapf(errors.ErrInvalidState, "no chain under %s, run init first", s.home())
	}
	return h, nil
}

func initCmd(s *settings) *cobra.Command {
	var genesisFile string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the state from a genesis file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := app.LoadGenesis(genesisFile)
			if err != nil {
				return err
			}
			if id := s.chainID(); id != "" {
				gen.ChainID = id
			}
			if err := os.MkdirAll(s.home(), 0700); err != nil {
				return errors.Wrapf(errors.ErrInvalidState, "home: %s", err)
			}
			h, err := s.open()
			if err != nil {
				return err
			}
			defer h.Close()
			id, err := h.Genesis(gen)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "initialized chain %s at version %d (%X)\n", gen.ChainID, id.Version, id.Hash)
			return err
		},
	}
	cmd.Flags().StringVar(&genesisFile, "genesis", "genesis.json", "genesis document")
	return cmd
}
