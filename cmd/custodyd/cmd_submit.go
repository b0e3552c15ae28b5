package main

import (
	"encoding/json"
	"io/ioutil"
	"time"

	"github.com/iov-one/custody/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ed25519"
)

// txFile is the hand written form of an instruction.
type txFile struct {
	Path string          `json:"path"`
	Msg  json.RawMessage `json:"msg"`
}

type submitResult struct {
	Path string `json:"path"`
	Slot uint64 `json:"slot"`
	Log  string `json:"log,omitempty"`
	Data []byte `json:"data,omitempty"`
}

func submitCmd(s *settings) *cobra.Command {
	var (
		file string
		keys []string
		slot uint64
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Sign and deliver a single instruction in a new block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := ioutil.ReadFile(file)
			if err != nil {
				return errors.Wrapf(errors.ErrInvalidInput, "read %s: %s", file, err)
			}
			var tf txFile
			if err := json.Unmarshal(raw, &tf); err != nil {
				return errors.Wrapf(errors.ErrInvalidInput, "parse %s: %s", file, err)
			}

			signers := make([]ed25519.PrivateKey, 0, len(keys))
			for _, path := range keys {
				key, err := loadPrivateKey(path)
				if err != nil {
					return err
				}
				signers = append(signers, key)
			}

			h, err := s.openInitialized()
			if err != nil {
				return err
			}
			defer h.Close()
			msg, err := h.Registry.DecodeJSON(tf.Path, tf.Msg)
			if err != nil {
				return err
			}
			res, err := h.Submit(msg, slot, time.Now().UTC(), signers...)
			if mErr := s.exportMetrics(h); mErr != nil && err == nil {
				err = mErr
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, submitResult{Path: tf.Path, Slot: slot, Log: res.Log, Data: res.Data})
		},
	}
	cmd.Flags().StringVar(&file, "tx", "tx.json", `instruction file: {"path": "escrow/make", "msg": {...}}`)
	cmd.Flags().StringArrayVar(&keys, "key", nil, "private key file to sign with, repeatable")
	cmd.Flags().Uint64Var(&slot, "slot", 1, "slot of the block processing the instruction")
	return cmd
}
