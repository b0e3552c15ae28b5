/*
custodyd runs the custody programs on a local state.

Every command opens the state stored under --home, processes at most one
instruction in a block of its own and commits it. Settings are read from
flags, from CUSTODY_* environment variables and from an optional
custodyd.toml file in the home directory.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iov-one/custody"
	custodyd "github.com/iov-one/custody/cmd/custodyd/app"
	"github.com/iov-one/custody/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagHome     = "home"
	flagLogLevel = "log_level"
	flagChainID  = "chain_id"
	flagMetrics  = "metrics"

	envPrefix  = "CUSTODY"
	configName = "custodyd"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

// settings holds the configuration shared by all commands.
type settings struct {
	v      *viper.Viper
	logOut io.Writer
}

func (s *settings) home() string {
	return s.v.GetString(flagHome)
}

func (s *settings) chainID() string {
	return s.v.GetString(flagChainID)
}

// dbPath is where the state is persisted.
func (s *settings) dbPath() string {
	return filepath.Join(s.home(), "data", "custody.db")
}

// exportMetrics writes the metrics gathered by h to the configured file.
// Nothing is written when no file is configured.
func (s *settings) exportMetrics(h *custodyd.Host) error {
	path := s.v.GetString(flagMetrics)
	if path == "" {
		return nil
	}
	return h.WriteMetrics(path)
}

// logger is filtered by the configured level.
func (s *settings) logger() (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(s.logOut)).With("module", "custody")
	opt, err := log.AllowLevel(s.v.GetString(flagLogLevel))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

// load reads the optional configuration file from the home directory.
func (s *settings) load() error {
	s.v.SetConfigName(configName)
	s.v.AddConfigPath(s.home())
	if err := s.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrapf(errors.ErrInvalidInput, "config file: %s", err)
	}
	return nil
}

// newRootCmd returns the command tree printing results to out and logs to
// logOut.
func newRootCmd(out, logOut io.Writer) *cobra.Command {
	s := &settings{v: viper.New(), logOut: logOut}
	s.v.SetEnvPrefix(envPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	s.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "custodyd",
		Short:         "Custody programs host",
		Version:       custody.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load()
		},
	}
	root.SetOutput(out)

	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".custodyd")
	flags := root.PersistentFlags()
	flags.String(flagHome, defaultHome, "directory to store the state and configuration under")
	flags.String(flagLogLevel, "info", `log filter, like "info" or "debug"`)
	flags.String(flagChainID, "", "expected chain id, taken from the genesis when empty")
	flags.String(flagMetrics, "", "file to write instruction metrics to, in Prometheus text format")
	for _, name := range []string{flagHome, flagLogLevel, flagChainID, flagMetrics} {
		if err := s.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		initCmd(s),
		deriveCmd(s),
		submitCmd(s),
		queryCmd(s),
		keysCmd(s),
	)
	return root
}
