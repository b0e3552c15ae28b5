package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Genesis file format
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState custody.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrapf(errors.ErrInvalidInput, "read genesis file: %s", err)
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInvalidInput, "parse genesis file: %s", err)
	}
	return gen, nil
}
