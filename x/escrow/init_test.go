package escrow

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

func TestGenesis(t *testing.T) {
	program := custodytest.NewAddress("program")

	cases := map[string]struct {
		conf    map[string]interface{}
		wantErr *errors.Error
		want    Configuration
	}{
		"defaults when not declared": {
			conf: nil,
			want: Configuration{ProgramID: DefaultProgramID, MaxExpiry: DefaultMaxExpiry},
		},
		"partial configuration keeps defaults": {
			conf: map[string]interface{}{"max_expiry": 50},
			want: Configuration{ProgramID: DefaultProgramID, MaxExpiry: 50},
		},
		"full configuration": {
			conf: map[string]interface{}{"program_id": program, "max_expiry": 7},
			want: Configuration{ProgramID: program, MaxExpiry: 7},
		},
		"zero max expiry": {
			conf:    map[string]interface{}{"max_expiry": 0},
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			genesis := map[string]interface{}{}
			if tc.conf != nil {
				genesis["conf"] = map[string]interface{}{packageName: tc.conf}
			}
			raw, err := json.Marshal(genesis)
			assert.Nil(t, err)
			var opts custody.Options
			assert.Nil(t, json.Unmarshal(raw, &opts))

			db := store.MemStore()
			if err := (Initializer{}).FromGenesis(opts, db); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			conf, err := LoadConfiguration(db)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, conf)
		})
	}
}
