package sigs

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

type router map[string]custody.Handler

func (r router) Handle(path string, h custody.Handler) { r[path] = h }

func TestBumpSequence(t *testing.T) {
	var (
		key1 = custodytest.NewAddress("key1")
		key2 = custodytest.NewAddress("key2")
	)

	cases := map[string]struct {
		// Before performing the test, initialize the database with given user data.
		InitData       []*UserData
		Msg            BumpSequenceMsg
		Signers        []custody.Address
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error
		// WantSequence sequence values should be tested for being one
		// smaller than expected. This is usual transaction processing
		// will additionally increment sequence. That is why handler
		// increments it by the requested value - 1.
		WantSequences []*UserData
	}{
		"great success": {
			InitData: []*UserData{
				{PubKey: key1, Sequence: 1},
				{PubKey: key2, Sequence: 9},
			},
			Signers: []custody.Address{key1},
			Msg:     BumpSequenceMsg{Increment: 2},
			WantSequences: []*UserData{
				{PubKey: key1, Sequence: 2},
				{PubKey: key2, Sequence: 9},
			},
		},
		"incrementing sequence of the main signer": {
			InitData: []*UserData{
				{PubKey: key1, Sequence: 1},
				{PubKey: key2, Sequence: 9},
			},
			Signers: []custody.Address{key2, key1},
			Msg:     BumpSequenceMsg{Increment: 2},
			WantSequences: []*UserData{
				{PubKey: key1, Sequence: 1},
				{PubKey: key2, Sequence: 10},
			},
		},
		"increment by one is a no-op": {
			InitData: []*UserData{{PubKey: key1, Sequence: 5}},
			Signers:  []custody.Address{key1},
			Msg:      BumpSequenceMsg{Increment: 1},
			WantSequences: []*UserData{
				{PubKey: key1, Sequence: 5},
			},
		},
		"too big increment": {
			InitData:       []*UserData{{PubKey: key1, Sequence: 5}},
			Signers:        []custody.Address{key1},
			Msg:            BumpSequenceMsg{Increment: maxSequenceIncrement + 1},
			WantCheckErr:   errors.ErrInvalidMsg,
			WantDeliverErr: errors.ErrInvalidMsg,
		},
		"sequence overflow": {
			InitData:       []*UserData{{PubKey: key1, Sequence: maxSequenceValue - 10}},
			Signers:        []custody.Address{key1},
			Msg:            BumpSequenceMsg{Increment: 100},
			WantCheckErr:   errors.ErrOverflow,
			WantDeliverErr: errors.ErrOverflow,
		},
		"unknown signer": {
			Signers:        []custody.Address{key1},
			Msg:            BumpSequenceMsg{Increment: 3},
			WantCheckErr:   errors.ErrNotFound,
			WantDeliverErr: errors.ErrNotFound,
		},
		"no signer": {
			Msg:            BumpSequenceMsg{Increment: 3},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			b := NewBucket()
			for _, u := range tc.InitData {
				if err := b.Save(db, u.PubKey, u); err != nil {
					t.Fatalf("cannot save user: %s", err)
				}
			}

			r := make(router)
			RegisterRoutes(r, &custodytest.Auth{Signers: tc.Signers})
			h := r[pathBumpSequenceMsg]
			info := custodytest.BlockInfo(t, 1)
			tx := &custodytest.Tx{Msg: &tc.Msg}

			cache := db.CacheWrap()
			if _, err := h.Check(context.TODO(), info, cache, tx); !tc.WantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			cache.Discard()
			if _, err := h.Deliver(context.TODO(), info, db, tx); !tc.WantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}

			for _, want := range tc.WantSequences {
				var got UserData
				if err := b.One(db, want.PubKey, &got); err != nil {
					t.Fatalf("cannot load user: %s", err)
				}
				if got.Sequence != want.Sequence {
					t.Errorf("want sequence %d, got %d", want.Sequence, got.Sequence)
				}
			}
		})
	}
}
