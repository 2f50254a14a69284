package cash

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store"
	"github.com/iov-one/weave-splitter/weavetest"
	"github.com/iov-one/weave-splitter/weavetest/assert"
)

func TestSendHandler(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()

	cases := map[string]struct {
		signer         weave.Condition
		msg            weave.Msg
		wantCheckErr   *errors.Error
		wantDeliverErr *errors.Error
		wantAlice      uint64
		wantBob        uint64
	}{
		"send coins": {
			signer:    alice,
			msg:       &SendMsg{Destination: bob.Address(), Amount: 250, Memo: "rent"},
			wantAlice: 750,
			wantBob:   250,
		},
		"unsigned": {
			msg:            &SendMsg{Destination: bob.Address(), Amount: 250},
			wantCheckErr:   errors.ErrUnauthorized,
			wantDeliverErr: errors.ErrUnauthorized,
			wantAlice:      1000,
		},
		"signer without funds": {
			signer:         bob,
			msg:            &SendMsg{Destination: alice.Address(), Amount: 1},
			wantDeliverErr: errors.ErrAmount,
			wantAlice:      1000,
		},
		"invalid message": {
			signer:         alice,
			msg:            &SendMsg{Destination: bob.Address()},
			wantCheckErr:   errors.ErrAmount,
			wantDeliverErr: errors.ErrAmount,
			wantAlice:      1000,
		},
		"wrong message type": {
			signer:         alice,
			msg:            &weavetest.Msg{RoutePath: "cash/send"},
			wantCheckErr:   errors.ErrType,
			wantDeliverErr: errors.ErrType,
			wantAlice:      1000,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController(NewBucket())
			assert.Nil(t, ctrl.IssueCoins(db, alice.Address(), 1000))

			auth := &weavetest.Auth{Signer: tc.signer}
			h := NewSendHandler(auth, ctrl)
			tx := &weavetest.Tx{Msg: tc.msg}

			cache := db.CacheWrap()
			if _, err := h.Check(context.Background(), cache, tx); !tc.wantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			cache.Discard()

			cache = db.CacheWrap()
			if _, err := h.Deliver(context.Background(), cache, tx); !tc.wantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			assert.Nil(t, cache.Write())

			got, err := ctrl.Balance(db, alice.Address())
			assert.Nil(t, err)
			assert.Equal(t, tc.wantAlice, got)
			got, err = ctrl.Balance(db, bob.Address())
			assert.Nil(t, err)
			assert.Equal(t, tc.wantBob, got)
		})
	}
}

func TestSendMsgValidate(t *testing.T) {
	long := make([]byte, maxMemoSize+1)
	for i := range long {
		long[i] = 'a'
	}
	cases := map[string]struct {
		msg        SendMsg
		wantFields map[string]*errors.Error
	}{
		"valid": {
			msg: SendMsg{Destination: weavetest.NewAddress(), Amount: 1},
			wantFields: map[string]*errors.Error{
				"Destination": nil,
				"Amount":      nil,
				"Memo":        nil,
			},
		},
		"everything wrong": {
			msg: SendMsg{Destination: weave.Address("x"), Memo: string(long)},
			wantFields: map[string]*errors.Error{
				"Destination": errors.ErrInput,
				"Amount":      errors.ErrAmount,
				"Memo":        errors.ErrInput,
			},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.msg.Validate()
			for field, want := range tc.wantFields {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}

func TestSendMsgRoundTrip(t *testing.T) {
	msg := SendMsg{Destination: weavetest.NewAddress(), Amount: 42, Memo: "hello"}
	raw, err := msg.Marshal()
	assert.Nil(t, err)

	var got SendMsg
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, msg, got)
}
