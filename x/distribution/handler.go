package distribution

import (
	"strconv"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/x"
)

// RegisterRoutes registers handlers for distribution message processing.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, cash CashController, tokens TokenController) {
	bucket := NewConfigBucket()
	r.Handle(pathInitializeMsg, &initializeHandler{
		auth:   auth,
		bucket: bucket,
	})
	r.Handle(pathUpdateRecipientsMsg, &updateRecipientsHandler{
		auth:   auth,
		bucket: bucket,
	})
	r.Handle(pathDistributeNativeMsg, &distributeNativeHandler{
		auth:   auth,
		bucket: bucket,
		ctrl:   cash,
	})
	r.Handle(pathDistributeTokenMsg, &distributeTokenHandler{
		auth:   auth,
		bucket: bucket,
		ctrl:   tokens,
	})
}

type initializeHandler struct {
	auth   x.Authenticator
	bucket ConfigBucket
}

var _ weave.Handler = (*initializeHandler)(nil)

func (h *initializeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver creates the config and returns its address as the result data.
func (h *initializeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, authority, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	key, err := h.bucket.Create(db, authority, msg.Recipients, msg.Percentages)
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{
		Data: key,
		Tags: []weave.Tag{{Key: "config", Value: key.String()}},
	}, nil
}

func (h *initializeHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*InitializeMsg, weave.Address, error) {
	var msg InitializeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	authority, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	key, _, err := ConfigAddress(authority)
	if err != nil {
		return nil, nil, err
	}
	if ok, err := h.bucket.Has(db, key); err != nil {
		return nil, nil, err
	} else if ok {
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "config of %s", authority)
	}
	return &msg, authority, nil
}

type updateRecipientsHandler struct {
	auth   x.Authenticator
	bucket ConfigBucket
}

var _ weave.Handler = (*updateRecipientsHandler)(nil)

func (h *updateRecipientsHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h *updateRecipientsHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, signer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.bucket.Update(db, signer, msg.ConfigID, msg.Recipients, msg.Percentages); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{
		Tags: []weave.Tag{{Key: "config", Value: msg.ConfigID.String()}},
	}, nil
}

func (h *updateRecipientsHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*UpdateRecipientsMsg, weave.Address, error) {
	var msg UpdateRecipientsMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	c, err := h.bucket.Resolve(db, msg.ConfigID)
	if err != nil {
		return nil, nil, err
	}
	if err := validateAuthority(c, signer); err != nil {
		return nil, nil, err
	}
	return &msg, signer, nil
}

type distributeNativeHandler struct {
	auth   x.Authenticator
	bucket ConfigBucket
	ctrl   CashController
}

var _ weave.Handler = (*distributeNativeHandler)(nil)

func (h *distributeNativeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h *distributeNativeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, c, payer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	shares, err := DistributeNative(db, h.ctrl, c, payer, msg.Amount, msg.Destinations[:])
	if err != nil {
		return nil, err
	}
	return distributionResult(msg.ConfigID, msg.Amount, shares), nil
}

func (h *distributeNativeHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*DistributeNativeMsg, *Config, weave.Address, error) {
	var msg DistributeNativeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	payer, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := h.bucket.Resolve(db, msg.ConfigID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, c, payer, nil
}

type distributeTokenHandler struct {
	auth   x.Authenticator
	bucket ConfigBucket
	ctrl   TokenController
}

var _ weave.Handler = (*distributeTokenHandler)(nil)

func (h *distributeTokenHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h *distributeTokenHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, c, payer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	shares, err := DistributeToken(db, h.ctrl, c, payer, msg.Source, msg.Mint, msg.Amount, msg.Destinations[:])
	if err != nil {
		return nil, err
	}
	res := distributionResult(msg.ConfigID, msg.Amount, shares)
	res.Tags = append(res.Tags, weave.Tag{Key: "mint", Value: msg.Mint})
	return res, nil
}

func (h *distributeTokenHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*DistributeTokenMsg, *Config, weave.Address, error) {
	var msg DistributeTokenMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	payer, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := h.bucket.Resolve(db, msg.ConfigID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, c, payer, nil
}

// distributionResult reports the amount paid out. The remainder is what
// stays with the payer.
func distributionResult(configID weave.Address, amount uint64, shares []uint64) *weave.DeliverResult {
	var paid uint64
	for _, s := range shares {
		paid += s
	}
	return &weave.DeliverResult{
		Log: "distributed " + strconv.FormatUint(paid, 10) + " of " + strconv.FormatUint(amount, 10),
		Tags: []weave.Tag{
			{Key: "config", Value: configID.String()},
			{Key: "paid", Value: strconv.FormatUint(paid, 10)},
			{Key: "remainder", Value: strconv.FormatUint(amount-paid, 10)},
		},
	}
}
