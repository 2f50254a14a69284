package token

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/x"
)

// RegisterRoutes will instantiate and register all handlers in this
// package. Only the issuer can register mints and issue tokens. When the
// issuer is nil anybody can register a mint and issuing is disabled.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, issuer weave.Address, control Controller) {
	r.Handle(RegisterTokenMsg{}.Path(), NewRegisterTokenHandler(auth, issuer))
	r.Handle(OpenHoldingMsg{}.Path(), NewOpenHoldingHandler(auth, control))
	r.Handle(TransferMsg{}.Path(), NewTransferHandler(auth, control))
	r.Handle(IssueMsg{}.Path(), NewIssueHandler(auth, issuer, control))
}

// NewRegisterTokenHandler returns a handler that registers new mints.
func NewRegisterTokenHandler(auth x.Authenticator, issuer weave.Address) weave.Handler {
	return &RegisterTokenHandler{
		auth:   auth,
		issuer: issuer,
		bucket: NewTokenInfoBucket(),
	}
}

type RegisterTokenHandler struct {
	auth   x.Authenticator
	bucket TokenInfoBucket
	issuer weave.Address
}

func (h *RegisterTokenHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h *RegisterTokenHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	info := TokenInfo{Name: msg.Name, SigFigs: msg.SigFigs}
	// Token can be registered only once and must not be updated.
	if err := h.bucket.Create(db, []byte(msg.Mint), &info); err != nil {
		return nil, errors.Wrapf(err, "mint %s", msg.Mint)
	}
	return &weave.DeliverResult{}, nil
}

func (h *RegisterTokenHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*RegisterTokenMsg, error) {
	var msg RegisterTokenMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if h.issuer != nil {
		if err := x.RequireAddress(ctx, h.auth, h.issuer); err != nil {
			return nil, err
		}
	}
	if ok, err := h.bucket.Has(db, []byte(msg.Mint)); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.Wrapf(errors.ErrDuplicate, "mint %s", msg.Mint)
	}
	return &msg, nil
}

// NewOpenHoldingHandler returns a handler that opens holding accounts for
// the main signer.
func NewOpenHoldingHandler(auth x.Authenticator, control Controller) weave.Handler {
	return &OpenHoldingHandler{auth: auth, control: control}
}

type OpenHoldingHandler struct {
	auth    x.Authenticator
	control Controller
}

func (h *OpenHoldingHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

// Deliver opens the account and returns its address as the result data.
func (h *OpenHoldingHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, owner, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	addr, err := h.control.Open(db, owner, msg.Mint)
	if err != nil {
		return nil, err
	}
	return &weave.DeliverResult{Data: addr}, nil
}

func (h *OpenHoldingHandler) validate(ctx weave.Context, tx weave.Tx) (*OpenHoldingMsg, weave.Address, error) {
	var msg OpenHoldingMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	owner, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	return &msg, owner, nil
}

// NewTransferHandler returns a handler that moves tokens owned by the main
// signer.
func NewTransferHandler(auth x.Authenticator, control Controller) weave.Handler {
	return &TransferHandler{auth: auth, control: control}
}

type TransferHandler struct {
	auth    x.Authenticator
	control Controller
}

func (h *TransferHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h *TransferHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, signer, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.Transfer(db, signer, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h *TransferHandler) validate(ctx weave.Context, tx weave.Tx) (*TransferMsg, weave.Address, error) {
	var msg TransferMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	return &msg, signer, nil
}

// NewIssueHandler returns a handler that lets the issuer create tokens.
func NewIssueHandler(auth x.Authenticator, issuer weave.Address, control Controller) weave.Handler {
	return &IssueHandler{auth: auth, issuer: issuer, control: control}
}

type IssueHandler struct {
	auth    x.Authenticator
	issuer  weave.Address
	control Controller
}

func (h *IssueHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h *IssueHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.Issue(db, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h *IssueHandler) validate(ctx weave.Context, tx weave.Tx) (*IssueMsg, error) {
	var msg IssueMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if h.issuer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "issuing disabled")
	}
	if err := x.RequireAddress(ctx, h.auth, h.issuer); err != nil {
		return nil, err
	}
	return &msg, nil
}
