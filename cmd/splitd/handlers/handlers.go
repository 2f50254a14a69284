// Package handlers implements the HTTP API of the split daemon.
package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/x/cash"
	"github.com/iov-one/weave-splitter/x/distribution"
	"github.com/iov-one/weave-splitter/x/token"
	"github.com/rs/cors"
	"github.com/tendermint/tendermint/libs/log"
)

// Ledger is the state machine the HTTP API is exposing.
// It is implemented by app.Ledger.
type Ledger interface {
	ChainID() string
	LatestVersion() (weave.CommitID, error)
	Query(fn func(db weave.ReadOnlyKVStore) error) error
	CheckTx(ctx weave.Context, raw []byte) (*weave.CheckResult, error)
	DeliverTx(ctx weave.Context, raw []byte) (*weave.DeliverResult, weave.CommitID, error)
}

const (
	// maxTxSize limits the body of a transaction submission.
	maxTxSize = 64 << 10

	// bech32Prefix is the human readable part of addresses rendered in
	// bech32 form.
	bech32Prefix = "split"
)

// NewRouter returns a handler serving the whole API. Cross origin requests
// are allowed for given origins only. Every request carries given logger in
// its context.
func NewRouter(l Ledger, origins []string, logger log.Logger) http.Handler {
	rt := http.NewServeMux()
	rt.Handle("/info", &InfoHandler{Ledger: l})
	rt.Handle("/configs", &ConfigsHandler{Ledger: l})
	rt.Handle("/configs/", &ConfigDetailHandler{Ledger: l})
	rt.Handle("/wallets/", &WalletDetailHandler{Ledger: l})
	rt.Handle("/holdings/", &HoldingDetailHandler{Ledger: l})
	rt.Handle("/tx", &TxHandler{Ledger: l})
	rt.Handle("/", &DefaultHandler{})

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag"},
	})
	return withLogger(logger, c.Handler(rt))
}

func withLogger(logger log.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(weave.WithLogger(r.Context(), logger)))
	})
}

type InfoHandler struct {
	Ledger Ledger
}

func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id, err := h.Ledger.LatestVersion()
	if err != nil {
		JSONWeaveErr(w, r, err)
		return
	}
	JSONResp(w, r, http.StatusOK, struct {
		ChainID string   `json:"chain_id"`
		Height  int64    `json:"height"`
		Hash    hexbytes `json:"hash"`
		Version string   `json:"version"`
	}{
		ChainID: h.Ledger.ChainID(),
		Height:  id.Version,
		Hash:    id.Hash,
		Version: weave.Version(),
	})
}

// ConfigsHandler returns the config of the authority given as the query
// parameter. Without the parameter, configs are listed in key order.
type ConfigsHandler struct {
	Ledger Ledger
}

func (h *ConfigsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	raw := r.URL.Query().Get("authority")
	if raw == "" {
		h.list(w, r)
		return
	}
	authority, err := weave.ParseAddress(raw)
	if err != nil || authority.Validate() != nil {
		JSONErr(w, r, http.StatusBadRequest, "authority must be a valid address value.")
		return
	}

	var resp configResponse
	err = h.Ledger.Query(func(db weave.ReadOnlyKVStore) error {
		c, key, err := distribution.NewConfigBucket().ResolveByAuthority(db, authority)
		if err != nil {
			return err
		}
		resp = newConfigResponse(key, c)
		return nil
	})
	if err != nil {
		JSONWeaveErr(w, r, err)
		return
	}
	JSONCachedResp(w, r, resp)
}

// maxListedConfigs limits the size of a single config listing.
const maxListedConfigs = 100

func (h *ConfigsHandler) list(w http.ResponseWriter, r *http.Request) {
	var after []byte
	if raw := r.URL.Query().Get("after"); raw != "" {
		key, err := weave.ParseAddress(raw)
		if err != nil {
			JSONErr(w, r, http.StatusBadRequest, "after must be a valid address value.")
			return
		}
		after = key
	}

	resp := make([]configResponse, 0)
	err := h.Ledger.Query(func(db weave.ReadOnlyKVStore) error {
		var c distribution.Config
		return distribution.NewConfigBucket().Iterate(db, nil, &c, func(key []byte) error {
			if after != nil && bytes.Compare(key, after) <= 0 {
				return nil
			}
			if len(resp) == maxListedConfigs {
				return errListFull
			}
			// c is overwritten by the next iteration step.
			cpy, err := c.Copy()
			if err != nil {
				return err
			}
			resp = append(resp, newConfigResponse(weave.Address(key).Clone(), cpy))
			return nil
		})
	})
	if err != nil && err != errListFull {
		JSONWeaveErr(w, r, err)
		return
	}
	JSONCachedResp(w, r, resp)
}

var errListFull = errors.Wrap(errors.ErrHuman, "list full")

// ConfigDetailHandler returns the config stored under the address given as
// the last path chunk.
type ConfigDetailHandler struct {
	Ledger Ledger
}

func (h *ConfigDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	key, ok := addressFromPath(w, r)
	if !ok {
		return
	}

	var resp configResponse
	err := h.Ledger.Query(func(db weave.ReadOnlyKVStore) error {
		c, err := distribution.NewConfigBucket().Resolve(db, key)
		if err != nil {
			return err
		}
		resp = newConfigResponse(key, c)
		return nil
	})
	if err != nil {
		JSONWeaveErr(w, r, err)
		return
	}
	JSONCachedResp(w, r, resp)
}

type configResponse struct {
	ID          weave.Address   `json:"id"`
	Authority   weave.Address   `json:"authority"`
	Nonce       uint32          `json:"nonce"`
	Recipients  []weave.Address `json:"recipients"`
	Percentages []uint32        `json:"percentages"`
}

func newConfigResponse(key weave.Address, c *distribution.Config) configResponse {
	return configResponse{
		ID:          key,
		Authority:   c.Authority,
		Nonce:       c.Nonce,
		Recipients:  c.Addresses(),
		Percentages: c.Percentages(),
	}
}

// WalletDetailHandler returns the native balance of an address. An address
// that never received anything has a zero balance.
type WalletDetailHandler struct {
	Ledger Ledger
}

func (h *WalletDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	addr, ok := addressFromPath(w, r)
	if !ok {
		return
	}

	var wallet cash.Wallet
	err := h.Ledger.Query(func(db weave.ReadOnlyKVStore) error {
		found, err := cash.NewBucket().GetOrCreate(db, addr)
		if err != nil {
			return err
		}
		wallet = *found
		return nil
	})
	if err != nil {
		JSONWeaveErr(w, r, err)
		return
	}
	text, err := addr.Bech32(bech32Prefix)
	if err != nil {
		JSONWeaveErr(w, r, errors.Wrap(errors.ErrInput, err.Error()))
		return
	}
	JSONCachedResp(w, r, struct {
		Address weave.Address `json:"address"`
		Bech32  string        `json:"bech32"`
		Balance uint64        `json:"balance"`
	}{
		Address: addr,
		Bech32:  text,
		Balance: wallet.Balance,
	})
}

// HoldingDetailHandler returns the token holding account stored under the
// address given as the last path chunk.
type HoldingDetailHandler struct {
	Ledger Ledger
}

func (h *HoldingDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	addr, ok := addressFromPath(w, r)
	if !ok {
		return
	}

	var holding token.HoldingAccount
	err := h.Ledger.Query(func(db weave.ReadOnlyKVStore) error {
		acc, err := token.NewHoldingBucket().Get(db, addr)
		if err != nil {
			return err
		}
		holding = *acc
		return nil
	})
	if err != nil {
		JSONWeaveErr(w, r, err)
		return
	}
	JSONCachedResp(w, r, struct {
		Address weave.Address `json:"address"`
		token.HoldingAccount
	}{
		Address:        addr,
		HoldingAccount: holding,
	})
}

// TxHandler accepts a base64 encoded, signed transaction. The transaction
// is delivered, unless the check query parameter is set.
type TxHandler struct {
	Ledger Ledger
}

func (h *TxHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var input struct {
		Tx string `json:"tx"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTxSize)).Decode(&input); err != nil {
		JSONErr(w, r, http.StatusBadRequest, "Body must be a JSON object with a base64 encoded tx.")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(input.Tx)
	if err != nil || len(raw) == 0 {
		JSONErr(w, r, http.StatusBadRequest, "tx must be a base64 encoded value.")
		return
	}

	if check, _ := strconv.ParseBool(r.URL.Query().Get("check")); check {
		res, err := h.Ledger.CheckTx(r.Context(), raw)
		if err != nil {
			JSONWeaveErr(w, r, err)
			return
		}
		JSONResp(w, r, http.StatusOK, struct {
			Log string `json:"log,omitempty"`
		}{
			Log: res.Log,
		})
		return
	}

	res, id, err := h.Ledger.DeliverTx(r.Context(), raw)
	if err != nil {
		JSONWeaveErr(w, r, err)
		return
	}
	JSONResp(w, r, http.StatusOK, struct {
		Height int64       `json:"height"`
		Hash   hexbytes    `json:"hash"`
		Data   []byte      `json:"data,omitempty"`
		Log    string      `json:"log,omitempty"`
		Tags   []weave.Tag `json:"tags,omitempty"`
	}{
		Height: id.Version,
		Hash:   id.Hash,
		Data:   res.Data,
		Log:    res.Log,
		Tags:   res.Tags,
	})
}

// DefaultHandler is used to handle the request that no other handler wants.
type DefaultHandler struct{}

func (h *DefaultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	JSONErr(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	JSONErr(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	return false
}

// addressFromPath parses the last path chunk as an address. On failure an
// error response is written.
func addressFromPath(w http.ResponseWriter, r *http.Request) (weave.Address, bool) {
	chunk := lastChunk(r.URL.Path)
	if chunk == "" {
		JSONErr(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return nil, false
	}
	addr, err := weave.ParseAddress(chunk)
	if err != nil || addr.Validate() != nil {
		JSONErr(w, r, http.StatusBadRequest, "Path must end with a valid address value.")
		return nil, false
	}
	return addr, true
}

func lastChunk(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// JSONResp write content as JSON encoded response.
func JSONResp(w http.ResponseWriter, r *http.Request, code int, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		weave.GetLogger(r.Context()).Error("cannot JSON serialize response", "err", err)
		code = http.StatusInternalServerError
		b = []byte(`{"errors":["Internal Server Error"]}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// JSONCachedResp writes content as JSON encoded response together with an
// ETag of the body. If the client already has this version, no body is
// returned.
func JSONCachedResp(w http.ResponseWriter, r *http.Request, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		weave.GetLogger(r.Context()).Error("cannot JSON serialize response", "err", err)
		JSONErr(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(b))
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// JSONErr write single error as JSON encoded response.
func JSONErr(w http.ResponseWriter, r *http.Request, code int, errText string) {
	JSONResp(w, r, code, struct {
		Errors []string `json:"errors"`
	}{
		Errors: []string{errText},
	})
}

// JSONWeaveErr writes an error returned by the ledger. The registered code
// of the error is part of the response. Internal errors are redacted.
func JSONWeaveErr(w http.ResponseWriter, r *http.Request, err error) {
	code, text := errors.Info(err, false)
	var status int
	switch {
	case code == errors.InternalCode:
		weave.GetLogger(r.Context()).Error("ledger failure", "err", fmt.Sprintf("%+v", err))
		status = http.StatusInternalServerError
	case errors.ErrNotFound.Is(err):
		status = http.StatusNotFound
	case errors.ErrUnauthorized.Is(err):
		status = http.StatusUnauthorized
	case errors.ErrDatabase.Is(err), errors.ErrPanic.Is(err):
		status = http.StatusInternalServerError
	default:
		status = http.StatusBadRequest
	}
	JSONResp(w, r, status, struct {
		Code   uint32   `json:"code"`
		Errors []string `json:"errors"`
	}{
		Code:   code,
		Errors: []string{text},
	})
}

// hexbytes serialize into upper case hex, the same way addresses do.
type hexbytes []byte

func (b hexbytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(b)))
}

func (b *hexbytes) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	val, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*b = val
	return nil
}
