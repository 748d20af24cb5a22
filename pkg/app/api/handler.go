package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	apperrors "github.com/lpbridge/middleware/pkg/app/errors"
	apphttp "github.com/lpbridge/middleware/pkg/app/http"
	"github.com/lpbridge/middleware/pkg/chain"
	"github.com/lpbridge/middleware/pkg/orchestrator"
	"github.com/lpbridge/middleware/pkg/record"
	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/token"
	"github.com/lpbridge/middleware/pkg/transfer"
)

type handler struct {
	orch    *orchestrator.Orchestrator
	session *orchestrator.Session
	quoter  orchestrator.Quoter
	records *record.Store
	reg     *registry.Registry
	clients map[int64]*chain.Client
	db      *bun.DB
	logger  *zap.Logger
}

func newHandler(
	orch *orchestrator.Orchestrator,
	session *orchestrator.Session,
	quoter orchestrator.Quoter,
	records *record.Store,
	reg *registry.Registry,
	clients map[int64]*chain.Client,
	db *bun.DB,
	logger *zap.Logger,
) *handler {
	return &handler{
		orch:    orch,
		session: session,
		quoter:  quoter,
		records: records,
		reg:     reg,
		clients: clients,
		db:      db,
		logger:  logger,
	}
}

type transferBody struct {
	TokenSymbol string `json:"tokenSymbol"`
	Amount      string `json:"amount"`
	FromChainID int64  `json:"fromChainId"`
	ToChainID   int64  `json:"toChainId"`
	Receiver    string `json:"receiver"`
}

func (b *transferBody) validate() error {
	switch {
	case b.TokenSymbol == "":
		return apperrors.BadRequestError(nil, "tokenSymbol is required")
	case b.Amount == "":
		return apperrors.BadRequestError(nil, "amount is required")
	case b.FromChainID == 0 || b.ToChainID == 0:
		return apperrors.BadRequestError(nil, "fromChainId and toChainId are required")
	case b.FromChainID == b.ToChainID:
		return apperrors.BadRequestError(nil, "fromChainId and toChainId must differ")
	}
	return nil
}

// ready reports whether the service can serve transfers: database reachable
// and at least one chain client configured.
func (h *handler) ready(w http.ResponseWriter, r *http.Request) error {
	if err := h.db.PingContext(r.Context()); err != nil {
		return apperrors.DependencyError(err, "database unavailable")
	}
	if len(h.clients) == 0 {
		return apperrors.DependencyError(nil, "no chain clients")
	}
	return apphttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// quote computes a fee breakdown without touching the transfer lifecycle.
func (h *handler) quote(w http.ResponseWriter, r *http.Request) error {
	var body transferBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return apperrors.BadRequestError(err, "invalid request body")
	}
	if err := body.validate(); err != nil {
		return err
	}

	amount, err := decimalFromBody(body.Amount)
	if err != nil {
		return err
	}

	q, err := h.quoter.Quote(r.Context(), &transfer.Request{
		Amount:        amount,
		TokenSymbol:   body.TokenSymbol,
		SourceChainID: body.FromChainID,
		DestChainID:   body.ToChainID,
	})
	if err != nil {
		return apperrors.BadRequestError(err, err.Error())
	}

	return apphttp.WriteJSON(w, http.StatusOK, quoteView(q))
}

// initiate starts a transfer. The response is the accepted state; the
// transfer itself runs in the background and lands in the record store on
// completion.
func (h *handler) initiate(w http.ResponseWriter, r *http.Request) error {
	var body transferBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return apperrors.BadRequestError(err, "invalid request body")
	}
	if err := body.validate(); err != nil {
		return err
	}
	if !common.IsHexAddress(body.Receiver) {
		return apperrors.BadRequestError(nil, "receiver is not a valid address")
	}

	dep := h.reg.Deployment(body.TokenSymbol, body.FromChainID)
	if dep == nil {
		return apperrors.BadRequestError(nil, "token not deployed on source chain")
	}

	if err := h.loadSessionContext(r, dep, body.FromChainID); err != nil {
		return err
	}

	if err := h.orch.SetRoute(body.TokenSymbol, body.FromChainID, body.ToChainID, common.HexToAddress(body.Receiver)); err != nil {
		if errors.Is(err, orchestrator.ErrTransferInFlight) {
			return apperrors.LockedError(err, "a transfer is already in flight")
		}
		return apperrors.GeneralError(err)
	}

	verrs, err := h.orch.UpdateAmount(body.Amount)
	if err != nil {
		return apperrors.GeneralError(err)
	}
	if !verrs.Empty() {
		return apperrors.BadRequestError(nil, verrs.String())
	}

	go h.runTransfer()

	return apphttp.WriteJSON(w, http.StatusAccepted, map[string]any{
		"state":      h.orch.State(),
		"canDismiss": h.orch.CanDismiss(),
	})
}

// runTransfer executes the pipeline detached from the HTTP request; the
// exit watch alone can outlive any sane request deadline.
func (h *handler) runTransfer() {
	rec, err := h.orch.Execute(context.Background())
	if err != nil {
		h.logger.Error("Transfer execution failed", zap.Error(err))
		return
	}
	h.logger.Info("Transfer recorded", zap.String("id", rec.ID))
}

func (h *handler) loadSessionContext(r *http.Request, dep *registry.Deployment, fromChainID int64) error {
	client := h.clients[fromChainID]
	if client == nil {
		return apperrors.BadRequestError(nil, "unsupported source chain")
	}

	balance, err := client.Balance(r.Context(), dep, h.session.UserAddress)
	if err != nil {
		return apperrors.DependencyError(err, "failed to load balance")
	}

	h.session.SetBounds(dep.MinCap, dep.MaxCap)
	h.session.SetBalance(balance)
	return nil
}

// state reports the live lifecycle state of the orchestrator.
func (h *handler) state(w http.ResponseWriter, _ *http.Request) error {
	resp := map[string]any{
		"state":      h.orch.State(),
		"canDismiss": h.orch.CanDismiss(),
	}
	if q := h.orch.Quote(); q != nil {
		resp["quote"] = quoteView(q)
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

// reset returns the orchestrator to Idle after a completed or errored run.
func (h *handler) reset(w http.ResponseWriter, _ *http.Request) error {
	if err := h.orch.Reset(); err != nil {
		if errors.Is(err, orchestrator.ErrTransferInFlight) {
			return apperrors.LockedError(err, "a transfer is in flight")
		}
		return apperrors.BadRequestError(err, err.Error())
	}
	return apphttp.WriteJSON(w, http.StatusOK, map[string]any{"state": h.orch.State()})
}

// list returns receipts for recent transfers, newest first.
func (h *handler) list(w http.ResponseWriter, r *http.Request) error {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	records, err := h.records.List(r.Context(), limit, offset)
	if err != nil {
		return apperrors.GeneralError(err)
	}

	receipts := make([]*record.Receipt, 0, len(records))
	for _, rec := range records {
		receipts = append(receipts, record.BuildReceipt(rec, h.reg))
	}
	return apphttp.WriteJSON(w, http.StatusOK, receipts)
}

// get returns the receipt for one transfer.
func (h *handler) get(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	rec, err := h.records.Get(r.Context(), id)
	if errors.Is(err, record.ErrNotFound) {
		return apperrors.ResourceNotFoundError(err, "transfer not found")
	}
	if err != nil {
		return apperrors.GeneralError(err)
	}
	return apphttp.WriteJSON(w, http.StatusOK, record.BuildReceipt(rec, h.reg))
}

func quoteView(q *transfer.FeeQuote) map[string]string {
	return map[string]string{
		"lpFee":          q.LPFee.String(),
		"transactionFee": q.TransactionFee.String(),
		"rewardAmount":   q.RewardAmount.String(),
		"amountToGet":    q.AmountToGet.String(),
		"feePercentage":  q.FeePercentage.String(),
	}
}

func decimalFromBody(raw string) (decimal.Decimal, error) {
	amount, err := token.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, apperrors.BadRequestError(err, "amount is not a valid decimal")
	}
	return amount, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
