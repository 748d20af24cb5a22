// Package orchestrator drives a cross-chain transfer end to end: amount
// validation, fee quoting, the pre-deposit feasibility gate, the
// source-chain deposit and its confirmation, and the watch for the
// destination-chain exit. One orchestrator runs one transfer at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/internal/metrics"
	"github.com/lpbridge/middleware/pkg/exitwatch"
	"github.com/lpbridge/middleware/pkg/token"
	"github.com/lpbridge/middleware/pkg/transfer"
	"github.com/lpbridge/middleware/pkg/validation"
	"github.com/lpbridge/middleware/pkg/wallet"
)

// Quoter computes the fee breakdown for a request.
type Quoter interface {
	Quote(ctx context.Context, req *transfer.Request) (*transfer.FeeQuote, error)
}

// GateChecker asks whether a deposit would currently succeed.
type GateChecker interface {
	Check(ctx context.Context, req *transfer.Request, user common.Address) (*transfer.Verdict, error)
}

// DepositSubmitter broadcasts the deposit and waits for its confirmation.
type DepositSubmitter interface {
	Submit(ctx context.Context, req *transfer.Request, contract common.Address) (common.Hash, error)
	WaitConfirmed(ctx context.Context, srcChainID int64, hash common.Hash) (*transfer.DepositReceipt, error)
}

// ExitWatcher detects and confirms the destination-chain exit.
type ExitWatcher interface {
	AwaitExitHash(ctx context.Context, depositHash common.Hash, fromChainID int64) (common.Hash, error)
	ConfirmExit(ctx context.Context, confirmer exitwatch.Confirmer, exitHash common.Hash, depth uint64) (*transfer.ExitReceipt, error)
}

// RecordStore persists completed transfer records.
type RecordStore interface {
	Save(ctx context.Context, rec *transfer.Record) error
}

// Config bundles the orchestrator's collaborators.
type Config struct {
	Session           *Session
	Quoter            Quoter
	Gate              GateChecker
	Submitter         DepositSubmitter
	Watcher           ExitWatcher
	Confirmers        map[int64]exitwatch.Confirmer
	Records           RecordStore
	ConfirmationDepth uint64
	OnTransition      func(from, to State)
	Logger            *zap.Logger
}

// Orchestrator owns the lifecycle of a single transfer.
type Orchestrator struct {
	machine   *Machine
	session   *Session
	quoter    Quoter
	gate      GateChecker
	submitter DepositSubmitter
	watcher   ExitWatcher

	confirmers        map[int64]exitwatch.Confirmer
	records           RecordStore
	confirmationDepth uint64
	logger            *zap.Logger

	now   func() time.Time
	newID func() string

	mu         sync.Mutex
	req        *transfer.Request
	amountText string
	quote      *transfer.FeeQuote
	revision   uint64
	executing  bool
}

// New creates an orchestrator in the Idle state.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		machine:           NewMachine(cfg.OnTransition),
		session:           cfg.Session,
		quoter:            cfg.Quoter,
		gate:              cfg.Gate,
		submitter:         cfg.Submitter,
		watcher:           cfg.Watcher,
		confirmers:        cfg.Confirmers,
		records:           cfg.Records,
		confirmationDepth: cfg.ConfirmationDepth,
		logger:            cfg.Logger,
		now:               time.Now,
		newID:             uuid.NewString,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.machine.Current() }

// CanDismiss reports whether the transfer can be abandoned right now.
func (o *Orchestrator) CanDismiss() bool { return o.machine.Current().Dismissible() }

// SetRoute selects the token and chain pair for the next transfer. Any
// existing quote is invalidated.
func (o *Orchestrator) SetRoute(tokenSymbol string, srcChainID, dstChainID int64, receiver common.Address) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.executing {
		return ErrTransferInFlight
	}

	o.req = &transfer.Request{
		TokenSymbol:   tokenSymbol,
		SourceChainID: srcChainID,
		DestChainID:   dstChainID,
		Receiver:      receiver,
	}
	o.amountText = ""
	o.quote = nil
	o.revision++
	return nil
}

// UpdateAmount records a new amount, invalidates the current quote and
// validates synchronously. The returned set is empty when the amount is
// acceptable.
func (o *Orchestrator) UpdateAmount(text string) (validation.ErrorSet, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.executing {
		return nil, ErrTransferInFlight
	}
	if o.req == nil {
		return nil, fmt.Errorf("no route selected")
	}

	o.amountText = text
	o.quote = nil
	o.revision++

	if amount, err := decimal.NewFromString(text); err == nil {
		o.req.Amount = amount
	} else {
		o.req.Amount = decimal.Zero
	}

	return validation.ValidateAmount(text, o.session.Bounds, o.session.Balance), nil
}

// Quote returns the current fee quote, or nil when none has been computed
// for the current amount.
func (o *Orchestrator) Quote() *transfer.FeeQuote {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.quote
}

// RefreshQuote computes a fee quote for the current request. If the amount
// changes while the quote is being computed the result is discarded and
// ErrQuoteStale returned.
func (o *Orchestrator) RefreshQuote(ctx context.Context) (*transfer.FeeQuote, error) {
	o.mu.Lock()
	if o.req == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("no route selected")
	}
	req := *o.req
	rev := o.revision
	o.mu.Unlock()

	q, err := o.quoter.Quote(ctx, &req)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.revision != rev {
		return nil, ErrQuoteStale
	}
	o.quote = q
	return q, nil
}

// Execute drives the transfer to completion. The user declining the
// signing prompt returns the machine to Idle with ErrUserRejected; any
// other failure lands in Errored with a StageError. Only one Execute may
// run at a time.
func (o *Orchestrator) Execute(ctx context.Context) (*transfer.Record, error) {
	o.mu.Lock()
	if o.executing {
		o.mu.Unlock()
		return nil, ErrTransferInFlight
	}
	if o.req == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("no route selected")
	}
	o.executing = true
	req := *o.req
	amountText := o.amountText
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.executing = false
		o.mu.Unlock()
	}()

	started := o.now()

	if err := o.machine.Transition(StateValidating); err != nil {
		return nil, err
	}

	if errs := validation.ValidateAmount(amountText, o.session.Bounds, o.session.Balance); !errs.Empty() {
		return nil, o.fail(KindValidation, StateValidating, fmt.Errorf("amount rejected: %s", errs))
	}

	quote, err := o.ensureQuote(ctx, &req)
	if err != nil {
		return nil, o.fail(KindQuote, StateValidating, err)
	}

	if err := o.machine.Transition(StatePreDepositChecking); err != nil {
		return nil, err
	}

	verdict, err := o.gate.Check(ctx, &req, o.session.UserAddress)
	if err != nil {
		return nil, o.fail(KindBackend, StatePreDepositChecking, err)
	}
	if verdict.Code != transfer.VerdictOK {
		return nil, o.fail(KindGate, StatePreDepositChecking,
			fmt.Errorf("deposit not feasible: %s (%s)", verdict.Code, verdict.Message))
	}

	if err := o.machine.Transition(StateDepositing); err != nil {
		return nil, err
	}

	depositHash, err := o.submitter.Submit(ctx, &req, verdict.DepositContract)
	if err != nil {
		if wallet.IsUserRejection(err) {
			return nil, o.rejected(err)
		}
		return nil, o.fail(KindWallet, StateDepositing, err)
	}

	if err := o.machine.Transition(StateDepositConfirming); err != nil {
		return nil, err
	}

	depositReceipt, err := o.submitter.WaitConfirmed(ctx, req.SourceChainID, depositHash)
	if err != nil {
		return nil, o.fail(KindChain, StateDepositConfirming, err)
	}

	if err := o.machine.Transition(StateExitWatching); err != nil {
		return nil, err
	}

	exitHash, err := o.watcher.AwaitExitHash(ctx, depositHash, req.SourceChainID)
	if err != nil {
		kind := KindBackend
		if isTimeout(err) {
			kind = KindTimeout
		}
		return nil, o.fail(kind, StateExitWatching, err)
	}

	if err := o.machine.Transition(StateExitConfirming); err != nil {
		return nil, err
	}

	confirmer := o.confirmers[req.DestChainID]
	if confirmer == nil {
		return nil, o.fail(KindChain, StateExitConfirming, fmt.Errorf("no client for chain %d", req.DestChainID))
	}
	exitReceipt, err := o.watcher.ConfirmExit(ctx, confirmer, exitHash, o.confirmationDepth)
	if err != nil {
		return nil, o.fail(KindChain, StateExitConfirming, err)
	}

	if err := o.machine.Transition(StateCompleted); err != nil {
		return nil, err
	}

	completedAt := o.now()
	rec := &transfer.Record{
		ID:          o.newID(),
		Request:     req,
		Quote:       *quote,
		Deposit:     *depositReceipt,
		Exit:        *exitReceipt,
		Elapsed:     completedAt.Sub(started),
		CompletedAt: completedAt,
	}

	if o.records != nil {
		if err := o.records.Save(ctx, rec); err != nil {
			o.logger.Warn("Record persistence failed", zap.String("id", rec.ID), zap.Error(err))
		}
	}

	metrics.TransfersTotal.WithLabelValues("completed").Inc()
	metrics.TransferDuration.Observe(rec.Elapsed.Seconds())

	o.logger.Info("Transfer completed",
		zap.String("id", rec.ID),
		zap.String("token", req.TokenSymbol),
		zap.String("amount", token.FormatFixed(req.Amount)),
		zap.String("deposit_hash", depositHash.Hex()),
		zap.String("exit_hash", exitHash.Hex()),
		zap.Duration("elapsed", rec.Elapsed))

	return rec, nil
}

// Reset returns the machine to Idle after a completed or errored transfer.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	if o.executing {
		o.mu.Unlock()
		return ErrTransferInFlight
	}
	o.quote = nil
	o.revision++
	o.mu.Unlock()

	if o.machine.Current() == StateIdle {
		return nil
	}
	return o.machine.Transition(StateIdle)
}

func (o *Orchestrator) ensureQuote(ctx context.Context, req *transfer.Request) (*transfer.FeeQuote, error) {
	o.mu.Lock()
	q := o.quote
	o.mu.Unlock()
	if q != nil {
		return q, nil
	}

	q, err := o.quoter.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.quote = q
	o.mu.Unlock()
	return q, nil
}

// fail moves to Errored and wraps the cause with its stage and kind.
func (o *Orchestrator) fail(kind ErrorKind, stage State, cause error) error {
	if err := o.machine.Transition(StateErrored); err != nil {
		o.logger.Error("Errored transition refused", zap.Error(err))
	}
	metrics.TransfersTotal.WithLabelValues("errored").Inc()
	metrics.ErrorsTotal.WithLabelValues("orchestrator", string(kind)).Inc()

	o.logger.Error("Transfer failed",
		zap.String("stage", string(stage)),
		zap.String("kind", string(kind)),
		zap.Error(cause))

	return &StageError{Stage: stage, Kind: kind, Err: cause}
}

// rejected handles the user declining the signing prompt: back to Idle,
// nothing on chain, the transfer can be re-attempted as-is.
func (o *Orchestrator) rejected(cause error) error {
	if err := o.machine.Transition(StateIdle); err != nil {
		o.logger.Error("Idle transition refused", zap.Error(err))
	}
	metrics.TransfersTotal.WithLabelValues("rejected").Inc()

	o.logger.Info("Deposit rejected by user", zap.Error(cause))
	return fmt.Errorf("%w: %v", ErrUserRejected, cause)
}

func isTimeout(err error) bool {
	return errors.Is(err, exitwatch.ErrExitTimeout) || errors.Is(err, context.DeadlineExceeded)
}
