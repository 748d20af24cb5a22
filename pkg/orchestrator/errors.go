package orchestrator

import (
	"errors"
	"fmt"
)

// ErrorKind classifies where in the pipeline a transfer failed.
type ErrorKind string

const (
	KindValidation ErrorKind = "VALIDATION"
	KindQuote      ErrorKind = "QUOTE"
	KindGate       ErrorKind = "GATE"
	KindWallet     ErrorKind = "WALLET"
	KindChain      ErrorKind = "CHAIN"
	KindBackend    ErrorKind = "BACKEND"
	KindTimeout    ErrorKind = "TIMEOUT"
)

// ErrTransferInFlight is returned when Execute is called while a transfer
// is already running.
var ErrTransferInFlight = errors.New("a transfer is already in flight")

// ErrNoQuote is returned when Execute is called without a current fee
// quote.
var ErrNoQuote = errors.New("no fee quote for the current amount")

// ErrQuoteStale is returned when the amount changed while a quote was being
// computed; the result is discarded.
var ErrQuoteStale = errors.New("amount changed during quote computation")

// ErrUserRejected is returned when the user declined the deposit signing
// prompt. The transfer returns to Idle and can be re-attempted.
var ErrUserRejected = errors.New("user rejected the deposit")

// StageError wraps a pipeline failure with the stage it occurred in and its
// classification.
type StageError struct {
	Stage State
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
