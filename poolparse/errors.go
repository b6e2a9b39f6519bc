package poolparse

import (
	"errors"
	"fmt"
)

// ErrNotPoolCreation means the transaction touched the AMM but minted no LP supply.
var ErrNotPoolCreation = errors.New("not a pool creation transaction")

// ErrInsufficientData is matched by every ExtractError.
var ErrInsufficientData = errors.New("insufficient data to build pool descriptor")

var (
	ErrNoPoolInstruction     = errors.New("no instruction for the pool program")
	ErrMissingAccounts       = errors.New("pool instruction has too few accounts")
	ErrBadAccount            = errors.New("invalid account address")
	ErrMissingInitializeMint = errors.New("lp initializeMint not found")
	ErrMissingBaseTransfer   = errors.New("base vault transfer not found")
	ErrMissingQuoteTransfer  = errors.New("quote vault transfer not found")
	ErrMissingInitLog        = errors.New("init_pc_amount log entry not found")
	ErrMalformedInitLog      = errors.New("malformed initialize log payload")
	ErrMissingOpenTime       = errors.New("open_time missing from initialize log")
	ErrMissingBaseBalance    = errors.New("base mint pre token balance not found")
	ErrMissingQuoteBalance   = errors.New("quote mint pre token balance not found")
	ErrBadAmount             = errors.New("invalid token amount")
	ErrMissingMeta           = errors.New("transaction meta missing")
	ErrMissingMessage        = errors.New("transaction message missing")
)

// ExtractError records which extraction step failed.
type ExtractError struct {
	Step string
	Err  error
}

func (e *ExtractError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *ExtractError) Unwrap() error { return e.Err }

func (e *ExtractError) Is(target error) bool { return target == ErrInsufficientData }

func stepErr(step string, err error) error { return &ExtractError{Step: step, Err: err} }
