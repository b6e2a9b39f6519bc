package poolparse

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// Failed reports whether the transaction carries a non-null execution error.
func Failed(meta *rpc.ParsedTransactionMeta) bool {
	return meta != nil && meta.Err != nil
}

// isPartiallyDecoded reports whether the node returned raw accounts and data
// instead of a parsed payload, which it does for programs it does not know.
func isPartiallyDecoded(ix *rpc.ParsedInstruction) bool { return ix.Parsed == nil }

// Token program instruction variants read from inner instructions.
type (
	TokenInstruction interface{ instructionType() string }

	Transfer struct {
		Source      string
		Destination string
		Authority   string
		Amount      string
	}

	MintTo struct {
		Mint          string
		Account       string
		MintAuthority string
		Amount        string
	}

	InitializeMint struct {
		Mint     string
		Decimals uint8
	}

	OtherInstruction struct {
		Type string
	}
)

func (Transfer) instructionType() string           { return "transfer" }
func (MintTo) instructionType() string             { return "mintTo" }
func (InitializeMint) instructionType() string     { return "initializeMint" }
func (o OtherInstruction) instructionType() string { return o.Type }

type parsedEnvelope struct {
	Type string          `json:"type"`
	Info json.RawMessage `json:"info"`
}

// DecodeInstruction maps a fully parsed token instruction onto its variant. Partially
// decoded instructions, programs whose parsed payload is not an object (memo) and
// unknown types decode to OtherInstruction.
func DecodeInstruction(ix *rpc.ParsedInstruction) (TokenInstruction, error) {
	if isPartiallyDecoded(ix) {
		return OtherInstruction{}, nil
	}
	raw, err := json.Marshal(ix.Parsed)
	if err != nil {
		return OtherInstruction{}, nil
	}
	var env parsedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return OtherInstruction{}, nil
	}

	switch env.Type {
	case "transfer":
		var info struct {
			Source      string `json:"source"`
			Destination string `json:"destination"`
			Authority   string `json:"authority"`
			Amount      string `json:"amount"`
		}
		if err := json.Unmarshal(env.Info, &info); err != nil {
			return nil, fmt.Errorf("transfer info: %w", err)
		}
		return Transfer(info), nil
	case "transferChecked":
		var info struct {
			Source      string `json:"source"`
			Destination string `json:"destination"`
			Authority   string `json:"authority"`
			TokenAmount struct {
				Amount string `json:"amount"`
			} `json:"tokenAmount"`
		}
		if err := json.Unmarshal(env.Info, &info); err != nil {
			return nil, fmt.Errorf("transferChecked info: %w", err)
		}
		return Transfer{
			Source:      info.Source,
			Destination: info.Destination,
			Authority:   info.Authority,
			Amount:      info.TokenAmount.Amount,
		}, nil
	case "mintTo":
		var info struct {
			Mint          string `json:"mint"`
			Account       string `json:"account"`
			MintAuthority string `json:"mintAuthority"`
			Amount        string `json:"amount"`
		}
		if err := json.Unmarshal(env.Info, &info); err != nil {
			return nil, fmt.Errorf("mintTo info: %w", err)
		}
		return MintTo(info), nil
	case "initializeMint", "initializeMint2":
		var info struct {
			Mint     string `json:"mint"`
			Decimals uint8  `json:"decimals"`
		}
		if err := json.Unmarshal(env.Info, &info); err != nil {
			return nil, fmt.Errorf("%s info: %w", env.Type, err)
		}
		return InitializeMint(info), nil
	default:
		return OtherInstruction{Type: env.Type}, nil
	}
}
