package rugcheck

import "fmt"

type Outcome int

const (
	Accepted Outcome = iota
	RejectedBaseIsNativeToken
	RejectedAuthorityPresent
	RejectedLowBurn
	RejectedLowLiquidity
	RejectedConcentratedHolder
	RejectedOther
)

var outcomeNames = map[Outcome]string{
	Accepted:                   "accepted",
	RejectedBaseIsNativeToken:  "base_is_native_token",
	RejectedAuthorityPresent:   "authority_present",
	RejectedLowBurn:            "low_burn",
	RejectedLowLiquidity:       "low_liquidity",
	RejectedConcentratedHolder: "concentrated_holder",
	RejectedOther:              "other",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Verdict is the single result of one pipeline run.
type Verdict struct {
	Outcome Outcome
	Reason  string
	Err     error // set for RejectedOther
}

func (v Verdict) Accepted() bool { return v.Outcome == Accepted }

func (v Verdict) String() string {
	switch {
	case v.Err != nil:
		return fmt.Sprintf("%s: %v", v.Outcome, v.Err)
	case v.Reason != "":
		return fmt.Sprintf("%s: %s", v.Outcome, v.Reason)
	}
	return v.Outcome.String()
}

func accept() Verdict { return Verdict{Outcome: Accepted} }

func reject(o Outcome, format string, args ...any) Verdict {
	return Verdict{Outcome: o, Reason: fmt.Sprintf(format, args...)}
}

func failed(err error) Verdict {
	return Verdict{Outcome: RejectedOther, Err: err}
}
