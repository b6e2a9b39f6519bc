package poolparse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/franco-bianco/poolsniper/raydium"
)

// The program logs a debug-formatted struct: `{ nonce: 254, open_time: 1700000000, ... }`.
var bareKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// InitLog is the payload of the initialize2 log line.
type InitLog struct {
	Nonce          uint64  `json:"nonce"`
	OpenTime       *uint64 `json:"open_time"`
	InitPcAmount   uint64  `json:"init_pc_amount"`
	InitCoinAmount uint64  `json:"init_coin_amount"`
}

// FindLogEntry returns the first log line containing marker.
func FindLogEntry(logs []string, marker string) (string, bool) {
	for _, line := range logs {
		if strings.Contains(line, marker) {
			return line, true
		}
	}
	return "", false
}

// RepairRelaxedJSON quotes the bare object keys of a debug-formatted struct.
func RepairRelaxedJSON(fragment string) string {
	return bareKey.ReplaceAllString(fragment, `$1"$2":`)
}

// ParseInitLog extracts and decodes the initialize2 payload from a log line.
func ParseInitLog(line string) (*InitLog, error) {
	start := strings.IndexByte(line, '{')
	if start < 0 {
		return nil, fmt.Errorf("%w: no object in %q", ErrMalformedInitLog, line)
	}

	var entry InitLog
	if err := json.Unmarshal([]byte(RepairRelaxedJSON(line[start:])), &entry); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInitLog, err)
	}
	if entry.OpenTime == nil {
		return nil, ErrMissingOpenTime
	}
	return &entry, nil
}

func extractOpenTime(logs []string) (uint64, error) {
	line, ok := FindLogEntry(logs, raydium.InitLogMarker)
	if !ok {
		return 0, stepErr("init log", ErrMissingInitLog)
	}
	entry, err := ParseInitLog(line)
	if err != nil {
		return 0, stepErr("init log", err)
	}
	return *entry.OpenTime, nil
}
