package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// JSONLPublisher appends commands as JSON lines. Used for dry runs.
type JSONLPublisher struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

func NewJSONLPublisher(w io.Writer) *JSONLPublisher { return &JSONLPublisher{w: w} }

func OpenJSONLPublisher(path string) (*JSONLPublisher, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dry run file: %w", err)
	}
	return &JSONLPublisher{w: f, c: f}, nil
}

func (p *JSONLPublisher) Publish(_ context.Context, cmd *BuyCommand) error {
	line, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode buy command: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = p.w.Write(append(line, '\n'))
	return err
}

func (p *JSONLPublisher) Close() error {
	if p.c == nil {
		return nil
	}
	return p.c.Close()
}
