package provider

import (
	"context"
	"fmt"
	"strings"
)

// Probe checks a single credential. A nil error means the key is usable.
type Probe func(ctx context.Context, key string) error

// RejectedKey records why a candidate was skipped. Only the masked key is kept.
type RejectedKey struct {
	Index  int
	Masked string
	Err    error
}

// Selection is the outcome of SelectKey.
type Selection struct {
	Key      string
	Index    int
	Rejected []RejectedKey
}

// SelectKey tries the candidates in order and returns the first one the probe
// accepts. Blank candidates are skipped. When none is accepted the error wraps
// ErrKeysExhausted and the selection still lists every rejection.
func SelectKey(ctx context.Context, candidates []string, probe Probe) (Selection, error) {
	var sel Selection
	for i, raw := range candidates {
		if err := ctx.Err(); err != nil {
			return sel, err
		}
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}

		err := probe(ctx, key)
		if err == nil {
			sel.Key = key
			sel.Index = i
			return sel, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sel, ctxErr
		}
		sel.Rejected = append(sel.Rejected, RejectedKey{Index: i, Masked: MaskKey(key), Err: err})
	}
	return sel, fmt.Errorf("%w: %d candidate(s) rejected", ErrKeysExhausted, len(sel.Rejected))
}

// MaskKey shows only the last four characters of a credential.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 4 {
		return "****"
	}
	return "..." + key[len(key)-4:]
}
