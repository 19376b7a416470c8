package provider

import (
	"context"
	"fmt"
	"time"
)

// Status is the provider-side processing state of an uploaded file.
type Status int

const (
	StatusProcessing Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "processing"
	}
}

// PollFunc reports the current status of a pending upload.
type PollFunc func(ctx context.Context) (Status, error)

// WaitReady polls until the upload is ready, failed, maxAttempts polls have
// been made, or ctx is done. It waits interval between polls.
func WaitReady(ctx context.Context, poll PollFunc, interval time.Duration, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for attempt := 1; ; attempt++ {
		status, err := poll(ctx)
		if err != nil {
			return err
		}
		switch status {
		case StatusReady:
			return nil
		case StatusFailed:
			return ErrUploadFailed
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w after %d attempts", ErrUploadTimeout, attempt)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
