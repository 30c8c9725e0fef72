// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/wallettrust/core/internal/retry"
)

// HTTPDelivery POSTs the payload to the webhook's target URL, reusing
// the same retry discipline the Chain Gateway uses for RPC calls —
// both are "retry an I/O call with exponential backoff."
type HTTPDelivery struct {
	client *http.Client
	policy retry.Policy
}

// NewHTTPDelivery builds a Delivery with a bounded per-attempt
// timeout.
func NewHTTPDelivery(timeout time.Duration) *HTTPDelivery {
	return &HTTPDelivery{
		client: &http.Client{Timeout: timeout},
		policy: retry.Default,
	}
}

// Deliver implements Delivery. A 2xx response is success; a 4xx other
// than 429 fails at once without retry; any other status or a network
// error is retried up to the policy's attempt limit.
func (d *HTTPDelivery) Deliver(ctx context.Context, url string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding webhook payload")
	}

	return d.policy.Do(ctx, classifyDeliveryErr, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return deliveryFatal{err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return err // network errors are retryable by default
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return deliveryFatal{fmt.Errorf("webhook receiver returned %d", resp.StatusCode)}
		}
		return fmt.Errorf("webhook receiver returned %d", resp.StatusCode)
	})
}

// deliveryFatal marks an error as non-retryable: a malformed request
// or a 4xx the receiver will never accept on resend.
type deliveryFatal struct{ err error }

func (e deliveryFatal) Error() string { return e.err.Error() }
func (e deliveryFatal) Unwrap() error { return e.err }

func classifyDeliveryErr(err error) retry.Outcome {
	if err == nil {
		return retry.Ok
	}
	var fatal deliveryFatal
	if errors.As(err, &fatal) {
		return retry.Fatal
	}
	return retry.Retryable
}
