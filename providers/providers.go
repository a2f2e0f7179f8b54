/*
Copyright (c) the aprsbot authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package providers defines the boundary between the bot core and the
third-party services it consults. Every provider call returns a typed
*Error whose Kind drives the user-visible failure text: provider
outages retry once and then surface as "service unavailable", disabled
features say so, semantic misses explain themselves. Providers never
touch the APRS-IS socket.
*/
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// Kind classifies a provider failure.
type Kind int

// Failure classes.
const (
	KindInternal Kind = iota
	KindTransport
	KindFormat
	KindSemantic
	KindProvider
	KindDisabled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindFormat:
		return "format"
	case KindSemantic:
		return "semantic"
	case KindProvider:
		return "provider"
	case KindDisabled:
		return "disabled"
	}
	return "internal"
}

// Error is the typed failure all providers return.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err into a typed provider error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a typed provider error from a format string.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure class, KindInternal when err carries
// none.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// DefaultTimeout bounds one provider HTTP round trip.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient returns the client providers share: short timeout, no
// redirect surprises.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// GetJSON fetches url and decodes the response body into out. The call
// is retried once on transport or 5xx failure, then fails with a
// provider error. 4xx does not retry.
func GetJSON(ctx context.Context, client *http.Client, op, url string, out any) error {
	body, err := getBody(ctx, client, op, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return E(KindFormat, op, err)
	}
	return nil
}

// GetText fetches url and returns the raw body with the same retry
// policy as GetJSON.
func GetText(ctx context.Context, client *http.Client, op, url string) (string, error) {
	body, err := getBody(ctx, client, op, url, "")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func getBody(ctx context.Context, client *http.Client, op, url, accept string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(E(KindInternal, op, err))
			}
			if accept != "" {
				req.Header.Set("Accept", accept)
			}
			resp, err := client.Do(req)
			if err != nil {
				return E(KindTransport, op, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return Errorf(KindProvider, op, "status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(Errorf(KindProvider, op, "status %d", resp.StatusCode))
			}
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return E(KindTransport, op, err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2), // the original call plus one retry
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	return body, err
}
