// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package secrets resolves provider credentials for named accounts.
//
// The connector never owns secret material: it is handed account names and
// resolves {client_id, client_secret, region} through a backend chain, so the
// same feed code runs whether credentials come from the loaded configuration,
// the environment, or a mounted secrets file.
package secrets

import (
	"context"
	"errors"
	"fmt"
)

// ErrAccountNotFound is returned when no backend knows the account.
var ErrAccountNotFound = errors.New("secrets: account not found")

// Credentials holds the resolved credential set for one account.
// Immutable for the lifetime of a feed invocation.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Region       string
}

// Backend resolves credentials for a named account.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Lookup returns the credentials for the account, or ErrAccountNotFound.
	Lookup(ctx context.Context, account string) (Credentials, error)
}

// Resolver queries backends in order and returns the first match.
type Resolver struct {
	backends []Backend
}

// NewResolver creates a resolver over the given backends, queried in order.
func NewResolver(backends ...Backend) *Resolver {
	return &Resolver{backends: backends}
}

// Resolve returns credentials for the account from the first backend that
// knows it. All three properties must be present.
func (r *Resolver) Resolve(ctx context.Context, account string) (Credentials, error) {
	if account == "" {
		return Credentials{}, fmt.Errorf("secrets: account name is empty")
	}

	for _, backend := range r.backends {
		creds, err := backend.Lookup(ctx, account)
		if errors.Is(err, ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return Credentials{}, fmt.Errorf("secrets: backend %s: %w", backend.Name(), err)
		}
		if creds.ClientID == "" || creds.ClientSecret == "" || creds.Region == "" {
			return Credentials{}, fmt.Errorf("secrets: backend %s: incomplete credentials for account %s", backend.Name(), account)
		}
		return creds, nil
	}

	return Credentials{}, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
}
