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

package secrets

import (
	"context"
)

// StaticBackend serves credentials from an in-memory map, typically built
// from the loaded configuration file (whose secret fields are ${ENV_VAR}
// expanded by the config loader).
type StaticBackend struct {
	accounts map[string]Credentials
}

// NewStaticBackend creates a backend over the given account map.
func NewStaticBackend(accounts map[string]Credentials) *StaticBackend {
	return &StaticBackend{accounts: accounts}
}

// Name identifies the backend in logs.
func (s *StaticBackend) Name() string {
	return "config"
}

// Lookup returns the credentials for the account, or ErrAccountNotFound.
func (s *StaticBackend) Lookup(_ context.Context, account string) (Credentials, error) {
	creds, ok := s.accounts[account]
	if !ok {
		return Credentials{}, ErrAccountNotFound
	}
	return creds, nil
}
