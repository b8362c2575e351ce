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
	"os"
	"strings"
)

// EnvBackend resolves credentials from environment variables.
//
// Variable format, with the account name upper-cased and non-alphanumerics
// replaced by underscores:
//
//	GENESYSFEED_<ACCOUNT>_CLIENT_ID
//	GENESYSFEED_<ACCOUNT>_CLIENT_SECRET
//	GENESYSFEED_<ACCOUNT>_REGION
type EnvBackend struct{}

// NewEnvBackend creates a new environment variable backend.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

// Name identifies the backend in logs.
func (e *EnvBackend) Name() string {
	return "env"
}

// Lookup returns the credentials for the account, or ErrAccountNotFound if
// none of the variables are set.
func (e *EnvBackend) Lookup(_ context.Context, account string) (Credentials, error) {
	prefix := "GENESYSFEED_" + envKey(account) + "_"

	creds := Credentials{
		ClientID:     os.Getenv(prefix + "CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "CLIENT_SECRET"),
		Region:       os.Getenv(prefix + "REGION"),
	}

	if creds.ClientID == "" && creds.ClientSecret == "" && creds.Region == "" {
		return Credentials{}, ErrAccountNotFound
	}
	return creds, nil
}

// envKey normalizes an account name into an environment-variable fragment.
func envKey(account string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(account) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
