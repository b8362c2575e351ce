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

package genesys

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tombee/genesysfeed/internal/secrets"
	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// Session holds an OAuth2 client-credentials grant for one account and
// region. Tokens are fetched lazily and cached until Invalidate discards
// them, which the gateway does once when the provider answers 401 or 429.
type Session struct {
	region Region
	conf   *clientcredentials.Config
	base   *http.Client

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewSession builds a session from resolved account credentials. The base
// client carries the retry and logging transport and is also used for the
// token endpoint.
func NewSession(creds secrets.Credentials, base *http.Client) (*Session, error) {
	region, err := ResolveRegion(creds.Region)
	if err != nil {
		return nil, err
	}
	return &Session{
		region: region,
		conf: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     region.LoginURL(),
		},
		base: base,
	}, nil
}

// Region returns the session's resolved region.
func (s *Session) Region() Region {
	return s.region
}

// Token returns a bearer token, fetching a fresh one from the login host if
// none is cached.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.source == nil {
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, s.base)
		s.source = s.conf.TokenSource(tokenCtx)
	}
	source := s.source
	s.mu.Unlock()

	token, err := source.Token()
	if err != nil {
		return "", &apperrors.AuthError{
			Message: "token request failed for " + s.region.Domain,
			Cause:   err,
		}
	}
	return token.AccessToken, nil
}

// Invalidate discards the cached token so the next Token call performs a
// fresh client-credentials grant.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.source = nil
	s.mu.Unlock()
}
