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

package httpclient

import (
	"net/url"
	"strings"
	"testing"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		redacted []string
		kept     []string
	}{
		{
			name:     "client secret redacted",
			rawURL:   "https://login.mypurecloud.com/oauth/token?client_secret=s3cret&grant_type=client_credentials",
			redacted: []string{"s3cret"},
			kept:     []string{"grant_type=client_credentials"},
		},
		{
			name:     "plain params untouched",
			rawURL:   "https://api.mypurecloud.com/api/v2/routing/queues?pageSize=500&pageNumber=2",
			kept:     []string{"pageSize=500", "pageNumber=2"},
		},
		{
			name:     "case insensitive match",
			rawURL:   "https://example.com/x?API_KEY=abc123",
			redacted: []string{"abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			got := sanitizeURL(u)
			for _, secret := range tt.redacted {
				if strings.Contains(got, secret) {
					t.Errorf("sanitized URL still contains %q: %s", secret, got)
				}
			}
			for _, keep := range tt.kept {
				if !strings.Contains(got, keep) {
					t.Errorf("sanitized URL lost %q: %s", keep, got)
				}
			}
		})
	}
}

func TestSanitizeURL_Nil(t *testing.T) {
	if got := sanitizeURL(nil); got != "" {
		t.Errorf("sanitizeURL(nil) = %q, want empty", got)
	}
}
