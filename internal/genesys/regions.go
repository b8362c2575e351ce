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

// Package genesys implements the Genesys Cloud provider client: OAuth2
// client-credentials sessions, an explicit operation registry, a paginating
// gateway, analytics query construction, and response normalization into
// flat event records.
package genesys

import (
	"fmt"
	"strings"
)

// Region describes the host pair for one Genesys Cloud region.
type Region struct {
	// Domain is the region's base domain, e.g. "mypurecloud.ie".
	Domain string
}

// LoginURL returns the OAuth2 token endpoint for the region.
func (r Region) LoginURL() string {
	return fmt.Sprintf("https://login.%s/oauth/token", r.Domain)
}

// APIBase returns the REST API base URL for the region, without a trailing
// slash.
func (r Region) APIBase() string {
	return fmt.Sprintf("https://api.%s", r.Domain)
}

// regionDomains maps AWS-style region identifiers to Genesys Cloud base
// domains, mirroring the platform's published region list.
var regionDomains = map[string]string{
	"us_east_1":      "mypurecloud.com",
	"us_east_2":      "use2.us-gov-pure.cloud",
	"us_west_2":      "usw2.pure.cloud",
	"ca_central_1":   "cac1.pure.cloud",
	"sa_east_1":      "sae1.pure.cloud",
	"eu_west_1":      "mypurecloud.ie",
	"eu_west_2":      "euw2.pure.cloud",
	"eu_central_1":   "mypurecloud.de",
	"eu_central_2":   "euc2.pure.cloud",
	"ap_south_1":     "aps1.pure.cloud",
	"ap_northeast_1": "mypurecloud.jp",
	"ap_northeast_2": "apne2.pure.cloud",
	"ap_northeast_3": "apne3.pure.cloud",
	"ap_southeast_2": "mypurecloud.com.au",
	"me_central_1":   "mec1.pure.cloud",
}

// ResolveRegion accepts either an AWS-style region identifier ("eu_west_1")
// or a bare region domain ("mypurecloud.ie") and returns the Region.
func ResolveRegion(name string) (Region, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Region{}, fmt.Errorf("genesys: region is empty")
	}
	if domain, ok := regionDomains[strings.ReplaceAll(key, "-", "_")]; ok {
		return Region{Domain: domain}, nil
	}
	// Accept a domain directly so configurations can name regions the way
	// the platform URLs do.
	if strings.Contains(key, ".") {
		return Region{Domain: key}, nil
	}
	return Region{}, fmt.Errorf("genesys: unknown region %q", name)
}
