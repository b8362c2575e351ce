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

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tombee/genesysfeed/internal/genesys"
	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// Audit queries run asynchronously; the transaction is polled until the
// provider reports success.
var (
	auditPollAttempts = 10
	auditPollInterval = 2 * time.Second
)

// Billable usage reports regenerate on demand; polled until Complete.
var (
	billingPollAttempts = 10
	billingPollInterval = time.Second
)

// collectAuditQuery submits an audit query for the window, polls the
// transaction until it succeeds, then drains the paged results.
func collectAuditQuery(ctx context.Context, env *Env, window Window) ([]Record, error) {
	raw, err := env.Gateway.Post(ctx, genesys.SurfaceAudits, "query",
		genesys.AuditQuery{Interval: genesys.Interval(window.Start, window.End)})
	if err != nil {
		return nil, err
	}

	var transaction genesys.AuditTransaction
	if err := json.Unmarshal(raw, &transaction); err != nil || transaction.ID == "" {
		return nil, &apperrors.TransformError{
			Feed:    "audit_query",
			Message: "decode audit transaction",
			Cause:   err,
		}
	}

	state := transaction.State
	for attempt := 0; state != "Succeeded" && attempt < auditPollAttempts; attempt++ {
		statusRaw, err := env.Gateway.GetOne(ctx, genesys.SurfaceAudits, "query_transaction",
			genesys.WithPathParam("transactionId", transaction.ID))
		if err != nil {
			return nil, err
		}
		if statusRaw != nil {
			var status genesys.AuditTransaction
			if err := json.Unmarshal(statusRaw, &status); err == nil {
				state = status.State
			}
		}
		if state == "Succeeded" {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(auditPollInterval):
		}
	}
	if state != "Succeeded" {
		return nil, &apperrors.TransientError{
			Surface:   genesys.SurfaceAudits,
			Operation: "query_transaction",
			Message:   fmt.Sprintf("audit query %s did not complete: %s", transaction.ID, state),
		}
	}

	results, err := env.Gateway.Get(ctx, genesys.SurfaceAudits, "query_results",
		genesys.WithPathParam("transactionId", transaction.ID))
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(results))
	for _, item := range results {
		var entity map[string]any
		if err := json.Unmarshal(item, &entity); err != nil {
			env.Logger.Warn("skipping audit entity", "error", err)
			continue
		}
		record := Record{Payload: entity}
		if t, ok := parseTimeField(entity, "eventDate"); ok {
			record.Time = &t
		}
		records = append(records, record)
	}
	return records, nil
}

// collectLicenseUsage fetches the billable usage report for the window,
// waiting for the provider to finish generating it.
func collectLicenseUsage(ctx context.Context, env *Env, window Window) ([]Record, error) {
	var report genesys.BillableUsageReport

	for attempt := 0; ; attempt++ {
		raw, err := env.Gateway.GetOne(ctx, genesys.SurfaceBilling, "billable_usage",
			genesys.WithQuery("startDate", window.Start.UTC().Format(genesys.IntervalLayout)),
			genesys.WithQuery("endDate", window.End.UTC().Format(genesys.IntervalLayout)))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}
		if err := json.Unmarshal(raw, &report); err != nil {
			return nil, &apperrors.TransformError{
				Feed:    "license_usage",
				Message: "decode billable usage report",
				Cause:   err,
			}
		}
		if report.Status == "Complete" {
			break
		}
		if attempt+1 >= billingPollAttempts {
			return nil, &apperrors.TransientError{
				Surface:   genesys.SurfaceBilling,
				Operation: "billable_usage",
				Message:   "report did not complete: " + report.Status,
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(billingPollInterval):
		}
	}

	records := make([]Record, 0, len(report.Usages))
	for _, item := range report.Usages {
		var usage map[string]any
		if err := json.Unmarshal(item, &usage); err != nil {
			env.Logger.Warn("skipping usage entry", "error", err)
			continue
		}
		records = append(records, Record{Payload: usage})
	}
	return records, nil
}
