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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// maxResponseBody caps how much of a provider response is read, 64 MiB.
const maxResponseBody = 64 << 20

// Gateway executes registered operations against one session's region.
//
// Call-style policy: GET-style operations degrade to an empty result on
// provider failure so a directory hiccup yields an empty cycle rather than
// a crashed one. POST-style operations return a hard error, since a failed
// query must stop the cycle before any checkpoint moves. Both styles get
// exactly one token refresh and retry when the provider answers 401 or 429.
type Gateway struct {
	session TokenSource
	client  *http.Client
	logger  *slog.Logger
	apiBase string
}

// TokenSource supplies bearer tokens and supports invalidation. *Session
// is the production implementation.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// NewGateway builds a gateway over an authenticated session.
func NewGateway(session *Session, client *http.Client, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		session: session,
		client:  client,
		logger:  logger,
		apiBase: session.Region().APIBase(),
	}
}

// NewGatewayWithBase builds a gateway against an explicit API base URL,
// bypassing region resolution. Useful for tests and nonstandard endpoints.
func NewGatewayWithBase(tokens TokenSource, apiBase string, client *http.Client, logger *slog.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		session: tokens,
		client:  client,
		logger:  logger,
		apiBase: strings.TrimSuffix(apiBase, "/"),
	}
}

// CallOption customizes a single gateway call.
type CallOption func(*callOptions)

type callOptions struct {
	pathParams map[string]string
	query      url.Values
}

// WithPathParam substitutes a {name} placeholder in the operation path.
func WithPathParam(name, value string) CallOption {
	return func(o *callOptions) {
		if o.pathParams == nil {
			o.pathParams = make(map[string]string)
		}
		o.pathParams[name] = value
	}
}

// WithQuery adds a query string parameter.
func WithQuery(name, value string) CallOption {
	return func(o *callOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		o.query.Set(name, value)
	}
}

// Get executes a GET-style operation and returns its items: entity pages
// are drained, bare arrays are split, and single objects come back as a
// one-element slice. Provider failures degrade to an empty result after
// the single auth retry; only configuration errors are surfaced.
func (g *Gateway) Get(ctx context.Context, surface, operation string, opts ...CallOption) ([]json.RawMessage, error) {
	op, err := LookupOperation(surface, operation)
	if err != nil {
		return nil, err
	}
	if op.Method != http.MethodGet {
		return nil, &apperrors.ConfigurationError{
			Surface:   surface,
			Operation: operation,
			Message:   "not a GET operation",
		}
	}

	items, err := g.fetch(ctx, op, applyOptions(opts))
	if err != nil {
		if apperrors.IsConfiguration(err) {
			return nil, err
		}
		g.logger.Warn("provider call failed, returning empty result",
			"surface", surface,
			"operation", operation,
			"error", err)
		return nil, nil
	}
	return items, nil
}

// GetOne executes a singleton GET operation. Degrades to nil on provider
// failure.
func (g *Gateway) GetOne(ctx context.Context, surface, operation string, opts ...CallOption) (json.RawMessage, error) {
	items, err := g.Get(ctx, surface, operation, opts...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// Post executes a POST-style operation with the given body and returns the
// raw response object. Provider failures are hard errors.
func (g *Gateway) Post(ctx context.Context, surface, operation string, body any) (json.RawMessage, error) {
	op, err := LookupOperation(surface, operation)
	if err != nil {
		return nil, err
	}
	if op.Method != http.MethodPost {
		return nil, &apperrors.ConfigurationError{
			Surface:   surface,
			Operation: operation,
			Message:   "not a POST operation",
		}
	}

	raw, _, err := g.roundTrip(ctx, op, g.apiBase+op.Path, body)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// PostPaged executes a body-paged POST operation, looping the request's
// paging block until totalHits items have been collected. The body is the
// query without its paging block.
func (g *Gateway) PostPaged(ctx context.Context, surface, operation string, body map[string]any) ([]json.RawMessage, error) {
	op, err := LookupOperation(surface, operation)
	if err != nil {
		return nil, err
	}
	if op.Paging != PagingBody {
		return nil, &apperrors.ConfigurationError{
			Surface:   surface,
			Operation: operation,
			Message:   "not a body-paged operation",
		}
	}

	pageSize := op.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var items []json.RawMessage
	for pageNumber := 1; ; pageNumber++ {
		paged := make(map[string]any, len(body)+1)
		for k, v := range body {
			paged[k] = v
		}
		paged["paging"] = BodyPaging{PageSize: pageSize, PageNumber: pageNumber}

		raw, _, err := g.roundTrip(ctx, op, g.apiBase+op.Path, paged)
		if err != nil {
			return nil, err
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, &apperrors.TransientError{
				Surface:   surface,
				Operation: operation,
				Message:   "malformed paged response",
				Cause:     err,
			}
		}
		totalHits := 0
		if rawHits, ok := envelope["totalHits"]; ok {
			_ = json.Unmarshal(rawHits, &totalHits)
		}

		var pageItems []json.RawMessage
		if rawItems, ok := envelope[op.ItemsKey]; ok {
			if err := json.Unmarshal(rawItems, &pageItems); err != nil {
				return nil, &apperrors.TransientError{
					Surface:   surface,
					Operation: operation,
					Message:   fmt.Sprintf("malformed %s array", op.ItemsKey),
					Cause:     err,
				}
			}
		}
		items = append(items, pageItems...)

		if len(pageItems) == 0 || len(items) >= totalHits {
			return items, nil
		}
	}
}

func applyOptions(opts []CallOption) callOptions {
	var options callOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// fetch drains a GET operation according to its paging style.
func (g *Gateway) fetch(ctx context.Context, op Operation, options callOptions) ([]json.RawMessage, error) {
	path := op.Path
	for name, value := range options.pathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	if strings.Contains(path, "{") {
		return nil, &apperrors.ConfigurationError{
			Surface:   op.Surface,
			Operation: op.Name,
			Message:   "unresolved path parameter in " + path,
		}
	}

	base := g.apiBase + path
	query := options.query
	if query == nil {
		query = url.Values{}
	}

	if op.Paging != PagingEntityListing {
		raw, _, err := g.roundTrip(ctx, op, withQuery(base, query), nil)
		if err != nil {
			return nil, err
		}
		if op.Shape == ShapeArray {
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, &apperrors.TransientError{
					Surface:   op.Surface,
					Operation: op.Name,
					Message:   "malformed array response",
					Cause:     err,
				}
			}
			return items, nil
		}
		return []json.RawMessage{raw}, nil
	}

	pageSize := op.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var items []json.RawMessage
	for pageNumber := 1; ; pageNumber++ {
		query.Set("pageSize", strconv.Itoa(pageSize))
		query.Set("pageNumber", strconv.Itoa(pageNumber))

		raw, _, err := g.roundTrip(ctx, op, withQuery(base, query), nil)
		if err != nil {
			return nil, err
		}

		var listing entityListing
		if err := json.Unmarshal(raw, &listing); err != nil {
			return nil, &apperrors.TransientError{
				Surface:   op.Surface,
				Operation: op.Name,
				Message:   "malformed entity listing",
				Cause:     err,
			}
		}
		items = append(items, listing.Entities...)

		if listing.NextURI == "" {
			return items, nil
		}
	}
}

func withQuery(base string, query url.Values) string {
	if len(query) == 0 {
		return base
	}
	return base + "?" + query.Encode()
}

// roundTrip performs one HTTP exchange with bearer auth, refreshing the
// token and retrying exactly once when the provider answers 401 or 429.
func (g *Gateway) roundTrip(ctx context.Context, op Operation, u string, body any) (json.RawMessage, int, error) {
	raw, status, err := g.doOnce(ctx, op, u, body)
	if status == http.StatusUnauthorized || status == http.StatusTooManyRequests {
		g.logger.Info("refreshing token and retrying",
			"surface", op.Surface,
			"operation", op.Name,
			"status", status)
		g.session.Invalidate()
		raw, retryStatus, retryErr := g.doOnce(ctx, op, u, body)
		if retryErr != nil {
			return nil, retryStatus, &apperrors.AuthError{
				StatusCode: status,
				Message:    fmt.Sprintf("%s.%s failed after token refresh", op.Surface, op.Name),
				Cause:      retryErr,
			}
		}
		return raw, retryStatus, nil
	}
	return raw, status, err
}

func (g *Gateway) doOnce(ctx context.Context, op Operation, u string, body any) (json.RawMessage, int, error) {
	token, err := g.session.Token(ctx)
	if err != nil {
		return nil, 0, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, &apperrors.TransientError{
				Surface:   op.Surface,
				Operation: op.Name,
				Message:   "encode request body",
				Cause:     err,
			}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, u, reader)
	if err != nil {
		return nil, 0, &apperrors.TransientError{
			Surface:   op.Surface,
			Operation: op.Name,
			Message:   "build request",
			Cause:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, &apperrors.TransientError{
			Surface:   op.Surface,
			Operation: op.Name,
			Message:   "request failed",
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, resp.StatusCode, &apperrors.TransientError{
			Surface:    op.Surface,
			Operation:  op.Name,
			StatusCode: resp.StatusCode,
			Message:    "read response body",
			Cause:      err,
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, resp.StatusCode, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, &apperrors.AuthError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(payload), 256),
		}
	default:
		return nil, resp.StatusCode, &apperrors.TransientError{
			Surface:    op.Surface,
			Operation:  op.Name,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(payload), 256),
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
