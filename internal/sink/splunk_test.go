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

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplunkSinkWritesHECPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/services/collector/event", r.URL.Path)
		require.Equal(t, "Splunk hec-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"text":"Success","code":0}`)
	}))
	defer server.Close()

	sink, err := NewSplunkSink(SplunkConfig{
		BaseURL: server.URL,
		Token:   "hec-token",
	}, server.Client())
	require.NoError(t, err)

	eventTime := time.Date(2026, 3, 1, 8, 30, 0, 250_000_000, time.UTC)
	err = sink.Write(context.Background(), Event{
		Payload:    json.RawMessage(`{"queueId":"q1","metric":"nOffered","count":5}`),
		Index:      "genesys",
		Sourcetype: "genesyscloud:analytics:queues:observations",
		Time:       &eventTime,
	})
	require.NoError(t, err)

	assert.Equal(t, "genesys", received["index"])
	assert.Equal(t, "genesyscloud:analytics:queues:observations", received["sourcetype"])
	assert.InDelta(t, 1772353800.25, received["time"], 0.001)

	event, ok := received["event"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "q1", event["queueId"])
}

func TestSplunkSinkOmitsOptionalFields(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"text":"Success","code":0}`)
	}))
	defer server.Close()

	sink, err := NewSplunkSink(SplunkConfig{BaseURL: server.URL, Token: "x"}, server.Client())
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), Event{
		Payload: json.RawMessage(`{"a":1}`),
	}))
	assert.NotContains(t, received, "index")
	assert.NotContains(t, received, "sourcetype")
	assert.NotContains(t, received, "time")
}

func TestSplunkSinkErrorOnHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sink, err := NewSplunkSink(SplunkConfig{BaseURL: server.URL, Token: "x"}, server.Client())
	require.NoError(t, err)

	err = sink.Write(context.Background(), Event{Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestSplunkSinkErrorOnCollectorRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"text":"Incorrect index","code":7}`)
	}))
	defer server.Close()

	sink, err := NewSplunkSink(SplunkConfig{BaseURL: server.URL, Token: "x"}, server.Client())
	require.NoError(t, err)

	err = sink.Write(context.Background(), Event{Payload: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect index")
}

func TestSplunkSinkValidation(t *testing.T) {
	_, err := NewSplunkSink(SplunkConfig{Token: "x"}, nil)
	assert.Error(t, err)

	_, err = NewSplunkSink(SplunkConfig{BaseURL: "http://localhost:8088"}, nil)
	assert.Error(t, err)
}

func TestMemorySinkFailAfter(t *testing.T) {
	sink := NewMemorySink()
	sink.FailWith(1, fmt.Errorf("sink full"))

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, Event{Payload: json.RawMessage(`{"n":1}`)}))
	assert.Error(t, sink.Write(ctx, Event{Payload: json.RawMessage(`{"n":2}`)}))
	assert.Len(t, sink.Events(), 1)
}
