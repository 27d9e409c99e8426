// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analytics

import (
	"bufio"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("UA-TEST123", "0001-0002-0003-0004")
	client.endpoint = server.URL
	return client
}

func TestClient_Send_Batches(t *testing.T) {
	var (
		mu       sync.Mutex
		requests int
	)
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/batch", req.URL.Path)
		mu.Lock()
		requests++
		mu.Unlock()
	})

	hits := make([]Hit, client.batchSize*3+1)
	for i := range hits {
		hits[i] = Figure("heatmap", "png", 4)
	}
	require.NoError(t, client.Send(context.Background(), hits))
	assert.Equal(t, 4, requests)

	require.NoError(t, client.Send(context.Background(), nil))
	assert.Equal(t, 4, requests)
}

func TestClient_Send_Payloads(t *testing.T) {
	var payloads []string
	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		scanner := bufio.NewScanner(req.Body)
		for scanner.Scan() {
			payloads = append(payloads, scanner.Text())
		}
		require.NoError(t, scanner.Err())
	})

	var hits []Hit
	for i := int64(0); i < 5; i++ {
		hits = append(hits, Event("tracks", "svg", strconv.FormatInt(i, 10), &i))
	}
	require.NoError(t, client.Send(context.Background(), hits))
	require.Len(t, payloads, len(hits))

	for i, payload := range payloads {
		got, err := url.ParseQuery(payload)
		require.NoError(t, err)
		want := url.Values{"v": {"1"}, "tid": {"UA-TEST123"}, "cid": {"0001-0002-0003-0004"}}
		for key, value := range hits[i] {
			want.Add(key, value)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("hit %d payload mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestClient_Send_Status(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	err := client.Send(context.Background(), []Hit{Event("heatmap", "pdf", "", nil)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestEvent(t *testing.T) {
	hit := Event("heatmap", "png", "", nil)
	assert.Equal(t, Hit{"t": "event", "ec": "heatmap", "ea": "png"}, hit)

	for _, value := range []int64{0, math.MaxInt64, math.MinInt64} {
		value := value
		assert.Equal(t, strconv.FormatInt(value, 10), Event("heatmap", "png", "label", &value)["ev"])
	}
	assert.Equal(t, "3", Figure("tracks", "svg", 3)["ev"])
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	want := []Hit{Event("heatmap", "png", "", nil), Event("tracks", "svg", "", nil)}

	var got []Hit
	router := gin.New()
	router.Use(Middleware(func(hits []Hit) { got = hits }))
	router.GET("/figure", func(c *gin.Context) {
		track := TrackerFromContext(c.Request.Context())
		for _, hit := range want {
			track(hit)
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/figure", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tracked hits mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackerFromContext_Background(t *testing.T) {
	track := TrackerFromContext(context.Background())
	require.NotNil(t, track)
	track(Event("heatmap", "png", "", nil))
}
