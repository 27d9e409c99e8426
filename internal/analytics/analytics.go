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

// Package analytics reports figure requests to Google Analytics.
package analytics

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	defaultEndpoint = "https://www.google-analytics.com"
	// maxBatch is the largest number of hits accepted by the batch endpoint.
	maxBatch = 20
)

// Hit is a single analytics hit, as measurement protocol parameters.
type Hit map[string]string

// Event returns an event hit.  Category and action are required; an empty
// label and a nil value are left out.
func Event(category, action, label string, value *int64) Hit {
	hit := Hit{"t": "event", "ec": category, "ea": action}
	if label != "" {
		hit["el"] = label
	}
	if value != nil {
		hit["ev"] = strconv.FormatInt(*value, 10)
	}
	return hit
}

// Figure returns the event recorded for every rendered figure: the category
// is the figure kind, the action its output format and the value the number
// of drawn panels.
func Figure(kind, format string, panels int) Hit {
	n := int64(panels)
	return Event(kind, format, "", &n)
}

// Client uploads hits for one property.  Use NewClient to create one.
type Client struct {
	propertyID string
	clientID   string
	endpoint   string
	batchSize  int
	http       *http.Client
}

// NewClient returns a Client reporting to propertyID as clientID.
func NewClient(propertyID, clientID string) *Client {
	return &Client{
		propertyID: propertyID,
		clientID:   clientID,
		endpoint:   defaultEndpoint,
		batchSize:  maxBatch,
		http:       http.DefaultClient,
	}
}

// Send uploads hits in batches.  Nothing is sent for an empty list.
func (c *Client) Send(ctx context.Context, hits []Hit) error {
	for start := 0; start < len(hits); start += c.batchSize {
		end := min(start+c.batchSize, len(hits))
		if err := c.upload(ctx, hits[start:end]); err != nil {
			return errors.Wrapf(err, "uploading hits %d-%d", start, end)
		}
	}
	return nil
}

func (c *Client) upload(ctx context.Context, hits []Hit) error {
	var body bytes.Buffer
	for _, hit := range hits {
		payload := url.Values{
			"v":   {"1"},
			"tid": {c.propertyID},
			"cid": {c.clientID},
		}
		for key, value := range hit {
			payload.Add(key, value)
		}
		body.WriteString(payload.Encode())
		body.WriteByte('\n')
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/batch", &body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected response status: %s", resp.Status)
	}
	return nil
}

type contextKey int

const hitsKey contextKey = 1

// Middleware collects the hits recorded through TrackerFromContext while a
// request is handled and passes them to track once the handler chain has
// completed.
func Middleware(track func([]Hit)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var hits []Hit
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), hitsKey, &hits))
		c.Next()
		track(hits)
	}
}

// TrackerFromContext returns a function that records hits for the request
// owning ctx.  Outside of Middleware the returned function discards them.
func TrackerFromContext(ctx context.Context) func(Hit) {
	if hits, ok := ctx.Value(hitsKey).(*[]Hit); ok {
		return func(hit Hit) { *hits = append(*hits, hit) }
	}
	return func(Hit) {}
}
