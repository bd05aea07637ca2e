// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package data fetches benchmark and risk-free market series from external
// providers, with an lru + optional redis cache in front of them.
package data

import (
	"context"
	"net/http"
	"time"

	"github.com/foliolens/folio-api/timeseries"
)

// Provider supplies daily observations for a symbol over a date range. An
// empty result for a valid range is reported as ErrDataUnavailable.
type Provider interface {
	Name() string
	Series(ctx context.Context, symbol string, begin, end time.Time) (timeseries.Series, error)
}

// httpClient is shared by providers; tests intercept the default transport
// with httpmock. Deadlines come from the request context.
var httpClient = http.DefaultClient
