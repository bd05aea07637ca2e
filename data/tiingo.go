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

package data

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/foliolens/folio-api/common"
	"github.com/foliolens/folio-api/timeseries"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var tiingoURL = "https://api.tiingo.com"

// DefaultBenchmarkSymbol tracks the S&P 500
const DefaultBenchmarkSymbol = "SPY"

type tiingo struct {
	token string
}

type tiingoEOD struct {
	Date     string  `json:"date"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjClose"`
}

// NewTiingo creates a Tiingo end-of-day price provider. The API token is
// read from configuration when not given.
func NewTiingo(token string) Provider {
	if token == "" {
		token = viper.GetString("market.tiingo_token")
	}
	return &tiingo{token: token}
}

func (t *tiingo) Name() string {
	return "tiingo"
}

func (t *tiingo) Series(ctx context.Context, symbol string, begin, end time.Time) (timeseries.Series, error) {
	url := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&format=json&resampleFreq=daily&token=%s", tiingoURL, symbol, begin.Format("2006-01-02"), end.Format("2006-01-02"), t.token)

	subLog := log.With().Str("Provider", t.Name()).Str("Symbol", symbol).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		subLog.Warn().Err(err).Msg("tiingo request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		subLog.Warn().Int("StatusCode", resp.StatusCode).Msg("tiingo returned error status")
		return nil, fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var rows []tiingoEOD
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, err.Error())
	}

	if len(rows) == 0 {
		return nil, ErrDataUnavailable
	}

	nyc := common.GetTimezone()
	series := make(timeseries.Series, 0, len(rows))
	for _, row := range rows {
		dt, err := time.ParseInLocation("2006-01-02T15:04:05.000Z", row.Date, nyc)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q for %s", ErrUnparseable, row.Date, symbol)
		}

		// use the split and dividend adjusted close when present
		val := row.AdjClose
		if val == 0 {
			val = row.Close
		}

		series = append(series, timeseries.Point{Date: time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, nyc), Value: val})
	}

	return series, nil
}
