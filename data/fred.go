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
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/foliolens/folio-api/common"
	"github.com/foliolens/folio-api/timeseries"
	"github.com/rs/zerolog/log"
)

var fredURL = "https://fred.stlouisfed.org"

// DefaultRiskFreeSymbol is the 3-month treasury bill secondary market rate
const DefaultRiskFreeSymbol = "DTB3"

type fred struct{}

// NewFred creates a FRED data provider. FRED serves economic series as CSV
// from the fredgraph endpoint; rates come back as annualized percentages.
func NewFred() Provider {
	return &fred{}
}

func (f *fred) Name() string {
	return "fred"
}

func (f *fred) Series(ctx context.Context, symbol string, begin, end time.Time) (timeseries.Series, error) {
	url := fmt.Sprintf("%s/graph/fredgraph.csv?mode=fred&id=%s&cosd=%s&coed=%s&fq=Daily&fam=avg", fredURL, symbol, begin.Format("2006-01-02"), end.Format("2006-01-02"))

	subLog := log.With().Str("Provider", f.Name()).Str("Symbol", symbol).Str("Url", url).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		subLog.Warn().Err(err).Msg("fred request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		subLog.Warn().Int("StatusCode", resp.StatusCode).Msg("fred returned error status")
		return nil, fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	series, err := parseFredCSV(resp.Body, symbol)
	if err != nil {
		return nil, err
	}

	if len(series) == 0 {
		return nil, ErrDataUnavailable
	}

	return series, nil
}

// parseFredCSV reads the 2-column fredgraph payload. Days with no
// observation carry "." as the value and are skipped.
func parseFredCSV(r io.Reader, symbol string) (timeseries.Series, error) {
	nyc := common.GetTimezone()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, err.Error())
	}

	series := make(timeseries.Series, 0, len(rows))
	for idx, row := range rows {
		if idx == 0 {
			// header: DATE,<symbol>
			continue
		}

		if row[1] == "." {
			continue
		}

		dt, err := time.ParseInLocation("2006-01-02", row[0], nyc)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q for %s", ErrUnparseable, row[0], symbol)
		}

		val, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad value %q for %s", ErrUnparseable, row[1], symbol)
		}

		series = append(series, timeseries.Point{Date: dt, Value: val})
	}

	return series, nil
}
