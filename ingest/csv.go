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

// Package ingest parses user-supplied portfolio value files into time
// series. It is boundary glue: everything it produces is validated again
// by the analysis core.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/foliolens/folio-api/common"
	"github.com/foliolens/folio-api/timeseries"
)

var ErrMalformedInput = errors.New("malformed input")

// accepted date layouts, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006/01/02",
}

// ReadSeries parses a two-column date,value file into a series. The column
// delimiter is sniffed from the first line (comma, semicolon or tab), a
// header row is skipped when the second field is not numeric, and values
// may carry currency symbols and thousands separators.
func ReadSeries(r io.Reader) (timeseries.Series, error) {
	buffered := bufio.NewReader(r)

	delimiter, err := sniffDelimiter(buffered)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err.Error())
	}

	nyc := common.GetTimezone()
	series := make(timeseries.Series, 0, len(rows))

	for idx, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected 2", ErrMalformedInput, idx+1, len(row))
		}

		val, err := parseValue(row[1])
		if err != nil {
			if idx == 0 {
				// header row
				continue
			}
			return nil, fmt.Errorf("%w: row %d: %s", ErrMalformedInput, idx+1, err.Error())
		}

		dt, err := parseDate(row[0], nyc)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %s", ErrMalformedInput, idx+1, err.Error())
		}

		if val < 0 {
			return nil, fmt.Errorf("%w: row %d: negative value %f", ErrMalformedInput, idx+1, val)
		}

		series = append(series, timeseries.Point{Date: dt, Value: val})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformedInput)
	}

	return series.Normalize(), nil
}

// sniffDelimiter peeks at the first line and picks the delimiter. Tab and
// semicolon are checked before comma since commas also appear inside
// formatted numbers.
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	peek, err := r.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("%w: %s", ErrMalformedInput, err.Error())
	}

	line := string(peek)
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}

	switch {
	case strings.ContainsRune(line, '\t'):
		return '\t', nil
	case strings.ContainsRune(line, ';'):
		return ';', nil
	case strings.ContainsRune(line, ','):
		return ',', nil
	}

	return 0, fmt.Errorf("%w: could not detect delimiter", ErrMalformedInput)
}

func parseDate(field string, loc *time.Location) (time.Time, error) {
	field = strings.TrimSpace(field)
	for _, layout := range dateLayouts {
		if dt, err := time.ParseInLocation(layout, field, loc); err == nil {
			return time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", field)
}

func parseValue(field string) (float64, error) {
	cleaned := strings.TrimSpace(field)
	cleaned = strings.Trim(cleaned, "$€£¥")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable value %q", field)
	}
	return val, nil
}
