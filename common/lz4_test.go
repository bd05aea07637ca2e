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

package common_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliolens/folio-api/common"
)

var _ = Describe("lz4 compression", func() {
	It("round trips a payload", func() {
		payload := bytes.Repeat([]byte(`{"date":"2024-01-02","value":100.25}`), 200)

		compressed, err := common.Compress(payload)
		Expect(err).To(BeNil())
		Expect(len(compressed)).To(BeNumerically("<", len(payload)))

		restored, err := common.Decompress(compressed)
		Expect(err).To(BeNil())
		Expect(restored).To(Equal(payload))
	})

	It("round trips an empty payload", func() {
		compressed, err := common.Compress([]byte{})
		Expect(err).To(BeNil())

		restored, err := common.Decompress(compressed)
		Expect(err).To(BeNil())
		Expect(restored).To(BeEmpty())
	})
})
