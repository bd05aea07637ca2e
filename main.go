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

package main

import (
	"errors"

	"github.com/foliolens/folio-api/cmd"

	"github.com/spf13/viper"
)

func configureViper() {
	// read config file when one is present
	viper.SetConfigName("folio")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/folio/")
	viper.AddConfigPath("$HOME/.config/folio")
	viper.AddConfigPath(".")

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		panic(err)
	}
}

func main() {
	configureViper()
	cmd.Execute()
}
