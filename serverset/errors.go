// Copyright 2023 StreamNative, Inc.
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

package serverset

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoServers        = errors.New("no servers configured")
	ErrMalformedAddress = errors.New("address must be host:port or host:port:weight")
	ErrInvalidPort      = errors.New("port must be an integer between 1 and 65535")
	ErrInvalidWeight    = errors.New("weight must be a positive integer")
	ErrDuplicateServer  = errors.New("duplicate server")
)

// ConfigError reports a server list that cannot be turned into a ServerSet.
// Reason wraps one of the Err* sentinels above.
type ConfigError struct {
	Entry  string
	Reason error
}

func newConfigError(entry string, reason error) *ConfigError {
	return &ConfigError{Entry: entry, Reason: reason}
}

func (e *ConfigError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("invalid server configuration: %v", e.Reason)
	}
	return fmt.Sprintf("invalid server %q: %v", e.Entry, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Reason
}
