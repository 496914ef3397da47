// Copyright 2025 Kisan Assistant Project
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

package resilience

import (
	"fmt"
	"time"
)

// TimeoutError reports that an upstream call exceeded its deadline.
type TimeoutError struct {
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// FetchError reports a failed call to a named external data source. The
// gateways log it and degrade to an empty context block; it never becomes
// an HTTP error for the farmer.
type FetchError struct {
	Source string
	Op     string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Source, e.Op, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError wraps an upstream failure with its source and operation.
func NewFetchError(source, op string, cause error) *FetchError {
	return &FetchError{Source: source, Op: op, Cause: cause}
}
