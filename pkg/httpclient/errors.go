// Copyright 2025 Kadir Pekel
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

package httpclient

import (
	"fmt"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/apierr"
)

// Classify maps a failed Response (or a transport error, when resp is nil)
// onto the runtime's stable error taxonomy (spec.md §4.2 / §6), so callers
// never leak a raw HTTP status or network error string to API clients.
func Classify(resp *Response, err error) *apierr.Error {
	if resp == nil {
		return apierr.Transport("backend_unreachable", fmt.Sprintf("inference backend unreachable: %v", err))
	}
	switch resp.StatusCode {
	case 400, 422:
		return apierr.Validation("backend_rejected_request", fmt.Sprintf("inference backend rejected request: HTTP %d", resp.StatusCode))
	case 401, 403:
		return apierr.Auth("backend_denied_request", fmt.Sprintf("inference backend denied request: HTTP %d", resp.StatusCode))
	case 404:
		return apierr.NotFound("backend_resource_not_found", "inference backend resource not found")
	case 408:
		return apierr.Timeout("backend_request_timeout", "inference backend request timed out")
	case 409:
		return apierr.Conflict("backend_conflict", "inference backend reported a conflict")
	case 429:
		return apierr.Quota("backend_rate_limited", "inference backend rate limit exceeded")
	case 502, 503, 504:
		return apierr.Transport("backend_unavailable", fmt.Sprintf("inference backend unavailable: HTTP %d", resp.StatusCode))
	default:
		return apierr.Internal("backend_error", fmt.Sprintf("inference backend error: HTTP %d", resp.StatusCode))
	}
}
