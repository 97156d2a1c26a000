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

package server

import (
	"encoding/json"
	"net/http"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/apierr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders err as the uniform `{"error":{"type","message","code"}}`
// body spec.md §6 requires, deriving the HTTP status from its Kind.
func writeError(w http.ResponseWriter, err *apierr.Error) {
	body := err.ToBody()
	writeJSON(w, body.Error.Code, body)
}

func writeValidationError(w http.ResponseWriter, typ, message string) {
	writeError(w, apierr.Validation(typ, message))
}

func writeNotFound(w http.ResponseWriter, typ, message string) {
	writeError(w, apierr.NotFound(typ, message))
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}
