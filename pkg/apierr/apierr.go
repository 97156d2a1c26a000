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

// Package apierr implements the error taxonomy of spec.md §7: an abstract
// kind per failure cause, a stable machine-readable type string, and the
// HTTP status code the surface maps it to.
package apierr

import "net/http"

// Kind is one entry in spec.md §7's error taxonomy table.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindTransport  Kind = "transport_error"
	KindAuth       Kind = "auth_error"
	KindQuota      Kind = "quota_error"
	KindInternal   Kind = "internal_error"
	KindTimeout    Kind = "timeout"
)

// StatusFor maps a Kind to the HTTP status code spec.md §7 assigns it.
func StatusFor(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransport, KindQuota:
		return http.StatusBadGateway
	case KindAuth:
		return http.StatusInternalServerError
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error value carried across a component boundary before being
// converted to a FunctionResult or an HTTP error body. It is never allowed
// to cross a goroutine/HTTP-handler boundary unconverted (spec.md §7 "no
// exception crosses an asynchronous boundary").
type Error struct {
	Kind    Kind
	Type    string // machine-readable, e.g. "collection_not_found"
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds an Error with a Kind-derived default Type when typ is empty.
func New(kind Kind, typ, message string) *Error {
	if typ == "" {
		typ = string(kind)
	}
	return &Error{Kind: kind, Type: typ, Message: message}
}

func NotFound(typ, message string) *Error   { return New(KindNotFound, typ, message) }
func Validation(typ, message string) *Error { return New(KindValidation, typ, message) }
func Conflict(typ, message string) *Error   { return New(KindConflict, typ, message) }
func Transport(typ, message string) *Error  { return New(KindTransport, typ, message) }
func Auth(typ, message string) *Error       { return New(KindAuth, typ, message) }
func Quota(typ, message string) *Error      { return New(KindQuota, typ, message) }
func Internal(typ, message string) *Error   { return New(KindInternal, typ, message) }
func Timeout(typ, message string) *Error    { return New(KindTimeout, typ, message) }

// Body is the wire shape every HTTP error response carries (spec.md §6:
// `{ "error": { "type", "message", "code" } }`).
type Body struct {
	Error BodyDetail `json:"error"`
}

type BodyDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ToBody renders e as the HTTP error body shape.
func (e *Error) ToBody() Body {
	return Body{Error: BodyDetail{
		Type:    e.Type,
		Message: e.Message,
		Code:    StatusFor(e.Kind),
	}}
}
