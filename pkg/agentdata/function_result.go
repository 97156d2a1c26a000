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

package agentdata

// FunctionResult is the uniform return value every dispatch boundary in the
// runtime produces: tool execution, agent function calls, workflow steps.
// Success implies an empty ErrorMessage and vice versa; callers may rely on
// that invariant rather than checking both fields.
type FunctionResult struct {
	Success      bool       `json:"success"`
	Result       *AgentData `json:"result"`
	ErrorMessage string     `json:"error_message"`
}

// Ok builds a successful FunctionResult carrying result.
func Ok(result *AgentData) FunctionResult {
	if result == nil {
		result = New()
	}
	return FunctionResult{Success: true, Result: result}
}

// Fail builds a failed FunctionResult. message must be non-empty; the
// invariant `!success => error_message non-empty` is enforced here rather
// than left to callers.
func Fail(message string) FunctionResult {
	if message == "" {
		message = "unknown error"
	}
	return FunctionResult{Success: false, Result: New(), ErrorMessage: message}
}
