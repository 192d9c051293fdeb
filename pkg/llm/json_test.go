package llm

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "bare object",
			input:    `{"items": []}`,
			expected: `{"items": []}`,
		},
		{
			name:     "object in markdown fence",
			input:    "```json\n{\"items\": [{\"code\": \"2-DIP-08-P\"}]}\n```",
			expected: `{"items": [{"code": "2-DIP-08-P"}]}`,
		},
		{
			name:     "object with surrounding prose",
			input:    "Here is the analysis:\n{\"analysis_summary\": \"ok\"}\nLet me know.",
			expected: `{"analysis_summary": "ok"}`,
		},
		{
			name:     "nested objects",
			input:    `{"a": {"b": {"c": 1}}}`,
			expected: `{"a": {"b": {"c": 1}}}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"label": "bend {90 deg}"}`,
			expected: `{"label": "bend {90 deg}"}`,
		},
		{
			name:     "array payload",
			input:    `some text [1, 2, 3] trailing`,
			expected: `[1, 2, 3]`,
		},
		{
			name:    "no json at all",
			input:   "the model refused to answer",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"items": [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON() expected error, got %q", got)
				}
				if !IsProtocolError(err) {
					t.Errorf("ExtractJSON() error should be a protocol error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON() error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Items []struct {
			Code string `json:"code"`
		} `json:"items"`
	}

	result, err := ParseJSONResponse[payload]("```json\n{\"items\":[{\"code\":\"4-DIP-06-G\"}]}\n```")
	if err != nil {
		t.Fatalf("ParseJSONResponse() error: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Code != "4-DIP-06-G" {
		t.Errorf("ParseJSONResponse() = %+v", result)
	}

	if _, err := ParseJSONResponse[payload]("not json"); !IsProtocolError(err) {
		t.Errorf("ParseJSONResponse() should classify garbage as protocol error, got %v", err)
	}
}
