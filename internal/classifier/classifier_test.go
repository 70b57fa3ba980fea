package classifier_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/termstudio/taxon/internal/classifier"
)

func TestMethods(t *testing.T) {
	methods := classifier.Methods()

	want := []classifier.Method{
		classifier.MethodEmbedding,
		classifier.MethodLLM,
		classifier.MethodAgent,
	}

	if len(methods) != len(want) {
		t.Fatalf("len(Methods()) = %d, want %d", len(methods), len(want))
	}
	for i, m := range methods {
		if m != want[i] {
			t.Errorf("Methods()[%d] = %q, want %q", i, m, want[i])
		}
	}
}

func TestMethodUnmarshalJSON(t *testing.T) {
	t.Run("valid methods", func(t *testing.T) {
		tests := []struct {
			input string
			want  classifier.Method
		}{
			{`"embedding"`, classifier.MethodEmbedding},
			{`"llm"`, classifier.MethodLLM},
			{`"agent"`, classifier.MethodAgent},
		}

		for _, tt := range tests {
			t.Run(string(tt.want), func(t *testing.T) {
				var m classifier.Method
				if err := json.Unmarshal([]byte(tt.input), &m); err != nil {
					t.Fatalf("Unmarshal(%s) error: %v", tt.input, err)
				}
				if m != tt.want {
					t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, m, tt.want)
				}
			})
		}
	})

	t.Run("invalid method returns error", func(t *testing.T) {
		var m classifier.Method
		err := json.Unmarshal([]byte(`"keyword"`), &m)
		if !errors.Is(err, classifier.ErrInvalidMethod) {
			t.Errorf("Unmarshal(keyword) error = %v, want ErrInvalidMethod", err)
		}
	})
}

func TestParseMethod(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, err := classifier.ParseMethod("agent")
		if err != nil {
			t.Fatalf("ParseMethod error: %v", err)
		}
		if m != classifier.MethodAgent {
			t.Errorf("ParseMethod(agent) = %q, want agent", m)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := classifier.ParseMethod("exact")
		if !errors.Is(err, classifier.ErrInvalidMethod) {
			t.Errorf("ParseMethod(exact) error = %v, want ErrInvalidMethod", err)
		}
	})
}

func TestRequestCombinedInput(t *testing.T) {
	tests := []struct {
		name string
		req  classifier.Request
		want string
	}{
		{
			"name only",
			classifier.Request{TermName: "cust_nm"},
			"cust_nm",
		},
		{
			"name and description",
			classifier.Request{TermName: "cust_nm", Description: "customer full name"},
			"cust_nm - customer full name",
		},
		{
			"whitespace trimmed",
			classifier.Request{TermName: "  cust_nm ", Description: " customer full name "},
			"cust_nm - customer full name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.CombinedInput(); got != tt.want {
				t.Errorf("CombinedInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  classifier.Request
		want error
	}{
		{"valid", classifier.Request{TermName: "cust_nm", Method: classifier.MethodLLM}, nil},
		{"missing term name", classifier.Request{Method: classifier.MethodLLM}, classifier.ErrInvalidInput},
		{"blank term name", classifier.Request{TermName: "   ", Method: classifier.MethodLLM}, classifier.ErrInvalidInput},
		{"missing method", classifier.Request{TermName: "cust_nm"}, classifier.ErrInvalidMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", classifier.ErrInvalidInput, http.StatusBadRequest},
		{"invalid method", classifier.ErrInvalidMethod, http.StatusBadRequest},
		{"wrapped invalid input", fmt.Errorf("classify failed: %w", classifier.ErrInvalidInput), http.StatusBadRequest},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
