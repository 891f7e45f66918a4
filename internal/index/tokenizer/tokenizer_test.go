package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "punctuation and possessive",
			input: "Santorini's Sunset!!",
			want:  []string{"santorini", "sunset"},
		},
		{
			name:  "short tokens dropped",
			input: "a to the sea",
			want:  []string{"the", "sea"},
		},
		{
			name:  "mixed case",
			input: "Hiking TRAILS in Patagonia",
			want:  []string{"hiking", "trails", "patagonia"},
		},
		{
			name:  "digits kept",
			input: "route 66 road66 trip",
			want:  []string{"route", "road66", "trip"},
		},
		{
			name:  "empty",
			input: "",
			want:  []string{},
		},
		{
			name:  "only separators",
			input: "!!! --- ...",
			want:  []string{},
		},
		{
			name:  "unicode letters",
			input: "café münchen",
			want:  []string{"café", "münchen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	input := "Backpacking through South-East Asia, 2024 edition!"
	first := Tokenize(input)
	for i := 0; i < 10; i++ {
		if got := Tokenize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}
