package util

import "testing"

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "removes nul bytes",
			input: "abc\x00def",
			want:  "abcdef",
		},
		{
			name:  "drops invalid utf8",
			input: string([]byte{'o', 'k', 0xff, '!'}),
			want:  "ok!",
		},
		{
			name:  "normalizes line endings",
			input: "a\r\nb\rc\n",
			want:  "a\nb\nc\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeText(tt.input)
			if got != tt.want {
				t.Fatalf("SanitizeText() = %q, want %q", got, tt.want)
			}
		})
	}
}
