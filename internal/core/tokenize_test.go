package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"unix", "a\nb\nc", []string{"a", "b", "c"}},
		{"windows", "a\r\nb\r\nc", []string{"a", "b", "c"}},
		{"old mac", "a\rb", []string{"a", "b"}},
		{"mixed", "a\r\nb\nc\rd", []string{"a", "b", "c", "d"}},
		{"trailing newline", "a\n", []string{"a", ""}},
		{"empty", "", []string{""}},
		{"blank line kept", "a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.in))
		})
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"quotes consumed", `"x"`, []string{"x"}},
		{"doubled quotes are not escapes", `"a""b"`, []string{"ab"}},
		{"empty fields", ",,", []string{"", "", ""}},
		{"trailing comma", "a,", []string{"a", ""}},
		{"empty line", "", []string{""}},
		{"spaces preserved", " a , b ", []string{" a ", " b "}},
		{"unterminated quote", `a,"b,c`, []string{"a", "b,c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.in))
		})
	}
}
