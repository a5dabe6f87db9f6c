// +build gofuzz

package lexer

import (
	"fmt"
)

// Fuzz is the entry point for go-fuzz.
func Fuzz(data []byte) int {
	l := Lexer{}
	metric, event, check, err := l.Run(data, "")
	if err != nil {
		return 0
	}
	parsed := 0
	if metric != nil {
		parsed++
	}
	if event != nil {
		parsed++
	}
	if check != nil {
		parsed++
	}
	if parsed != 1 {
		panic(fmt.Errorf("parsed %d values from %q", parsed, data))
	}
	return 1
}
