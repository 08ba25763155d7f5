package remote

import (
	"strings"
	"unicode"
)

// parseLine splits one raw line of client input into a command token and an
// optional argument.
//
// The command token is the leading run of non-whitespace characters. The
// argument is everything after the first whitespace character with trailing
// CR/LF stripped; interior whitespace is preserved verbatim because some
// commands take free-text arguments where spacing matters. Handlers trim
// what they need. A line holding only a command (plus trailing whitespace
// or line terminators) has no argument.
func parseLine(raw string) (command string, argument string, hasArgument bool) {
	i := strings.IndexFunc(raw, unicode.IsSpace)
	if i < 0 {
		return raw, "", false
	}

	command = raw[:i]

	rest := strings.TrimRight(raw[i+1:], "\r\n")
	if strings.TrimSpace(rest) == "" {
		return command, "", false
	}
	return command, rest, true
}
