package infrastructure

import "strings"

// shellSpecial lists characters that would need quoting if the displayed
// command line were pasted into a shell.
const shellSpecial = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// CommandLine renders a binary and its arguments as a copy-pasteable shell
// string. Used for logging only; exec.Command passes args directly and
// needs no quoting.
func CommandLine(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	// single-quote wrapping; embedded quotes become '"'"'
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
