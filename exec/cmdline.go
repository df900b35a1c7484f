package exec

import "strings"

// CommandLine renders args as a single space-joined command line. Arguments
// containing a space, tab, double quote or backslash, and empty arguments,
// are wrapped in double quotes. Inside quotes a double quote is escaped with
// a backslash and backslashes that precede a quote are doubled.
func CommandLine(args []string) string {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		quoteArg(&sb, arg)
	}
	return sb.String()
}

func quoteArg(sb *strings.Builder, arg string) {
	if arg != "" && !strings.ContainsAny(arg, " \t\"\\") {
		sb.WriteString(arg)
		return
	}

	sb.WriteByte('"')
	backslashes := 0
	for i := 0; i < len(arg); i++ {
		ch := arg[i]
		switch ch {
		case '\\':
			backslashes++
			continue
		case '"':
			sb.WriteString(strings.Repeat(`\`, backslashes*2+1))
		default:
			sb.WriteString(strings.Repeat(`\`, backslashes))
		}
		backslashes = 0
		sb.WriteByte(ch)
	}
	sb.WriteString(strings.Repeat(`\`, backslashes*2))
	sb.WriteByte('"')
}
