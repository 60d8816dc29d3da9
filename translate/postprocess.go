package translate

import "strings"

const fence = "```"

// UnwrapCodeFence removes a code fence the model wrapped around the whole
// document. It applies only when the trimmed response both starts and ends
// with ``` and has at least two lines; the first and last lines are dropped.
//
// A document that starts with one fenced block and ends with another looks
// the same from the outside, so fence lines between the two markers keep the
// text as is. The exception is a ```markdown or ```md opener with an even
// number of inner fence lines, which is a wrapped document containing its
// own code blocks.
func UnwrapCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, fence) || !strings.HasSuffix(trimmed, fence) {
		return text
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return text
	}
	inner := lines[1 : len(lines)-1]
	fences := 0
	for _, l := range inner {
		if strings.HasPrefix(strings.TrimSpace(l), fence) {
			fences++
		}
	}
	if fences > 0 {
		info := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(lines[0], fence)))
		if (info != "markdown" && info != "md") || fences%2 != 0 {
			return text
		}
	}
	return strings.Join(inner, "\n")
}

// MatchTrailingNewline makes out end with a newline exactly when source
// does. A missing newline is added; when source has none, every trailing
// newline of out is removed.
func MatchTrailingNewline(source, out string) string {
	if strings.HasSuffix(source, "\n") {
		if !strings.HasSuffix(out, "\n") {
			return out + "\n"
		}
		return out
	}
	return strings.TrimRight(out, "\n")
}
