package extract

import (
	"regexp"

	"github.com/acarl005/stripansi"
)

var urlRegex = regexp.MustCompile(`(?im)(http|https|ftp|ftps)://[a-zA-Z0-9\-.]+\.[a-zA-Z]{2,3}(/\S*)?`)

type Result struct {
	URL   string
	Found bool
}

func (r Result) String() string {
	if !r.Found {
		return "not found"
	}

	return r.URL
}

// Strip removes terminal escape sequences, which would otherwise
// break up the text we are matching against.
func Strip(text string) string {
	return stripansi.Strip(text)
}

// Extract returns the first URL-shaped token in the text.
func Extract(text string) Result {
	match := urlRegex.FindString(Strip(text))
	if match == "" {
		return Result{}
	}

	return Result{URL: match, Found: true}
}
