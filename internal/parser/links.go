package parser

import (
	"regexp"
	"strings"
)

var (
	// WikiLinkRe matches [[target]] and [[target|title]].
	WikiLinkRe = regexp.MustCompile(`\[\[(?P<url>[^\]|]+)(?:\|(?P<title>[^\]]+))?\]\]`)
	// MarkdownLinkRe matches [title](target).
	MarkdownLinkRe = regexp.MustCompile(`\[(?P<title>.*?)\]\((?P<url>.*?)\)`)
)

// LinkMatch is one link occurrence found by WikiLinkRe or MarkdownLinkRe.
type LinkMatch struct {
	URL   string
	Title string
	// Titled is false when the link had no title group at all, as in
	// [[target]]. An empty markdown title, [](target), is still titled.
	Titled bool
}

// MatchLink decodes the submatch indexes loc that re reported for text.
func MatchLink(re *regexp.Regexp, text string, loc []int) LinkMatch {
	var m LinkMatch
	if s, ok := group(re, "url", text, loc); ok {
		m.URL = s
	}
	m.Title, m.Titled = group(re, "title", text, loc)
	if !m.Titled {
		m.Title = m.URL
	}
	return m
}

// group returns the named submatch and whether it took part in the match.
func group(re *regexp.Regexp, name, text string, loc []int) (string, bool) {
	i := re.SubexpIndex(name)
	if i < 0 || 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return "", false
	}
	return text[loc[2*i]:loc[2*i+1]], true
}

// ExtractLinks collects link targets from body. Every wiki link comes
// before every markdown link; within each kind, document order is kept.
// Duplicates are preserved.
func ExtractLinks(body string) []string {
	var wiki, md []string
	for _, line := range strings.Split(body, "\n") {
		for _, loc := range WikiLinkRe.FindAllStringSubmatchIndex(line, -1) {
			wiki = append(wiki, MatchLink(WikiLinkRe, line, loc).URL)
		}
		for _, loc := range MarkdownLinkRe.FindAllStringSubmatchIndex(line, -1) {
			md = append(md, MatchLink(MarkdownLinkRe, line, loc).URL)
		}
	}
	return append(wiki, md...)
}
