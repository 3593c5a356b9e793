package runner

import (
	"net/url"
	"strings"
)

type knownApp struct {
	key  string
	name string
	url  string
}

// knownApps maps goal keywords to a starting URL. Order matters: the
// first match in the goal wins, so multi-word keys come before their
// prefixes ("google docs" before anything matching "google").
var knownApps = []knownApp{
	{"linear", "Linear", "https://linear.app"},
	{"notion", "Notion", "https://notion.so"},
	{"github", "GitHub", "https://github.com"},
	{"gitlab", "GitLab", "https://gitlab.com"},
	{"jira", "Jira", "https://atlassian.net"},
	{"trello", "Trello", "https://trello.com"},
	{"asana", "Asana", "https://asana.com"},
	{"slack", "Slack", "https://slack.com"},
	{"figma", "Figma", "https://figma.com"},
	{"google docs", "Google Docs", "https://docs.google.com"},
	{"google sheets", "Google Sheets", "https://sheets.google.com"},
	{"google drive", "Google Drive", "https://drive.google.com"},
	{"dropbox", "Dropbox", "https://dropbox.com"},
	{"airtable", "Airtable", "https://airtable.com"},
	{"monday", "Monday.com", "https://monday.com"},
	{"clickup", "ClickUp", "https://clickup.com"},
	{"todoist", "Todoist", "https://todoist.com"},
	{"spotify", "Spotify", "https://open.spotify.com"},
	{"youtube", "YouTube", "https://youtube.com"},
	{"twitter", "Twitter/X", "https://twitter.com"},
	{"linkedin", "LinkedIn", "https://linkedin.com"},
	{"reddit", "Reddit", "https://reddit.com"},
	{"amazon", "Amazon", "https://amazon.com"},
	{"ebay", "eBay", "https://ebay.com"},
}

// InferApp resolves the application name and opening URL from the goal
// text. An explicit startURL wins over the keyword table's URL but
// still borrows the matched name. Unknown goals with no URL start on
// whatever page the driver already shows.
func InferApp(goal, startURL string) (name, openURL string) {
	lower := strings.ToLower(goal)
	for _, app := range knownApps {
		if strings.Contains(lower, app.key) {
			if startURL != "" {
				return app.name, startURL
			}
			return app.name, app.url
		}
	}
	if startURL != "" {
		return nameFromURL(startURL), startURL
	}
	return "Web Application", ""
}

func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Web Application"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	if host == "" {
		return "Web Application"
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
