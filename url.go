package docatlas

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
)

// Link is a single outbound link discovered on a fetched page.
type Link struct {
	Target string `json:"href"`
	Text   string `json:"text,omitempty"`
}

// UnmarshalJSON accepts link records keyed by either "href" or "url".
// Fetch collaborators disagree on the field name, so both shapes are
// normalized into Target at the ingestion boundary.
func (l *Link) UnmarshalJSON(data []byte) error {
	var raw struct {
		Href string `json:"href"`
		URL  string `json:"url"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Target = raw.Href
	if l.Target == "" {
		l.Target = raw.URL
	}
	l.Text = raw.Text
	return nil
}

// NormalizeURL canonicalizes a URL into the string form used as the
// identity for visited-set membership and record-store keys: lowercase
// scheme and host, default ports stripped, fragment dropped, a single
// trailing slash collapsed unless the path is root, query preserved.
// Two URLs that normalize identically are the same page.
//
// Normalization is idempotent: NormalizeURL(NormalizeURL(u)) == NormalizeURL(u).
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", Errorf(EINVALID, "URL %q missing scheme or host", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "URL %q has unsupported scheme %q", raw, u.Scheme)
	}

	// Strip default ports.
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	u.Fragment = ""
	u.RawFragment = ""

	// Root is always "/" so that "https://x.com" and "https://x.com/" are
	// the same node; any other path loses its trailing slash.
	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// Domain returns the lowercase host portion of a URL, or "" if the URL
// cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// blockedExtensions lists path extensions excluded from crawling. Binary
// and styling assets cannot yield extractable API facts.
var blockedExtensions = map[string]struct{}{
	".pdf":   {},
	".png":   {},
	".jpg":   {},
	".jpeg":  {},
	".gif":   {},
	".svg":   {},
	".ico":   {},
	".webp":  {},
	".zip":   {},
	".gz":    {},
	".tar":   {},
	".bz2":   {},
	".mp4":   {},
	".mp3":   {},
	".webm":  {},
	".css":   {},
	".js":    {},
	".woff":  {},
	".woff2": {},
	".ttf":   {},
	".eot":   {},
	".exe":   {},
	".dmg":   {},
}

// BlockedAsset reports whether the URL path points at a binary or
// non-documentation asset that should never be enqueued.
func BlockedAsset(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	ext := strings.ToLower(path.Ext(u.Path))
	_, ok := blockedExtensions[ext]
	return ok
}
