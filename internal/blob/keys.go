package blob

import (
	"fmt"
	"path"
	"strings"
)

// Key layout.
const (
	SourcePrefix = "sources/"
	ChartPrefix  = "charts/"

	sourceExt = ".ged"
	chartExt  = ".txt"
)

// Content types attached on Put.
const (
	ContentTypeGEDCOM = "text/vnd.familysearch.gedcom"
	ContentTypeChart  = "text/plain; charset=utf-8"
)

// SourceKey maps a source name to its key. A bare name gets the .ged
// extension and the sources/ prefix; a name already carrying the prefix is
// returned unchanged.
func SourceKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, SourcePrefix) {
		return name, nil
	}
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("invalid source name %q", name)
	}
	if !strings.HasSuffix(strings.ToLower(base), sourceExt) {
		base += sourceExt
	}
	return SourcePrefix + base, nil
}

// ChartKey is the key a rendered chart is published under. run distinguishes
// repeated publications of the same query.
func ChartKey(query, subject, run string) string {
	return fmt.Sprintf("%s%s/%s-%s%s", ChartPrefix, query, subject, run, chartExt)
}
