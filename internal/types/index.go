package types

// IndexProject is the subset of a JSON package-index document the resolver
// reads (PyPI's /pypi/<name>/json shape).
type IndexProject struct {
	Info     IndexInfo                 `json:"info"`
	Releases map[string][]IndexRelease `json:"releases"`
}

type IndexInfo struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Author      string            `json:"author"`
	Summary     string            `json:"summary"`
	HomePage    string            `json:"home_page"`
	PackageURL  string            `json:"package_url"`
	ProjectURLs map[string]string `json:"project_urls"`
}

type IndexRelease struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	PackageType string `json:"packagetype"`
}
