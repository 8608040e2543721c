package grabber

type StatusResponse struct {
	Name               string `json:"name"`
	Version            string `json:"version"`
	Description        string `json:"description"`
	ProviderConfigured bool   `json:"providerConfigured"`
}

type LookupResponse struct {
	VideoID   string       `json:"videoId"`
	WatchURL  string       `json:"watchUrl"`
	Title     string       `json:"title"`
	Duration  string       `json:"duration"`
	Thumbnail string       `json:"thumbnail"`
	Options   []OptionItem `json:"options"`
}

// OptionItem is one ranked download choice. Combined options carry two
// downloads, the silent video and the paired audio track, which the user
// merges with an external tool.
type OptionItem struct {
	Index      int            `json:"index"`
	Label      string         `json:"label"`
	Extension  string         `json:"extension"`
	Size       string         `json:"size"`
	SizeText   string         `json:"sizeText"`
	HasAudio   bool           `json:"hasAudio"`
	IsCombined bool           `json:"isCombined"`
	Downloads  []DownloadItem `json:"downloads"`
	MergeHint  string         `json:"mergeHint,omitempty"`
}

type DownloadItem struct {
	Part     string `json:"part"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
