package formats

// StreamDescriptor is one media stream as reported by the provider.
// Size is the provider's byte count kept in text form; it may be empty.
type StreamDescriptor struct {
	Quality      string `json:"quality,omitempty"`
	Extension    string `json:"extension,omitempty"`
	Size         string `json:"size,omitempty"`
	URL          string `json:"url"`
	HasAudio     bool   `json:"hasAudio"`
	HasVideo     bool   `json:"hasVideo"`
	AudioQuality string `json:"audioQuality,omitempty"`
}

// RankedOption is a display-ready download choice derived from the provider
// streams. Audio is set only for combined options, where the silent video and
// the paired audio track are downloaded as two files.
type RankedOption struct {
	Video      StreamDescriptor  `json:"video"`
	Audio      *StreamDescriptor `json:"audio,omitempty"`
	Label      string            `json:"label"`
	Extension  string            `json:"extension"`
	Size       string            `json:"size"`
	HasAudio   bool              `json:"hasAudio"`
	IsCombined bool              `json:"isCombined"`
}
