package provider

import (
	"encoding/json"
	"fmt"

	"github.com/dbytex91/vidgrab/internal/formats"
)

// VideoDetails is the provider document for one video, reduced to what the
// service needs.
type VideoDetails struct {
	ID        string                     `json:"id"`
	Title     string                     `json:"title"`
	Duration  string                     `json:"duration"`
	Thumbnail string                     `json:"thumbnail"`
	Videos    []formats.StreamDescriptor `json:"videos"`
	Audios    []formats.StreamDescriptor `json:"audios"`
}

type detailsResponse struct {
	Status        *bool       `json:"status"`
	ErrorID       string      `json:"errorId"`
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	LengthSeconds textValue   `json:"lengthSeconds"`
	Thumbnails    []thumbnail `json:"thumbnails"`
	Videos        streamList  `json:"videos"`
	Audios        streamList  `json:"audios"`
}

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type streamList struct {
	Status *bool        `json:"status"`
	Items  []streamItem `json:"items"`
}

type streamItem struct {
	URL          string    `json:"url"`
	Quality      string    `json:"quality"`
	Extension    string    `json:"extension"`
	Size         textValue `json:"size"`
	HasAudio     *bool     `json:"hasAudio"`
	HasVideo     *bool     `json:"hasVideo"`
	AudioQuality string    `json:"audioQuality"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	ErrorID string `json:"errorId"`
}

func (er ErrorResponse) Error() string {
	if er.ErrorID != "" {
		return fmt.Sprintf("[%s,%s]", er.Message, er.ErrorID)
	}
	return fmt.Sprintf("[%s]", er.Message)
}

// textValue accepts a JSON string or number and keeps its text form. Other
// values decode to an empty string.
type textValue string

func (t *textValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = textValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = textValue(n.String())
		return nil
	}

	*t = ""
	return nil
}

func (item streamItem) descriptor(defaultAudio, defaultVideo bool) formats.StreamDescriptor {
	return formats.StreamDescriptor{
		Quality:      item.Quality,
		Extension:    item.Extension,
		Size:         string(item.Size),
		URL:          item.URL,
		HasAudio:     boolOr(item.HasAudio, defaultAudio),
		HasVideo:     boolOr(item.HasVideo, defaultVideo),
		AudioQuality: item.AudioQuality,
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
