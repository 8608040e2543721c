package formats

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
)

const (
	UnknownQuality = "Unknown"
	UnknownSize    = "Unknown"

	DefaultVideoExtension = "mp4"
	DefaultAudioExtension = "mp3"

	withAudioSuffix = " (With Audio)"
	videoOnlySuffix = " (Video Only)"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// Reconcile turns the provider's video and audio streams into download
// options, one per video stream, ordered from the highest quality down.
//
// Silent video streams are paired with the first audio stream when there is
// one. Audio streams never produce options on their own.
func Reconcile(videoStreams, audioStreams []StreamDescriptor) []RankedOption {
	options := make([]RankedOption, 0, len(videoStreams))
	silent := make([]StreamDescriptor, 0, len(videoStreams))

	for _, v := range videoStreams {
		if !v.HasAudio {
			silent = append(silent, v)
			continue
		}

		options = append(options, RankedOption{
			Video:     v,
			Label:     qualityLabel(v),
			Extension: extensionOrDefault(v.Extension, DefaultVideoExtension),
			Size:      sizeOrUnknown(v.Size),
			HasAudio:  true,
		})
	}

	var bestAudio *StreamDescriptor
	if len(audioStreams) > 0 {
		first := audioStreams[0]
		bestAudio = &first
	}

	for _, v := range silent {
		if bestAudio == nil {
			options = append(options, RankedOption{
				Video:     v,
				Label:     qualityLabel(v) + videoOnlySuffix,
				Extension: extensionOrDefault(v.Extension, DefaultVideoExtension),
				Size:      sizeOrUnknown(v.Size),
			})
			continue
		}

		audio := *bestAudio
		options = append(options, RankedOption{
			Video:      v,
			Audio:      &audio,
			Label:      qualityLabel(v) + withAudioSuffix,
			Extension:  extensionOrDefault(v.Extension, DefaultVideoExtension),
			Size:       sumSizes(v.Size, audio.Size),
			HasAudio:   true,
			IsCombined: true,
		})
	}

	slices.SortStableFunc(options, func(o1, o2 RankedOption) int {
		return cmp.Compare(QualityRank(o2.Video.Quality), QualityRank(o1.Video.Quality))
	})

	return options
}

// QualityRank returns the first run of decimal digits in a quality label,
// e.g. 1080 for "1080p60". Labels without digits rank as 0.
func QualityRank(label string) int {
	digits := digitRun.FindString(label)
	if digits == "" {
		return 0
	}

	rank, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}

	return rank
}

func qualityLabel(s StreamDescriptor) string {
	if s.Quality == "" {
		return UnknownQuality
	}

	return s.Quality
}

func extensionOrDefault(ext, fallback string) string {
	if ext == "" {
		return fallback
	}

	return ext
}

func sizeOrUnknown(size string) string {
	if size == "" {
		return UnknownSize
	}

	return size
}
