// Package playeritem holds the state of the currently loaded media item:
// buffering flags, tracks, duration and loaded time ranges.
package playeritem

import (
	"time"

	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
)

// MediaType classifies an asset track.
type MediaType string

const (
	MediaAudio          MediaType = "audio"
	MediaClosedCaption  MediaType = "closedCaption"
	MediaDepthData      MediaType = "depthData"
	MediaMetadata       MediaType = "metadata"
	MediaMetadataObject MediaType = "metadataObject"
	MediaMuxed          MediaType = "muxed"
	MediaSubtitle       MediaType = "subtitle"
	MediaText           MediaType = "text"
	MediaTimecode       MediaType = "timecode"
	MediaVideo          MediaType = "video"
)

// Size is a track's natural size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AssetTrack describes one track of the loaded asset.
type AssetTrack struct {
	MediaType   MediaType `json:"mediaType"`
	Enabled     bool      `json:"enabled"`
	Playable    bool      `json:"playable"`
	Decodable   bool      `json:"decodable"`
	NaturalSize Size      `json:"naturalSize"`
}

// State represents the loaded item as reported by the engine.
type State struct {
	Method mo.Option[Method]

	PreferredForwardBufferDuration time.Duration
	AssetTracks                    []AssetTrack
	PlaybackBufferEmpty            bool
	PlaybackBufferFull             bool
	PlaybackLikelyToKeepUp         bool
	Duration                       time.Duration
	// LoadedTimeRanges is ascending and non-overlapping per the engine contract.
	LoadedTimeRanges []mediatime.TimeRange
}

// NewState creates the state of a freshly replaced item.
func NewState() State {
	return State{
		PlaybackBufferEmpty: true,
	}
}

// IsLive reports whether the item has no known end.
func (s State) IsLive() bool {
	return mediatime.IsIndefinite(s.Duration)
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	c := s
	c.AssetTracks = append([]AssetTrack(nil), s.AssetTracks...)
	c.LoadedTimeRanges = append([]mediatime.TimeRange(nil), s.LoadedTimeRanges...)
	return c
}
