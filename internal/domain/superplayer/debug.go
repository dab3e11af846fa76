package superplayer

import (
	"strings"

	"github.com/samber/lo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
)

// labelInset keeps segment labels inside the seek bar.
const labelInset = 32

// debug derives the diagnostic projections. It only writes display fields
// and never returns effects that reach the engine.
func debug(s *State, a Action) []Effect {
	switch a := a.(type) {
	case SetReloadCountdown:
		s.ReloadCountdown = a.Countdown

	case Player:
		if _, ok := a.Action.(player.WaitingReasonChanged); ok {
			labelSegments(s)
		}

	case PlayerItem:
		switch a := a.Action.(type) {
		case playeritem.LoadedTimeRangesChanged:
			last, ok := mediatime.Last(a.Ranges)
			if !ok {
				return nil
			}
			if s.IsLive {
				s.Control.ActualDuration = last.End()
				s.Control.ActualDurationLabel = mediatime.Readable(last.End())
			}
			labelSegments(s)

		case playeritem.AssetTracksChanged:
			s.AvailableMedia = lo.Map(a.Tracks, func(t playeritem.AssetTrack, _ int) MediaInfo {
				return describeTrack(t)
			})
		}
	}
	return nil
}

// labelSegments adds start/end labels and colors to the laid-out segments.
// A segment ending exactly at the playhead is drawn yellow.
func labelSegments(s *State) {
	ranges := s.PlayerItem.LoadedTimeRanges
	if len(ranges) != len(s.Control.LoadedTimes) {
		return
	}
	maxOffset := max(s.Control.SeekBarWidth-labelInset, 0)
	for i, r := range ranges {
		seg := &s.Control.LoadedTimes[i]
		seg.StartValue = mediatime.Readable(r.Start)
		seg.EndValue = mediatime.Readable(r.End())
		seg.StartOffset = lo.Clamp(seg.BarOffset, 0, maxOffset)
		seg.EndOffset = lo.Clamp(seg.BarOffset+seg.BarWidth, 0, maxOffset)
		seg.TimeColor = lo.Ternary(seg.EndValue == s.Control.CurrentTimeLabel, ColorYellow, ColorGreen)
	}
}

func describeTrack(t playeritem.AssetTrack) MediaInfo {
	var flags strings.Builder
	if !t.Enabled {
		flags.WriteString(":not_enabled")
	}
	if !t.Playable {
		flags.WriteString(":not_playable")
	}
	if !t.Decodable {
		flags.WriteString(":not_decodable")
	}
	return MediaInfo{Type: string(t.MediaType), Error: flags.String()}
}
