package superplayer

import (
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/pip"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
)

// EngineLogDomain is the error-log domain of failed engine commands.
const EngineLogDomain = "engine"

func (r Reducer) policy(s *State, a Action) []Effect {
	switch a := a.(type) {
	case Begin:
		s.SessionID = a.SessionID
		return []Effect{Send(Player{Action: player.Call(player.StartObservers())})}

	case Load:
		if a.URL == "" {
			return nil
		}
		next := player.Pause()
		if a.AutoPlay {
			next = player.Play()
		}
		return []Effect{
			Cancel(CancelReloadAfterEnd),
			Send(
				Player{Action: player.Call(player.ReplaceCurrentItem(a.URL))},
				ResetPlayerItem{URL: a.URL},
				Player{Action: player.Call(next)},
			),
		}

	case ResetPlayerItem:
		return resetPlayerItem(s, a.URL)

	case Unload:
		s.CurrentURL = ""
		s.RetryCount = 0
		return []Effect{
			Cancel(CancelReloadAfterEnd),
			Cancel(CancelCheckResource),
			Send(
				Player{Action: player.Call(player.ReplaceCurrentItem(""))},
				PlayerItem{Action: playeritem.Call(playeritem.MethodStopObservers)},
				NotificationCenter{Action: notification.Call(notification.MethodStopPlayerItemObservers)},
			),
		}

	case End:
		s.RetryCount = 0
		return []Effect{Cancel(CancelCheckResource)}

	case SeekBarWidth:
		s.Control.SeekBarWidth = a.Width
		updateTimeLabels(s)
		layoutSegments(s)
		labelSegments(s)
		return nil

	case Backward:
		cur := max(s.Player.CurrentTime, 0)
		return seekTo(cur - min(max(a.By, 0), cur))

	case Forward:
		cur := max(s.Player.CurrentTime, 0)
		t := mediatime.Clamp(mediatime.Add(cur, max(a.By, 0)), 0, s.PlayerItem.Duration)
		return seekTo(t)

	case SlidingSeeker:
		width := s.Control.SeekBarWidth
		if width <= 0 || s.PlayerItem.IsLive() {
			return nil
		}
		fraction := lo.Clamp(a.To/width, 0, 1)
		t := mediatime.WholeSeconds(mediatime.FromSeconds(fraction * s.PlayerItem.Duration.Seconds()))
		return []Effect{Send(Player{Action: player.CurrentTimeChanged{Time: t}})}

	case DoneSeeking:
		return []Effect{Send(
			Player{Action: player.Call(player.Seek(s.Player.CurrentTime))},
			Player{Action: player.Call(player.Play())},
		)}

	case SetPlaybackTimeRange:
		s.PlaybackTimeRange = a.Range
		effects := []Effect{Cancel(CancelPlaybackTimeRange)}
		if s.SuspendedBufferDuration.IsPresent() {
			effects = append(effects, Send(RestoreBuffering{}))
		}
		return effects

	case RestoreBuffering:
		saved, ok := s.SuspendedBufferDuration.Get()
		if !ok {
			return nil
		}
		s.SuspendedBufferDuration = mo.None[time.Duration]()
		return []Effect{Send(
			Player{Action: player.AutomaticallyWaitsChanged{Enabled: true}},
			PlayerItem{Action: playeritem.PreferredForwardBufferDurationChanged{Duration: saved}},
		)}

	case SetVideoGravity:
		s.VideoGravity = a.Gravity
	case SetLooperEnabled:
		s.LooperEnabled = a.Enabled

	case SetPictureInPictureMode:
		s.PictureInPictureMode = a.Enabled
		m := pip.MethodStop
		if a.Enabled && s.PictureInPicture.Possible {
			m = pip.MethodStart
		}
		return []Effect{Send(PictureInPicture{Action: pip.Call(m)})}

	case EngineCommandFailed:
		return []Effect{Send(NotificationCenter{Action: notification.LogReceived{Log: notification.ErrorLog{
			URI:               s.CurrentURL,
			PlaybackSessionID: s.SessionID,
			Domain:            EngineLogDomain,
			Comment:           a.Command + ": " + a.Err,
		}}})}

	case Player:
		return playerPolicy(s, a.Action)
	case PlayerItem:
		return playerItemPolicy(s, a.Action)
	case NotificationCenter:
		return notificationPolicy(s, a.Action)
	case PictureInPicture:
		return pictureInPicturePolicy(a.Action)
	}
	return nil
}

func resetPlayerItem(s *State, url string) []Effect {
	item := playeritem.NewState()
	item.PreferredForwardBufferDuration = s.PlayerItem.PreferredForwardBufferDuration

	s.CurrentURL = url
	s.RetryCount = 0
	s.AvailableMedia = nil
	s.Control.ActualDuration = 0
	s.Control.ActualDurationLabel = mediatime.Readable(0)
	s.Control.LoadedTimes = nil

	var effects []Effect
	if saved, ok := s.SuspendedBufferDuration.Get(); ok {
		item.PreferredForwardBufferDuration = saved
		s.SuspendedBufferDuration = mo.None[time.Duration]()
		effects = append(effects, Send(Player{Action: player.AutomaticallyWaitsChanged{Enabled: true}}))
	}
	s.PlayerItem = item

	return append(effects, Send(
		PlayerItem{Action: playeritem.Call(playeritem.MethodStartObservers)},
		NotificationCenter{Action: notification.Call(notification.MethodStartPlayerItemObservers)},
	))
}

func seekTo(t time.Duration) []Effect {
	return []Effect{Send(
		Player{Action: player.CurrentTimeChanged{Time: t}},
		Player{Action: player.Call(player.Seek(t))},
	)}
}

func playerPolicy(s *State, a player.Action) []Effect {
	switch a.(type) {
	case player.RateChanged:
		s.Control.PlayIcon = lo.Ternary(s.Player.IsPlaying(), IconPause, IconPlay)
	case player.CurrentTimeChanged:
		updateTimeLabels(s)
	}
	return nil
}

func playerItemPolicy(s *State, a playeritem.Action) []Effect {
	switch a := a.(type) {
	case playeritem.DurationChanged:
		s.IsLive = mediatime.IsIndefinite(a.Duration)
		s.Control.ActualDuration = lo.Ternary(s.IsLive, 0, a.Duration)
		s.Control.ActualDurationLabel = mediatime.Readable(s.Control.ActualDuration)
		updateTimeLabels(s)

	case playeritem.LoadedTimeRangesChanged:
		last, ok := mediatime.Last(a.Ranges)
		if !ok {
			return nil
		}
		layoutSegments(s)

		var effects []Effect
		current := s.Player.CurrentTime
		if last.End()-current >= SufficientBuffer &&
			s.Player.TimeControlStatus == player.TimeControlWaitingToPlayAtSpecifiedRate {
			effects = append(effects, Send(Player{Action: player.Call(player.PlayImmediately())}))
		}

		window, ok := s.PlaybackTimeRange.Get()
		if !ok || window.End() > last.End() {
			return effects
		}
		if s.SuspendedBufferDuration.IsAbsent() {
			s.SuspendedBufferDuration = mo.Some(s.PlayerItem.PreferredForwardBufferDuration)
		}
		return append(effects,
			Send(
				Player{Action: player.AutomaticallyWaitsChanged{Enabled: false}},
				PlayerItem{Action: playeritem.PreferredForwardBufferDurationChanged{Duration: WindowForwardBufferDuration}},
			),
			After(
				mediatime.WholeSeconds(window.End()-current),
				CancelPlaybackTimeRange,
				Player{Action: player.Call(player.Pause())},
				RestoreBuffering{},
				NoPlaybackWindow(),
			),
		)
	}
	return nil
}

func notificationPolicy(s *State, a notification.Action) []Effect {
	received, ok := a.(notification.Received)
	if !ok {
		return nil
	}
	switch received.Event.OrElse(-1) {
	case notification.EventPlaybackStalled:
		s.NumberOfStalls++
	case notification.EventDidPlayToEndTime:
		if s.IsLive || !s.IsLoaded() {
			return nil
		}
		return []Effect{After(ReplayReloadDelay, CancelReloadAfterEnd, Load{URL: s.CurrentURL})}
	}
	return nil
}

func pictureInPicturePolicy(a pip.Action) []Effect {
	switch a := a.(type) {
	case pip.EnabledChanged:
		if a.Enabled {
			return []Effect{Send(NotificationCenter{Action: notification.Call(notification.MethodStartLifecycleObservers)})}
		}
	case pip.CallDelegate:
		switch a.Delegate {
		case pip.DidStart:
			return []Effect{Send(Player{Action: player.Call(player.Play())})}
		case pip.RestoreUI:
			return []Effect{Send(PictureInPicture{Action: pip.Call(pip.MethodStop)})}
		}
	}
	return nil
}

// updateTimeLabels derives the time labels and seeker position from the
// current time, actual duration and seek bar width.
func updateTimeLabels(s *State) {
	current := s.Player.CurrentTime
	actual := s.Control.ActualDuration
	s.Control.CurrentTimeLabel = mediatime.Readable(current)
	s.Control.RemainingTimeLabel = mediatime.Readable(max(actual-current, 0))
	s.Control.SeekerPosition = lo.Clamp(
		s.Control.SeekBarWidth*mediatime.Fraction(current, actual), 0, max(s.Control.SeekBarWidth, 0))
}

// layoutSegments scales the loaded ranges to the seek bar. A live item has no
// meaningful duration, so its ranges span the whole bar.
func layoutSegments(s *State) {
	width := s.Control.SeekBarWidth
	actual := s.Control.ActualDuration
	s.Control.LoadedTimes = lo.Map(s.PlayerItem.LoadedTimeRanges, func(r mediatime.TimeRange, _ int) LoadedTime {
		if s.IsLive {
			return LoadedTime{BarWidth: width}
		}
		return LoadedTime{
			BarWidth:  width * mediatime.Fraction(r.Duration, actual),
			BarOffset: width * mediatime.Fraction(r.Start, actual),
		}
	})
}
