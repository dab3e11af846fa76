package mpd

import (
	"strconv"
	"strings"

	"github.com/edumarques81/superplayer/internal/domain/playeritem"
)

// AudioFormat is the output format MPD reports for the current song.
type AudioFormat struct {
	SampleRate int    `json:"sampleRate"`
	BitDepth   int    `json:"bitDepth"`
	Channels   int    `json:"channels"`
	Format     string `json:"format"` // "PCM", "DSD64", "DSD128", ...
}

// parseAudioFormat parses MPD's "samplerate:bits:channels" audio field
// (e.g. "192000:24:2"). DSD is recognized by its sample rate.
func parseAudioFormat(audio string) (AudioFormat, bool) {
	parts := strings.Split(audio, ":")
	if len(parts) < 2 {
		return AudioFormat{}, false
	}

	sampleRate, err := strconv.Atoi(parts[0])
	if err != nil {
		return AudioFormat{}, false
	}

	// Floating point output is reported as "f".
	bitDepth, err := strconv.Atoi(parts[1])
	if err != nil && parts[1] != "f" {
		return AudioFormat{}, false
	}
	if parts[1] == "f" {
		bitDepth = 32
	}

	channels := 2
	if len(parts) >= 3 {
		if ch, err := strconv.Atoi(parts[2]); err == nil {
			channels = ch
		}
	}

	return AudioFormat{
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
		Format:     detectAudioFormatType(sampleRate),
	}, true
}

// detectAudioFormatType names the format. DSD rates are multiples of the CD
// rate: DSD64 = 2822400 Hz, DSD128 = 5644800 Hz and so on.
func detectAudioFormatType(sampleRate int) string {
	switch sampleRate {
	case 2822400:
		return "DSD64"
	case 5644800:
		return "DSD128"
	case 11289600:
		return "DSD256"
	case 22579200:
		return "DSD512"
	default:
		return "PCM"
	}
}

// FormatSampleRate returns a human-readable sample rate.
func FormatSampleRate(sampleRate int) string {
	if sampleRate >= 1000000 {
		return detectAudioFormatType(sampleRate)
	}
	if sampleRate >= 1000 {
		return strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64) + "kHz"
	}
	return strconv.Itoa(sampleRate) + "Hz"
}

func (f AudioFormat) String() string {
	return f.Format + " " + FormatSampleRate(f.SampleRate) + "/" + strconv.Itoa(f.BitDepth) + "-bit"
}

// tracksFor derives the asset tracks of the current song. MPD only decodes
// audio: a song with a reported output format has one playable audio track,
// a song that failed has one undecodable track, anything else has none.
func tracksFor(audio, mpdErr string, hasSong bool) []playeritem.AssetTrack {
	if !hasSong {
		return nil
	}
	_, ok := parseAudioFormat(audio)
	switch {
	case ok:
		return []playeritem.AssetTrack{{
			MediaType: playeritem.MediaAudio,
			Enabled:   true,
			Playable:  true,
			Decodable: true,
		}}
	case mpdErr != "":
		return []playeritem.AssetTrack{{
			MediaType: playeritem.MediaAudio,
			Enabled:   true,
			Playable:  true,
		}}
	default:
		return nil
	}
}
