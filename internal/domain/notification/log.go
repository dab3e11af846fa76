package notification

import (
	"net/url"
	"time"
)

// PlaybackType tags an access log entry.
type PlaybackType string

const (
	PlaybackVOD  PlaybackType = "VOD"
	PlaybackLive PlaybackType = "LIVE"
	PlaybackFile PlaybackType = "FILE"
)

// ParsePlaybackType maps an engine tag to a PlaybackType; unknown tags yield "".
func ParsePlaybackType(tag string) PlaybackType {
	switch PlaybackType(tag) {
	case PlaybackVOD, PlaybackLive, PlaybackFile:
		return PlaybackType(tag)
	default:
		return ""
	}
}

// LogKind distinguishes access entries from error entries.
type LogKind string

const (
	LogAccess LogKind = "access"
	LogError  LogKind = "error"
)

// Log is an access or error log entry reported for the current item.
type Log interface {
	Kind() LogKind
	URL() *url.URL
}

// AccessLog is one access-log event of the current item.
type AccessLog struct {
	URI                        string        `json:"uri,omitempty"`
	ServerAddress              string        `json:"serverAddress,omitempty"`
	TransferDuration           time.Duration `json:"transferDuration"`
	BytesTransferred           int64         `json:"bytesTransferred"`
	MediaRequests              int           `json:"mediaRequests"`
	PlaybackSessionID          string        `json:"playbackSessionId,omitempty"`
	PlaybackType               PlaybackType  `json:"playbackType,omitempty"`
	DroppedVideoFrames         int           `json:"droppedVideoFrames"`
	Stalls                     int           `json:"stalls"`
	SegmentsDownloadedDuration time.Duration `json:"segmentsDownloadedDuration"`
	DownloadOverdue            int           `json:"downloadOverdue"`
	SwitchBitrate              float64       `json:"switchBitrate"`
	IndicatedBitrate           float64       `json:"indicatedBitrate"`
	ObservedBitrate            float64       `json:"observedBitrate"`
}

// ErrorLog is one error-log event of the current item.
type ErrorLog struct {
	URI               string `json:"uri,omitempty"`
	ServerAddress     string `json:"serverAddress,omitempty"`
	PlaybackSessionID string `json:"playbackSessionId,omitempty"`
	StatusCode        int    `json:"statusCode"`
	Domain            string `json:"domain"`
	Comment           string `json:"comment,omitempty"`
}

func (AccessLog) Kind() LogKind { return LogAccess }
func (ErrorLog) Kind() LogKind  { return LogError }

func (l AccessLog) URL() *url.URL { return parseURI(l.URI) }
func (l ErrorLog) URL() *url.URL  { return parseURI(l.URI) }

func parseURI(uri string) *url.URL {
	if uri == "" {
		return nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil
	}
	return u
}
