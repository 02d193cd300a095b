package model

// AudioType says where an audio asset came from.
type AudioType string

const (
	AudioRecorded AudioType = "recorded"
	AudioUploaded AudioType = "uploaded"
	AudioRemote   AudioType = "remote"
)

func (t AudioType) IsValid() bool {
	switch t {
	case AudioRecorded, AudioUploaded, AudioRemote:
		return true
	}
	return false
}

// ContentType is the MIME type used when uploading audio of this type.
func (t AudioType) ContentType() string {
	if t == AudioRecorded {
		return "audio/m4a"
	}
	return "audio/mpeg"
}

// AudioAsset is a named, playable audio reference.
type AudioAsset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URI       string    `json:"uri"`
	Type      AudioType `json:"type"`
	Duration  int64     `json:"duration,omitempty"` // milliseconds
	AudioText string    `json:"audioText,omitempty"`
}

// GeneratedAudio is the voice backend's answer for one generation request.
type GeneratedAudio struct {
	FileKey string
	URL     string
	Time    float64
}
