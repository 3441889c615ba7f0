package domain

import "time"

// VideoInfo describes one probed media file and its audio tracks.
type VideoInfo struct {
	FilePath    string       `json:"filePath"`
	Duration    float64      `json:"duration"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	AudioTracks []AudioTrack `json:"audioTracks"`
}

// AudioTrack is one selectable audio stream inside a video container.
type AudioTrack struct {
	ID         int    `json:"id"`
	Language   string `json:"language,omitempty"`
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sampleRate"`
}

// Subtitle is one timed text entry. Times are seconds from media start.
type Subtitle struct {
	ID        string  `json:"id"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
}

// RecognitionStatus tracks the lifecycle of one backend recognition task.
type RecognitionStatus string

const (
	RecognitionPending    RecognitionStatus = "pending"
	RecognitionProcessing RecognitionStatus = "processing"
	RecognitionCompleted  RecognitionStatus = "completed"
	RecognitionFailed     RecognitionStatus = "failed"
	RecognitionCancelled  RecognitionStatus = "cancelled"
)

// Terminal reports whether no further status transitions are possible.
func (s RecognitionStatus) Terminal() bool {
	switch s {
	case RecognitionCompleted, RecognitionFailed, RecognitionCancelled:
		return true
	default:
		return false
	}
}

// RecognitionTask is the domain record for one recognition request.
// Progress is a percentage in [0,100].
type RecognitionTask struct {
	ID        string            `json:"id"`
	Status    RecognitionStatus `json:"status"`
	Progress  float64           `json:"progress"`
	Engine    string            `json:"engine"`
	Language  string            `json:"language"`
	Subtitles []Subtitle        `json:"subtitles,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Credentials holds per-engine API secrets. Unused fields stay empty.
type Credentials struct {
	SecretID  string `json:"secretId,omitempty" toml:"secret_id,omitempty"`
	SecretKey string `json:"secretKey,omitempty" toml:"secret_key,omitempty"`
	APIKey    string `json:"apiKey,omitempty" toml:"api_key,omitempty"`
	Bucket    string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Region    string `json:"region,omitempty" toml:"region,omitempty"`
}

// RecognitionParams is the full request forwarded to a recognition engine.
type RecognitionParams struct {
	AudioPath      string      `json:"audioPath"`
	Engine         string      `json:"engine"`
	ModelSize      string      `json:"modelSize"`
	Language       string      `json:"language"`
	BeamSize       int         `json:"beamSize"`
	Temperature    float64     `json:"temperature"`
	ComputeType    string      `json:"computeType"`
	DetectEmotion  bool        `json:"detectEmotion"`
	TagAudioEvents bool        `json:"tagAudioEvents"`
	Credentials    Credentials `json:"-"`
}

// Language is one selectable recognition language for an engine.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	Engine         string                 `json:"engine" toml:"engine"`
	ModelSize      string                 `json:"modelSize" toml:"model_size"`
	Language       string                 `json:"language" toml:"language"`
	ExportDir      string                 `json:"exportDir" toml:"export_dir"`
	ExportFormat   string                 `json:"exportFormat" toml:"export_format"`
	BeamSize       int                    `json:"beamSize" toml:"beam_size"`
	Temperature    float64                `json:"temperature" toml:"temperature"`
	ComputeType    string                 `json:"computeType" toml:"compute_type"`
	DetectEmotion  bool                   `json:"detectEmotion" toml:"detect_emotion"`
	TagAudioEvents bool                   `json:"tagAudioEvents" toml:"tag_audio_events"`
	Credentials    map[string]Credentials `json:"credentials,omitempty" toml:"credentials,omitempty"`
}
