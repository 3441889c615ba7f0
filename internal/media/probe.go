package media

import (
	"context"
	"encoding/json"
	"strconv"

	"flowtext/internal/domain"
)

// probeFormat mirrors the ffprobe "format" JSON section.
type probeFormat struct {
	Duration string `json:"duration"`
}

// probeStream mirrors one ffprobe "streams" JSON entry.
type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Channels   int    `json:"channels"`
	SampleRate string `json:"sample_rate"`
	Tags       struct {
		Language string `json:"language"`
	} `json:"tags"`
}

// probeOutput mirrors the ffprobe JSON document.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

// Prober reads container metadata and audio track listings.
type Prober struct {
	ffprobePath string
	runner      commandRunner
}

// NewProber constructs a prober backed by the ffprobe binary on PATH.
func NewProber() *Prober {
	return &Prober{ffprobePath: "ffprobe", runner: &execRunner{}}
}

// Probe inspects a video file and returns its duration, dimensions, and
// audio tracks. A file with no audio stream gets one synthetic default
// track so a recognition run can still be started.
func (p *Prober) Probe(ctx context.Context, videoPath string) (domain.VideoInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	}

	result, err := p.runner.Run(ctx, p.ffprobePath, args...)
	if err != nil {
		return domain.VideoInfo{}, &Error{
			Tool:     p.ffprobePath,
			Message:  "probe failed for " + videoPath,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(result.Stdout), &out); err != nil {
		return domain.VideoInfo{}, &Error{
			Tool:    p.ffprobePath,
			Message: "cannot parse probe output",
			Err:     err,
		}
	}

	info := domain.VideoInfo{FilePath: videoPath}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = d
	}

	for index, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 && info.Height == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
			}
		case "audio":
			track := domain.AudioTrack{
				ID:       index,
				Language: stream.Tags.Language,
				Codec:    stream.CodecName,
				Channels: stream.Channels,
			}
			if track.Codec == "" {
				track.Codec = "unknown"
			}
			if track.Channels == 0 {
				track.Channels = 2
			}
			if rate, err := strconv.Atoi(stream.SampleRate); err == nil {
				track.SampleRate = rate
			} else {
				track.SampleRate = 44100
			}
			info.AudioTracks = append(info.AudioTracks, track)
		}
	}

	if len(info.AudioTracks) == 0 {
		info.AudioTracks = append(info.AudioTracks, domain.AudioTrack{
			ID:         0,
			Language:   "und",
			Codec:      "unknown",
			Channels:   2,
			SampleRate: 44100,
		})
	}

	return info, nil
}

// newProberForTests constructs a prober with an injected runner.
func newProberForTests(runner commandRunner) *Prober {
	return &Prober{ffprobePath: "ffprobe", runner: runner}
}
