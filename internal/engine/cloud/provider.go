// Package cloud implements a recognition engine backed by a cloud ASR
// service: the audio is uploaded to signed object storage, a recognition
// job is created, and its status is polled until terminal.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"flowtext/internal/domain"
	"flowtext/internal/engine"
	applang "flowtext/internal/language"
)

func init() {
	engine.Register(New())
}

const (
	asrHost        = "asr.tencentcloudapi.com"
	asrService     = "asr"
	asrVersion     = "2019-06-14"
	defaultPoll    = 3 * time.Second
	uploadExpiry   = time.Hour
	requestTimeout = 2 * time.Minute
)

// Remote job status codes returned by DescribeTaskStatus.
const (
	remoteStatusWaiting = 0
	remoteStatusRunning = 1
	remoteStatusSuccess = 2
	remoteStatusFailed  = 3
)

// Provider submits recognition jobs to the cloud ASR API.
type Provider struct {
	client       *http.Client
	asrURL       string
	cosURLFor    func(bucket, region, objectKey string) (string, string)
	pollInterval time.Duration
	now          func() time.Time
	readFile     func(string) ([]byte, error)
}

// New creates the production cloud provider.
func New() *Provider {
	return &Provider{
		client: &http.Client{Timeout: requestTimeout},
		asrURL: "https://" + asrHost + "/",
		cosURLFor: func(bucket, region, objectKey string) (string, string) {
			host := fmt.Sprintf("%s.cos.%s.myqcloud.com", bucket, region)
			return host, fmt.Sprintf("https://%s/%s", host, objectKey)
		},
		pollInterval: defaultPoll,
		now:          time.Now,
		readFile:     os.ReadFile,
	}
}

// Name implements engine.Provider.
func (p *Provider) Name() string { return "cloud" }

// Languages implements engine.Provider.
func (p *Provider) Languages() []domain.Language {
	languages, _ := applang.ForEngine("cloud")
	return languages
}

// ValidateKeys checks the credential fields this engine requires.
func (p *Provider) ValidateKeys(creds domain.Credentials) error {
	if creds.SecretID == "" || creds.SecretKey == "" {
		return errors.New("cloud engine requires secretId and secretKey")
	}
	if creds.Bucket == "" || creds.Region == "" {
		return errors.New("cloud engine requires an object storage bucket and region")
	}
	return nil
}

// Transcribe uploads the audio, creates a recognition job, and polls it
// to completion. Cancellation between steps abandons the remote job.
func (p *Provider) Transcribe(ctx context.Context, req engine.Request, onProgress engine.ProgressFunc) ([]domain.Subtitle, error) {
	report := func(fraction float64) {
		if onProgress != nil {
			onProgress(fraction)
		}
	}

	if err := p.ValidateKeys(req.Credentials); err != nil {
		return nil, err
	}

	audioURL, err := p.upload(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	report(0.2)

	jobID, err := p.createTask(ctx, req, audioURL)
	if err != nil {
		return nil, fmt.Errorf("create recognition task: %w", err)
	}
	report(0.3)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := p.describeTask(ctx, req.Credentials, jobID)
		if err != nil {
			return nil, fmt.Errorf("poll recognition task: %w", err)
		}

		switch status.Status {
		case remoteStatusSuccess:
			report(1)
			return convertSentences(status.ResultDetail), nil
		case remoteStatusFailed:
			return nil, fmt.Errorf("cloud recognition failed: %s", status.ErrorMsg)
		default:
			// Still waiting or running; creep the visible progress toward
			// the finish without ever reaching it.
			report(0.3 + 0.6*status.progressGuess())
		}
	}
}

// upload PUTs the audio bytes into object storage under a unique key and
// returns the access URL.
func (p *Provider) upload(ctx context.Context, req engine.Request) (string, error) {
	data, err := p.readFile(req.AudioPath)
	if err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("audio/%s/%s", uuid.New().String(), filepath.Base(req.AudioPath))
	host, url := p.cosURLFor(req.Credentials.Bucket, req.Credentials.Region, objectKey)

	now := p.now().UTC()
	headers := map[string]string{
		"Host":         host,
		"Content-Type": "audio/wav",
	}
	auth := cosAuthorization(req.Credentials.SecretID, req.Credentials.SecretKey,
		http.MethodPut, objectKey, headers, now, uploadExpiry)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", auth)
	httpReq.Header.Set("Content-Type", "audio/wav")
	httpReq.Header.Set("Date", now.Format(http.TimeFormat))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("object storage returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return url, nil
}

// createTaskRequest is the CreateRecTask payload.
type createTaskRequest struct {
	EngineModelType    string `json:"EngineModelType"`
	ChannelNum         int    `json:"ChannelNum"`
	ResTextFormat      int    `json:"ResTextFormat"`
	SourceType         int    `json:"SourceType"`
	URL                string `json:"Url"`
	EmotionRecognition int    `json:"EmotionRecognitionEnable,omitempty"`
}

// taskStatus is the DescribeTaskStatus response data.
type taskStatus struct {
	Status       int              `json:"Status"`
	StatusStr    string           `json:"StatusStr"`
	ErrorMsg     string           `json:"ErrorMsg"`
	ResultDetail []sentenceDetail `json:"ResultDetail"`
}

// sentenceDetail is one recognized sentence with millisecond timestamps.
type sentenceDetail struct {
	FinalSentence string `json:"FinalSentence"`
	StartMs       int64  `json:"StartMs"`
	EndMs         int64  `json:"EndMs"`
}

// progressGuess maps waiting/running states onto a coarse fraction.
func (s taskStatus) progressGuess() float64 {
	if s.Status == remoteStatusRunning {
		return 0.5
	}
	return 0.1
}

// createTask submits a CreateRecTask call and returns the remote job id.
func (p *Provider) createTask(ctx context.Context, req engine.Request, audioURL string) (int64, error) {
	payload := createTaskRequest{
		EngineModelType: engineModelFor(req.Language),
		ChannelNum:      1,
		ResTextFormat:   2,
		SourceType:      0,
		URL:             audioURL,
	}
	if req.DetectEmotion {
		payload.EmotionRecognition = 1
	}

	var out struct {
		Response struct {
			Data struct {
				TaskID int64 `json:"TaskId"`
			} `json:"Data"`
			Error *apiError `json:"Error"`
		} `json:"Response"`
	}
	if err := p.call(ctx, req.Credentials, "CreateRecTask", payload, &out); err != nil {
		return 0, err
	}
	if out.Response.Error != nil {
		return 0, out.Response.Error
	}
	return out.Response.Data.TaskID, nil
}

// describeTask fetches the remote job status.
func (p *Provider) describeTask(ctx context.Context, creds domain.Credentials, jobID int64) (taskStatus, error) {
	payload := map[string]int64{"TaskId": jobID}

	var out struct {
		Response struct {
			Data  taskStatus `json:"Data"`
			Error *apiError  `json:"Error"`
		} `json:"Response"`
	}
	if err := p.call(ctx, creds, "DescribeTaskStatus", payload, &out); err != nil {
		return taskStatus{}, err
	}
	if out.Response.Error != nil {
		return taskStatus{}, out.Response.Error
	}
	return out.Response.Data, nil
}

// apiError is the cloud API error envelope.
type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// Error formats the remote error code and message.
func (e *apiError) Error() string {
	return fmt.Sprintf("cloud API error %s: %s", e.Code, e.Message)
}

// call performs one signed JSON API request.
func (p *Provider) call(ctx context.Context, creds domain.Credentials, action string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	now := p.now().UTC()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.asrURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Host", asrHost)
	httpReq.Header.Set("X-TC-Action", action)
	httpReq.Header.Set("X-TC-Version", asrVersion)
	httpReq.Header.Set("X-TC-Timestamp", fmt.Sprintf("%d", now.Unix()))
	httpReq.Header.Set("Authorization",
		tc3Authorization(creds.SecretID, creds.SecretKey, asrService, asrHost, action, body, now))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("cloud API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// engineModelFor selects the remote model per language, defaulting to the
// 16 kHz Chinese model as the original service does.
func engineModelFor(language string) string {
	switch language {
	case "en":
		return "16k_en"
	case "ja":
		return "16k_ja"
	case "ko":
		return "16k_ko"
	default:
		return "16k_zh"
	}
}

// convertSentences maps remote sentence details onto subtitles.
func convertSentences(details []sentenceDetail) []domain.Subtitle {
	subtitles := make([]domain.Subtitle, 0, len(details))
	for i, d := range details {
		subtitles = append(subtitles, domain.Subtitle{
			ID:        fmt.Sprintf("cloud_%d", i+1),
			StartTime: float64(d.StartMs) / 1000,
			EndTime:   float64(d.EndMs) / 1000,
			Text:      d.FinalSentence,
		})
	}
	return subtitles
}
