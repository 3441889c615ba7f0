package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"flowtext/internal/domain"
	"flowtext/internal/engine"
)

func testCredentials() domain.Credentials {
	return domain.Credentials{
		SecretID:  "AKIDtest",
		SecretKey: "secret",
		Bucket:    "subtitles-123",
		Region:    "ap-guangzhou",
	}
}

// newTestProvider wires the provider to httptest servers for object
// storage and the ASR API.
func newTestProvider(cos, asr *httptest.Server) *Provider {
	p := New()
	p.client = cos.Client()
	p.asrURL = asr.URL
	p.cosURLFor = func(bucket, region, objectKey string) (string, string) {
		return strings.TrimPrefix(cos.URL, "http://"), cos.URL + "/" + objectKey
	}
	p.pollInterval = time.Millisecond
	p.readFile = func(string) ([]byte, error) { return []byte("RIFFdata"), nil }
	return p
}

// TestTranscribeCompletes verifies the upload, create, and poll flow end
// to end against stub servers.
func TestTranscribeCompletes(t *testing.T) {
	var uploaded atomic.Bool
	cos := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("object storage method = %s, want PUT", r.Method)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "q-sign-algorithm=sha1") {
			t.Errorf("missing storage signature, got %q", r.Header.Get("Authorization"))
		}
		uploaded.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer cos.Close()

	var polls atomic.Int32
	asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "TC3-HMAC-SHA256 ") {
			t.Errorf("missing API signature, got %q", r.Header.Get("Authorization"))
		}
		switch r.Header.Get("X-TC-Action") {
		case "CreateRecTask":
			var payload createTaskRequest
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode create payload: %v", err)
			}
			if payload.EngineModelType != "16k_en" {
				t.Errorf("EngineModelType = %q, want 16k_en", payload.EngineModelType)
			}
			fmt.Fprint(w, `{"Response":{"Data":{"TaskId":42}}}`)
		case "DescribeTaskStatus":
			if polls.Add(1) < 3 {
				fmt.Fprint(w, `{"Response":{"Data":{"Status":1,"StatusStr":"doing"}}}`)
				return
			}
			fmt.Fprint(w, `{"Response":{"Data":{"Status":2,"ResultDetail":[
				{"FinalSentence":"你好","StartMs":0,"EndMs":1500},
				{"FinalSentence":"世界","StartMs":1600,"EndMs":3000}]}}}`)
		default:
			t.Errorf("unexpected action %q", r.Header.Get("X-TC-Action"))
		}
	}))
	defer asr.Close()

	p := newTestProvider(cos, asr)

	var fractions []float64
	subs, err := p.Transcribe(context.Background(), engine.Request{
		AudioPath:   "/videos/movie_audio_0.wav",
		Language:    "en",
		Credentials: testCredentials(),
	}, func(f float64) { fractions = append(fractions, f) })
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if !uploaded.Load() {
		t.Fatal("audio was never uploaded")
	}
	if len(subs) != 2 || subs[0].Text != "你好" || subs[1].StartTime != 1.6 {
		t.Fatalf("subtitles = %+v", subs)
	}
	if len(fractions) == 0 || fractions[len(fractions)-1] != 1 {
		t.Fatalf("progress fractions = %v", fractions)
	}
}

// TestTranscribeRemoteFailure verifies a failed remote job surfaces its
// error message.
func TestTranscribeRemoteFailure(t *testing.T) {
	cos := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer cos.Close()

	asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-TC-Action") == "CreateRecTask" {
			fmt.Fprint(w, `{"Response":{"Data":{"TaskId":7}}}`)
			return
		}
		fmt.Fprint(w, `{"Response":{"Data":{"Status":3,"ErrorMsg":"audio too long"}}}`)
	}))
	defer asr.Close()

	p := newTestProvider(cos, asr)
	_, err := p.Transcribe(context.Background(), engine.Request{
		AudioPath:   "/a.wav",
		Credentials: testCredentials(),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "audio too long") {
		t.Fatalf("error = %v, want remote failure message", err)
	}
}

// TestTranscribeAPIError verifies the API error envelope aborts the flow.
func TestTranscribeAPIError(t *testing.T) {
	cos := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer cos.Close()

	asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"Response":{"Error":{"Code":"AuthFailure","Message":"bad key"}}}`)
	}))
	defer asr.Close()

	p := newTestProvider(cos, asr)
	_, err := p.Transcribe(context.Background(), engine.Request{
		AudioPath:   "/a.wav",
		Credentials: testCredentials(),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "AuthFailure") {
		t.Fatalf("error = %v, want API error code", err)
	}
}

// TestTranscribeUploadFailure verifies a storage rejection aborts before
// any API call.
func TestTranscribeUploadFailure(t *testing.T) {
	cos := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
	}))
	defer cos.Close()

	asr := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("API must not be called when the upload fails")
	}))
	defer asr.Close()

	p := newTestProvider(cos, asr)
	_, err := p.Transcribe(context.Background(), engine.Request{
		AudioPath:   "/a.wav",
		Credentials: testCredentials(),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("error = %v, want HTTP 403", err)
	}
}

// TestTranscribeCancellation verifies ctx cancellation stops polling.
func TestTranscribeCancellation(t *testing.T) {
	cos := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer cos.Close()

	asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-TC-Action") == "CreateRecTask" {
			fmt.Fprint(w, `{"Response":{"Data":{"TaskId":9}}}`)
			return
		}
		fmt.Fprint(w, `{"Response":{"Data":{"Status":0}}}`)
	}))
	defer asr.Close()

	p := newTestProvider(cos, asr)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := p.Transcribe(ctx, engine.Request{
		AudioPath:   "/a.wav",
		Credentials: testCredentials(),
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

// TestValidateKeys verifies the credential requirements.
func TestValidateKeys(t *testing.T) {
	p := New()
	if err := p.ValidateKeys(testCredentials()); err != nil {
		t.Fatalf("ValidateKeys: %v", err)
	}
	if err := p.ValidateKeys(domain.Credentials{SecretID: "only-id"}); err == nil {
		t.Fatal("expected error for missing secretKey")
	}
	if err := p.ValidateKeys(domain.Credentials{SecretID: "id", SecretKey: "key"}); err == nil {
		t.Fatal("expected error for missing bucket and region")
	}
}
