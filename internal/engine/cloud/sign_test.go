package cloud

import (
	"strings"
	"testing"
	"time"
)

// TestCOSAuthorizationShape verifies the signature string carries every
// required key-value pair and a stable signature for fixed inputs.
func TestCOSAuthorizationShape(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := cosAuthorization("AKIDexample", "secret", "PUT", "audio/abc/movie.wav",
		map[string]string{"Host": "bucket.cos.ap-guangzhou.myqcloud.com", "Content-Type": "audio/wav"},
		now, time.Hour)

	for _, fragment := range []string{
		"q-sign-algorithm=sha1",
		"q-ak=AKIDexample",
		"q-sign-time=1709294400;1709298000",
		"q-key-time=1709294400;1709298000",
		"q-header-list=content-type;host",
		"q-url-param-list=",
		"q-signature=",
	} {
		if !strings.Contains(auth, fragment) {
			t.Fatalf("authorization %q missing %q", auth, fragment)
		}
	}

	again := cosAuthorization("AKIDexample", "secret", "PUT", "audio/abc/movie.wav",
		map[string]string{"Host": "bucket.cos.ap-guangzhou.myqcloud.com", "Content-Type": "audio/wav"},
		now, time.Hour)
	if auth != again {
		t.Fatal("signature is not deterministic for identical inputs")
	}
}

// TestCOSAuthorizationHeaderOrder verifies headers are signed in sorted
// lowercase order regardless of map iteration.
func TestCOSAuthorizationHeaderOrder(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := cosAuthorization("id", "key", "PUT", "k",
		map[string]string{"Host": "h", "Content-Type": "audio/wav"}, now, time.Minute)

	if !strings.Contains(auth, "q-header-list=content-type;host") {
		t.Fatalf("header list not sorted: %q", auth)
	}
}

// TestTC3AuthorizationShape verifies credential scope and signed headers.
func TestTC3AuthorizationShape(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := tc3Authorization("AKIDexample", "secret", "asr", "asr.tencentcloudapi.com",
		"CreateRecTask", []byte(`{"Url":"https://example"}`), now)

	if !strings.HasPrefix(auth, "TC3-HMAC-SHA256 ") {
		t.Fatalf("algorithm prefix missing: %q", auth)
	}
	for _, fragment := range []string{
		"Credential=AKIDexample/2024-03-01/asr/tc3_request",
		"SignedHeaders=content-type;host;x-tc-action",
		"Signature=",
	} {
		if !strings.Contains(auth, fragment) {
			t.Fatalf("authorization %q missing %q", auth, fragment)
		}
	}
}

// TestTC3AuthorizationPayloadSensitivity verifies the signature changes
// with the request body.
func TestTC3AuthorizationPayloadSensitivity(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := tc3Authorization("id", "key", "asr", "host", "CreateRecTask", []byte(`{"a":1}`), now)
	b := tc3Authorization("id", "key", "asr", "host", "CreateRecTask", []byte(`{"a":2}`), now)
	if a == b {
		t.Fatal("signature must depend on the payload")
	}
}

// TestURLEncode verifies unreserved bytes pass through and the rest are
// percent-encoded uppercase.
func TestURLEncode(t *testing.T) {
	if got := urlEncode("a-b_c.d~e"); got != "a-b_c.d~e" {
		t.Fatalf("urlEncode unreserved = %q", got)
	}
	if got := urlEncode("a b/c"); got != "a%20b%2Fc" {
		t.Fatalf("urlEncode reserved = %q", got)
	}
}
