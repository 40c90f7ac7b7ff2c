package common_test

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guarzo/recruitapi/common"
)

func TestNewHttpClient_SetsUserAgent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "recruit-test" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "wrong user-agent")
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	hc := common.NewHttpClient("recruit-test", nil, time.Second, false)
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if req.Header.Get("User-Agent") != "" {
		t.Error("expected the caller's request to be left untouched")
	}
}

func TestNewHttpClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	hc := common.NewHttpClient("UA", nil, 50*time.Millisecond, false)
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	_, err := hc.Do(req)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if got := common.Normalize(err); got.Code != common.CodeNetwork {
		t.Errorf("expected a timeout to normalize to %s, got %s", common.CodeNetwork, got.Code)
	}
}

func TestHttpClient_RetryWithExponentialBackoff(t *testing.T) {
	called := 0
	operation := func() (interface{}, error) {
		called++
		if called < 3 {
			return nil, &common.HTTPError{
				StatusCode: http.StatusServiceUnavailable,
				Body:       []byte("temporary issue"),
			}
		}
		return "success", nil
	}

	hc := common.NewHttpClient("UA", &http.Client{}, 0, false)
	var slept []time.Duration
	hc.SetRandAndSleepForTest(func(d time.Duration) { slept = append(slept, d) }, rand.Int63())

	res, err := hc.RetryWithExponentialBackoff(operation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.(string) != "success" {
		t.Errorf("expected 'success', got %v", res)
	}
	if called != 3 {
		t.Errorf("expected 3 calls, got %d", called)
	}
	if len(slept) != 2 || slept[1] < 2*time.Second {
		t.Errorf("expected two growing backoffs, got %v", slept)
	}
}

func TestHttpClient_RetryStopsOnClientError(t *testing.T) {
	called := 0
	hc := common.NewHttpClient("UA", nil, 0, false)
	hc.SetRandAndSleepForTest(func(time.Duration) {}, 1)

	_, err := hc.RetryWithExponentialBackoff(func() (interface{}, error) {
		called++
		return nil, &common.HTTPError{StatusCode: http.StatusNotFound}
	})
	var httpErr *common.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected the 404 back, got %v", err)
	}
	if called != 1 {
		t.Errorf("expected a single attempt, got %d", called)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&common.HTTPError{StatusCode: http.StatusInternalServerError}, true},
		{&common.HTTPError{StatusCode: http.StatusBadGateway}, true},
		{&common.HTTPError{StatusCode: http.StatusServiceUnavailable}, true},
		{&common.HTTPError{StatusCode: http.StatusGatewayTimeout}, true},
		{&common.HTTPError{StatusCode: http.StatusUnauthorized}, false},
		{&common.HTTPError{StatusCode: http.StatusNotImplemented}, false},
		{fmt.Errorf("wrapped: %w", &common.HTTPError{StatusCode: http.StatusBadGateway}), true},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := common.IsRetryableStatus(tt.err); got != tt.want {
			t.Errorf("IsRetryableStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNewRequestID(t *testing.T) {
	a, b := common.NewRequestID(), common.NewRequestID()
	if a == "" || a == b {
		t.Errorf("expected distinct ids, got %q and %q", a, b)
	}
}
