package serve

import (
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"
)

func TestFileServerRangeRequests(t *testing.T) {
	fs := testFS(t)
	vr := fs.NewRecord(time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC))
	if err := os.WriteFile(vr.Paths().VideoPath, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewVideoServer(fs)
	query := url.Values{"id": {vr.Identifier}}.Encode()

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/video?"+query, nil))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != "0123456789" {
		t.Errorf("body = %q", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("Content-Type = %q", ct)
	}

	// Players seek by requesting byte ranges.
	req := httptest.NewRequest("GET", "/video?"+query, nil)
	req.Header.Set("Range", "bytes=2-5")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != 206 {
		t.Fatalf("range request: status = %d, expected 206", w.Code)
	}
	if got := w.Body.String(); got != "2345" {
		t.Errorf("range body = %q", got)
	}
}

func TestFileServerMissing(t *testing.T) {
	fs := testFS(t)
	vr := fs.NewRecord(time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC))
	s := NewThumbServer(fs)

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/thumb?id=nosuch", nil))
	if w.Code != 404 {
		t.Errorf("unknown id: status = %d, expected 404", w.Code)
	}

	// Record exists but the thumbnail was never written.
	query := url.Values{"id": {vr.Identifier}}.Encode()
	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/thumb?"+query, nil))
	if w.Code != 404 {
		t.Errorf("missing file: status = %d, expected 404", w.Code)
	}
}
