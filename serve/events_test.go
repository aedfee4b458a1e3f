package serve

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"oakview/detect"
	"oakview/video"
)

func testFS(t *testing.T) *video.Filesystem {
	t.Helper()
	fs, err := video.NewFilesystem(video.FilesystemOptions{BasePath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestBuildResponse(t *testing.T) {
	fs := testFS(t)
	t0 := time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC)

	r1 := fs.NewRecord(t0)
	r1.SetDetections(detect.Batch{
		{Label: "person", Confidence: 0.91},
		{Label: "cat", Confidence: 0.42},
	})
	fs.NewRecord(t0.Add(time.Hour))

	s := &EventServer{FS: fs}
	resp := s.BuildResponse(nil)

	if resp.ItemsCount != 2 || len(resp.Items) != 2 {
		t.Fatalf("ItemsCount = %d, Items = %d", resp.ItemsCount, len(resp.Items))
	}
	// Newest first.
	if resp.Items[0].Timestamp != t0.Add(time.Hour).Unix() {
		t.Errorf("first item at %d, expected newest", resp.Items[0].Timestamp)
	}
	// Each entry carries only the top detection.
	if d := resp.Items[1].Detection; d == nil || d.Label != "person" {
		t.Errorf("top detection = %v", resp.Items[1].Detection)
	}
	if resp.Items[0].Detection != nil {
		t.Errorf("record without detections has %v", resp.Items[0].Detection)
	}
	if resp.OldestTimestamp != t0.Unix() {
		t.Errorf("OldestTimestamp = %d, expected %d", resp.OldestTimestamp, t0.Unix())
	}
}

func TestEventServerHTTP(t *testing.T) {
	fs := testFS(t)
	t0 := time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		fs.NewRecord(t0.Add(time.Duration(i) * time.Hour))
	}

	s := &EventServer{FS: fs}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/events?max=2", nil))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}

	var resp EventsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ItemsCount != 2 {
		t.Errorf("ItemsCount = %d, expected 2", resp.ItemsCount)
	}

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/events?max=bogus", nil))
	if w.Code != 400 {
		t.Errorf("bad max: status = %d, expected 400", w.Code)
	}
}
