package video

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"oakview/detect"
)

type countingListener struct {
	updates int
}

func (c *countingListener) FilesystemUpdated() {
	c.updates++
}

func testFilesystem(t *testing.T, opts FilesystemOptions) *Filesystem {
	t.Helper()
	if opts.BasePath == "" {
		opts.BasePath = t.TempDir()
	}
	fs, err := NewFilesystem(opts)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanGroupsRecordFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC).Format(FileTimeLayout)
	writeFile(t, dir, base+ExtVideo, 100)
	writeFile(t, dir, base+ExtThumb, 10)
	writeFile(t, dir, "unrelated.txt", 5)

	fs := testFilesystem(t, FilesystemOptions{BasePath: dir})
	records := fs.GetRecords(nil)
	if len(records) != 1 {
		t.Fatalf("got %d records, expected 1", len(records))
	}
	r := records[0]
	if !r.HaveVideo || !r.HaveThumb || r.HaveVThumb {
		t.Errorf("record flags = %v/%v/%v", r.HaveVideo, r.HaveThumb, r.HaveVThumb)
	}
	if r.Size != 100 {
		t.Errorf("record size = %d, expected 100", r.Size)
	}
	if r.Identifier != base {
		t.Errorf("record id = %q, expected %q", r.Identifier, base)
	}
}

func TestDetectionSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := testFilesystem(t, FilesystemOptions{BasePath: dir})

	r := fs.NewRecord(time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC))
	r.SetDetections(detect.Batch{
		{Label: "person", Confidence: 0.91, XMin: 0.1, YMin: 0.2, XMax: 0.5, YMax: 0.6},
		{Label: "dog", Confidence: 0.95},
	})

	// A fresh filesystem over the same directory reads the sidecar back.
	fs2 := testFilesystem(t, FilesystemOptions{BasePath: dir})
	records := fs2.GetRecords(nil)
	if len(records) != 1 {
		t.Fatalf("got %d records, expected 1", len(records))
	}
	dets := records[0].Detections
	if len(dets) != 2 {
		t.Fatalf("got %d detections, expected 2", len(dets))
	}
	// Sidecar is stored sorted by confidence.
	if dets[0].Label != "dog" || dets[1].Label != "person" {
		t.Errorf("detections = %v", dets)
	}
	if dets[1].XMax != 0.5 {
		t.Errorf("box not preserved: %v", dets[1])
	}
}

func TestGetRecordsNewestFirstAndFiltered(t *testing.T) {
	fs := testFilesystem(t, FilesystemOptions{})
	t0 := time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		fs.NewRecord(t0.Add(time.Duration(i) * time.Hour))
	}

	records := fs.GetRecords(nil)
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].TriggeredAt.After(records[i-1].TriggeredAt) {
			t.Fatalf("records out of order: %v before %v", records[i-1].TriggeredAt, records[i].TriggeredAt)
		}
	}

	limited := fs.GetRecords(&RecordsFilter{MaxItems: 2})
	if len(limited) != 2 || !limited[0].TriggeredAt.Equal(t0.Add(2*time.Hour)) {
		t.Errorf("MaxItems filter = %v", limited)
	}

	before := fs.GetRecords(&RecordsFilter{Before: t0.Add(time.Hour)})
	if len(before) != 1 || !before[0].TriggeredAt.Equal(t0) {
		t.Errorf("Before filter = %v", before)
	}
}

func TestGetRecordByID(t *testing.T) {
	fs := testFilesystem(t, FilesystemOptions{})
	r := fs.NewRecord(time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC))

	if got := fs.GetRecordByID(r.Identifier); got != r {
		t.Errorf("GetRecordByID(%q) = %v", r.Identifier, got)
	}
	if got := fs.GetRecordByID("nope"); got != nil {
		t.Errorf("GetRecordByID(nope) = %v", got)
	}
}

func TestCollectRemovesOldest(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC)
	old := t0.Format(FileTimeLayout)
	newer := t0.Add(time.Hour).Format(FileTimeLayout)
	writeFile(t, dir, old+ExtVideo, 1000)
	writeFile(t, dir, newer+ExtVideo, 1000)

	fs := testFilesystem(t, FilesystemOptions{BasePath: dir, MaxSize: 1500})
	fs.collect()

	records := fs.GetRecords(nil)
	if len(records) != 1 {
		t.Fatalf("got %d records after collect, expected 1", len(records))
	}
	if records[0].Identifier != newer {
		t.Errorf("survivor = %q, expected newest record", records[0].Identifier)
	}
	if _, err := os.Stat(filepath.Join(dir, old+ExtVideo)); !os.IsNotExist(err) {
		t.Errorf("old clip still present: %v", err)
	}
}

func TestDeleteNotifiesListeners(t *testing.T) {
	fs := testFilesystem(t, FilesystemOptions{})
	l := &countingListener{}
	fs.Listeners = append(fs.Listeners, l)

	r := fs.NewRecord(time.Date(2022, 5, 14, 10, 0, 0, 0, time.UTC))
	if l.updates != 1 {
		t.Fatalf("NewRecord produced %d updates", l.updates)
	}
	r.Delete()
	if l.updates != 2 {
		t.Errorf("Delete produced %d total updates, expected 2", l.updates)
	}
	if fs.GetRecordByID(r.Identifier) != nil {
		t.Error("record still present after Delete")
	}
}
