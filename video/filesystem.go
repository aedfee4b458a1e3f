package video

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pillash/mp4util"
	log "github.com/sirupsen/logrus"

	"oakview/detect"
)

const (
	ExtVideo  = "_video.mp4"
	ExtThumb  = "_thumb.jpg"
	ExtVThumb = "_vthumb.mp4"
	ExtMeta   = "_meta.json"

	// FileTimeLayout defines the format of clip basenames. The numeric zone
	// keeps the formatted width fixed so basenames can be sliced.
	FileTimeLayout = "20060102-150405-0700"
)

// FilesystemListener is notified whenever the set of records changes.
type FilesystemListener interface {
	FilesystemUpdated()
}

// RecordPaths are the on-disk paths belonging to one record.
type RecordPaths struct {
	VideoPath  string
	ThumbPath  string
	VThumbPath string
	MetaPath   string
}

// VideoRecord is one recorded detection event: a clip, its thumbnails, and
// a JSON sidecar with the detections that triggered it.
type VideoRecord struct {
	Identifier  string
	TriggeredAt time.Time

	HaveVideo  bool
	HaveThumb  bool
	HaveVThumb bool

	VideoDurationSec int
	Size             int64

	Detections detect.Batch

	fs *Filesystem
}

func (r *VideoRecord) Paths() RecordPaths {
	base := filepath.Join(r.fs.opts.BasePath, r.Identifier)
	return RecordPaths{
		VideoPath:  base + ExtVideo,
		ThumbPath:  base + ExtThumb,
		VThumbPath: base + ExtVThumb,
		MetaPath:   base + ExtMeta,
	}
}

// UpdateThumb marks the thumbnail as present.
func (r *VideoRecord) UpdateThumb() {
	r.fs.l.Lock()
	r.HaveThumb = true
	r.fs.l.Unlock()
	r.fs.changed()
}

// UpdateVideo stats the finished clip, reads its duration, and triggers
// garbage collection of old records.
func (r *VideoRecord) UpdateVideo() {
	paths := r.Paths()

	var size int64
	if fi, err := os.Stat(paths.VideoPath); err == nil {
		size = fi.Size()
	} else {
		log.Errorf("Failed to stat finished clip %v: %v", paths.VideoPath, err)
	}

	dur, err := mp4util.Duration(paths.VideoPath)
	if err != nil {
		log.Errorf("Failed to read clip duration for %v: %v", paths.VideoPath, err)
	}

	r.fs.l.Lock()
	r.HaveVideo = true
	r.Size = size
	r.VideoDurationSec = dur
	r.fs.l.Unlock()
	r.fs.changed()

	r.fs.collect()
}

// UpdateVThumb marks the video thumbnail as present.
func (r *VideoRecord) UpdateVThumb() {
	r.fs.l.Lock()
	r.HaveVThumb = true
	r.fs.l.Unlock()
	r.fs.changed()
}

// SetDetections writes the detection sidecar for the record.
func (r *VideoRecord) SetDetections(batch detect.Batch) {
	r.fs.l.Lock()
	r.Detections = batch.Sorted()
	r.fs.l.Unlock()

	jb, err := json.MarshalIndent(r.Detections, "", "  ")
	if err != nil {
		log.Errorf("Failed to encode detection sidecar: %v", err)
		return
	}
	if err := os.WriteFile(r.Paths().MetaPath, jb, 0644); err != nil {
		log.Errorf("Failed to write detection sidecar: %v", err)
	}
	r.fs.changed()
}

// Delete removes the record and all of its files.
func (r *VideoRecord) Delete() {
	paths := r.Paths()
	for _, p := range []string{paths.VideoPath, paths.ThumbPath, paths.VThumbPath, paths.MetaPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Errorf("Failed to remove %v: %v", p, err)
		}
	}
	r.fs.remove(r)
}

// FilesystemOptions configure clip storage.
type FilesystemOptions struct {
	BasePath string

	// MaxSize bounds the total size of stored clips; the oldest records are
	// collected first. Zero disables collection.
	MaxSize int64
}

// Filesystem owns the clip directory: record creation, rescanning, and
// size-based garbage collection.
type Filesystem struct {
	Listeners []FilesystemListener

	opts    FilesystemOptions
	records map[string]*VideoRecord
	l       sync.Mutex
}

func NewFilesystem(opts FilesystemOptions) (*Filesystem, error) {
	if err := os.MkdirAll(opts.BasePath, 0755); err != nil {
		return nil, err
	}
	f := &Filesystem{
		opts:    opts,
		records: make(map[string]*VideoRecord),
	}
	if err := f.scan(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewRecord registers a new record triggered at the given time.
func (f *Filesystem) NewRecord(t time.Time) *VideoRecord {
	r := &VideoRecord{
		Identifier:  t.Format(FileTimeLayout),
		TriggeredAt: t,
		fs:          f,
	}
	f.l.Lock()
	f.records[r.Identifier] = r
	f.l.Unlock()
	f.changed()
	return r
}

// scan rebuilds the record set from directory contents.
func (f *Filesystem) scan() error {
	entries, err := os.ReadDir(f.opts.BasePath)
	if err != nil {
		return err
	}

	records := make(map[string]*VideoRecord)
	for _, e := range entries {
		b := e.Name()
		if len(b) < len(FileTimeLayout) {
			continue
		}
		id := b[:len(FileTimeLayout)]
		t, err := time.Parse(FileTimeLayout, id)
		if err != nil {
			continue
		}

		r := records[id]
		if r == nil {
			r = &VideoRecord{
				Identifier:  id,
				TriggeredAt: t,
				fs:          f,
			}
			records[id] = r
		}

		p := filepath.Join(f.opts.BasePath, b)
		switch {
		case strings.HasSuffix(b, ExtVideo):
			r.HaveVideo = true
			if fi, err := e.Info(); err == nil {
				r.Size = fi.Size()
			}
			if dur, err := mp4util.Duration(p); err == nil {
				r.VideoDurationSec = dur
			}
		case strings.HasSuffix(b, ExtThumb):
			r.HaveThumb = true
		case strings.HasSuffix(b, ExtVThumb):
			r.HaveVThumb = true
		case strings.HasSuffix(b, ExtMeta):
			if jb, err := os.ReadFile(p); err == nil {
				if err := json.Unmarshal(jb, &r.Detections); err != nil {
					log.Errorf("Bad detection sidecar %v: %v", p, err)
				}
			}
		}
	}

	f.l.Lock()
	f.records = records
	f.l.Unlock()
	return nil
}

// RecordsFilter narrows GetRecords output.
type RecordsFilter struct {
	// MaxItems limits the number of records returned. Zero means no limit.
	MaxItems int
	// Before excludes records triggered at or after the given time.
	Before time.Time
}

// GetRecords returns matching records, newest first.
func (f *Filesystem) GetRecords(filter *RecordsFilter) []*VideoRecord {
	f.l.Lock()
	records := make([]*VideoRecord, 0, len(f.records))
	for _, r := range f.records {
		records = append(records, r)
	}
	f.l.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].TriggeredAt.After(records[j].TriggeredAt)
	})

	if filter == nil {
		return records
	}

	if !filter.Before.IsZero() {
		n := records[:0]
		for _, r := range records {
			if r.TriggeredAt.Before(filter.Before) {
				n = append(n, r)
			}
		}
		records = n
	}
	if filter.MaxItems > 0 && len(records) > filter.MaxItems {
		records = records[:filter.MaxItems]
	}
	return records
}

func (f *Filesystem) GetRecordByID(id string) *VideoRecord {
	f.l.Lock()
	defer f.l.Unlock()
	return f.records[id]
}

// TotalSize returns the summed clip size of all records.
func (f *Filesystem) TotalSize() int64 {
	f.l.Lock()
	defer f.l.Unlock()
	var sz int64
	for _, r := range f.records {
		sz += r.Size
	}
	return sz
}

// collect deletes the oldest records until total size fits under MaxSize.
func (f *Filesystem) collect() {
	if f.opts.MaxSize <= 0 {
		return
	}
	for f.TotalSize() > f.opts.MaxSize {
		records := f.GetRecords(nil)
		if len(records) <= 1 {
			// Never collect the record being written.
			return
		}
		oldest := records[len(records)-1]
		log.Infof("Collecting old record %v to reclaim %d bytes", oldest.Identifier, oldest.Size)
		oldest.Delete()
	}
}

func (f *Filesystem) remove(r *VideoRecord) {
	f.l.Lock()
	delete(f.records, r.Identifier)
	f.l.Unlock()
	f.changed()
}

func (f *Filesystem) changed() {
	for _, l := range f.Listeners {
		l.FilesystemUpdated()
	}
}
