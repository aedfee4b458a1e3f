package serve

import (
	"fmt"
	"net/http"
	"os"

	"oakview/video"
)

// FileServer serves one file of a recorded event, selected by record id.
type FileServer struct {
	FS          *video.Filesystem
	PathFunc    func(p video.RecordPaths) string
	ContentType string
}

func NewVideoServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(p video.RecordPaths) string {
			return p.VideoPath
		},
		ContentType: "video/mp4",
	}
}

func NewThumbServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(p video.RecordPaths) string {
			return p.ThumbPath
		},
		ContentType: "image/jpeg",
	}
}

func NewVThumbServer(fs *video.Filesystem) *FileServer {
	return &FileServer{
		FS: fs,
		PathFunc: func(p video.RecordPaths) string {
			return p.VThumbPath
		},
		ContentType: "video/mp4",
	}
}

func (s *FileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.Form.Get("id")
	vr := s.FS.GetRecordByID(id)
	if vr == nil {
		http.Error(w, fmt.Sprintf("No record found for id %v", id), http.StatusNotFound)
		return
	}

	f, err := os.Open(s.PathFunc(vr.Paths()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()

	// ServeContent handles range requests, which mp4 players depend on for
	// seeking. Records are immutable once written, so the trigger time is a
	// usable modtime.
	w.Header().Add("Content-Type", s.ContentType)
	http.ServeContent(w, r, "", vr.TriggeredAt, f)
}
