package serve

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"oakview/video"
)

// DeleteServer removes a recorded event: the clip, its thumbnails, and the
// detection sidecar.
type DeleteServer struct {
	FS *video.Filesystem
}

// DeleteResponse reports what was removed.
type DeleteResponse struct {
	Deleted    string
	FreedBytes int64
}

func (s *DeleteServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

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

	resp := &DeleteResponse{
		Deleted:    vr.Identifier,
		FreedBytes: vr.Size,
	}
	log.Infof("Deleting record %v (%d bytes, %s)", vr.Identifier, vr.Size, vr.Detections.DebugString())
	vr.Delete()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
