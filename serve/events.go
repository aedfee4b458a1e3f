package serve

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"oakview/detect"
	"oakview/video"
)

// EventEntry is the wire form of one recorded clip.
type EventEntry struct {
	ID        string
	Timestamp int64

	HaveVideo  bool
	HaveThumb  bool
	HaveVThumb bool

	DurationSec int

	Detection *detect.Detection
}

type EventsResponse struct {
	Items []*EventEntry

	ItemsTotalSize  int64
	ItemsCount      int
	OldestTimestamp int64
}

func toEventEntry(r *video.VideoRecord) *EventEntry {
	e := &EventEntry{
		ID:          r.Identifier,
		Timestamp:   r.TriggeredAt.Unix(),
		HaveVideo:   r.HaveVideo,
		HaveThumb:   r.HaveThumb,
		HaveVThumb:  r.HaveVThumb,
		DurationSec: r.VideoDurationSec,
	}
	if len(r.Detections) > 0 {
		e.Detection = &r.Detections[0]
	}
	return e
}

// EventServer lists recorded detection events as JSON.
type EventServer struct {
	FS *video.Filesystem
}

func (s *EventServer) BuildResponse(filter *video.RecordsFilter) *EventsResponse {
	records := s.FS.GetRecords(filter)

	resp := &EventsResponse{}
	var sz int64
	for _, r := range records {
		resp.Items = append(resp.Items, toEventEntry(r))
		sz += r.Size
		resp.OldestTimestamp = r.TriggeredAt.Unix()
	}
	resp.ItemsTotalSize = sz
	resp.ItemsCount = len(resp.Items)
	return resp
}

func (s *EventServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter := &video.RecordsFilter{}
	if v := r.Form.Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.MaxItems = n
	}
	if v := r.Form.Get("before"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Before = time.Unix(sec, 0)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.BuildResponse(filter)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
