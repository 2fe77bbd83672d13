package sink

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/stationkit/powersdk/errs"
	"github.com/stationkit/powersdk/runtime"
)

// jsonlRecord is the wire shape of one JsonlSink line (spec §6.4).
type jsonlRecord struct {
	DeviceID   string                 `json:"device_id"`
	Model      string                 `json:"model"`
	Timestamp  float64                `json:"timestamp"`
	OK         bool                   `json:"ok"`
	BlocksRead int                    `json:"blocks_read"`
	DurationMS float64                `json:"duration_ms"`
	State      map[string]interface{} `json:"state"`
	Error      *string                `json:"error"`
}

// JsonlSink appends one JSON line per snapshot to a file. A single
// mutex serializes every append, preventing interleaved lines when
// multiple device loops share one JsonlSink.
type JsonlSink struct {
	mu   sync.Mutex
	path string
}

// NewJsonlSink returns a JsonlSink appending to path. No file is
// opened here; each Write opens (creating if necessary) and closes it.
func NewJsonlSink(path string) *JsonlSink {
	return &JsonlSink{path: path}
}

// Write serializes snapshot as one JSON line and appends it to the
// configured file, opening and closing the file per call so Write
// never holds a stale descriptor across process restarts or log
// rotation.
func (s *JsonlSink) Write(snapshot runtime.DeviceSnapshot) error {
	record := jsonlRecord{
		DeviceID:   snapshot.DeviceID,
		Model:      snapshot.Model,
		Timestamp:  float64(snapshot.Timestamp.UnixNano()) / 1e9,
		OK:         snapshot.OK(),
		BlocksRead: snapshot.BlocksRead,
		DurationMS: snapshot.DurationMS,
		State:      snapshot.State,
	}
	if snapshot.Error != nil {
		msg := snapshot.Error.Error()
		record.Error = &msg
	}

	line, err := json.Marshal(record)
	if err != nil {
		return errs.NewSinkError("encoding snapshot as JSON", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.NewSinkError("opening jsonl sink file", err)
	}
	defer f.Close()

	_, err = f.Write(line)
	return err
}

// Close is a no-op — JsonlSink holds no long-lived file descriptor.
func (s *JsonlSink) Close() error {
	return nil
}
