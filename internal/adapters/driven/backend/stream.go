package backend

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// maxEventSize bounds a single server-sent event line.
const maxEventSize = 1 << 20

// errStreamDone marks the terminating [DONE] event.
var errStreamDone = errors.New("stream done")

// event is one server-sent event.
type event struct {
	Name string
	Data string
}

// readEvents parses a text/event-stream body and calls fn for each event.
// It stops at the first error returned by fn or by the reader.
func readEvents(r io.Reader, fn func(event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	var (
		ev   event
		data []string
	)
	dispatch := func() error {
		if len(data) == 0 {
			ev = event{}
			return nil
		}
		ev.Data = strings.Join(data, "\n")
		err := fn(ev)
		ev, data = event{}, data[:0]
		return err
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return dispatch()
}

// streamPayload is the JSON shape of reasoning and answer events.
type streamPayload struct {
	Answer json.RawMessage `json:"answer"`
	Step   string          `json:"step"`
	Error  bool            `json:"error"`
}

// answer interprets an event. Reasoning steps are logged and skipped;
// anything else is a cumulative answer snapshot.
func (ev event) answer() (string, bool, error) {
	data := strings.TrimSpace(ev.Data)
	if data == "[DONE]" {
		return "", false, errStreamDone
	}
	if ev.Name == "error" {
		return "", false, &driven.BackendError{Kind: driven.BackendStatus, Message: data}
	}

	var p streamPayload
	if strings.HasPrefix(data, "{") && json.Unmarshal([]byte(data), &p) == nil {
		switch {
		case p.Error:
			return "", false, &driven.BackendError{Kind: driven.BackendStatus, Message: p.Step}
		case len(p.Answer) == 0 && p.Step != "":
			logger.Debug("backend reasoning: %s", p.Step)
			return "", false, nil
		}
	}
	return ev.Data, true, nil
}
