package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// answerEnvelope is the expected answer shape. Every field is optional and
// decoded separately so one malformed field does not discard the others.
type answerEnvelope struct {
	Answer    json.RawMessage   `json:"answer"`
	Citations []json.RawMessage `json:"citations"`
	Chunks    []json.RawMessage `json:"chunks"`
}

type citationFields struct {
	ChunkID json.RawMessage `json:"chunk_id"`
	Source  json.RawMessage `json:"source"`
	Page    json.RawMessage `json:"page"`
}

type chunkFields struct {
	Source    string          `json:"source"`
	LineRange json.RawMessage `json:"line_range"`
	Preview   string          `json:"preview"`
	Text      string          `json:"text"`
}

// ParseAnswer decodes a raw backend answer. It never fails: a body that is
// not a JSON object with a string "answer" is shown verbatim with no citations.
func ParseAnswer(raw string) domain.ParsedAnswer {
	parsed, ok := decodeAnswer(raw)
	if !ok {
		logger.Debug("%v: using raw body (%d bytes)", domain.ErrParseDegraded, len(raw))
	}
	return parsed
}

// snapshotText returns the displayable text of a partial streamed answer.
// Partial JSON is expected mid-stream, so degradation is not logged.
func snapshotText(raw string) string {
	parsed, _ := decodeAnswer(raw)
	return parsed.AnswerText
}

func decodeAnswer(raw string) (domain.ParsedAnswer, bool) {
	degraded := domain.ParsedAnswer{AnswerText: raw, Degraded: true}

	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return degraded, false
	}

	var env answerEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		// citations or chunks of the wrong type; retry with answer only
		var answerOnly struct {
			Answer json.RawMessage `json:"answer"`
		}
		if err := json.Unmarshal([]byte(trimmed), &answerOnly); err != nil {
			return degraded, false
		}
		env = answerEnvelope{Answer: answerOnly.Answer}
	}

	var answer string
	if len(env.Answer) == 0 || bytes.Equal(env.Answer, []byte("null")) ||
		json.Unmarshal(env.Answer, &answer) != nil {
		return degraded, false
	}

	out := domain.ParsedAnswer{AnswerText: answer}
	for _, rc := range env.Citations {
		if c, ok := decodeCitation(rc); ok {
			out.Citations = append(out.Citations, c)
			continue
		}
		// The reference backend returns retrieved chunk strings as citations.
		var text string
		if json.Unmarshal(rc, &text) == nil && text != "" {
			out.Chunks = append(out.Chunks, domain.Chunk{Text: text, Preview: preview(text)})
		}
	}
	for _, rc := range env.Chunks {
		if ch, ok := decodeChunk(rc); ok {
			out.Chunks = append(out.Chunks, ch)
		}
	}
	return out, true
}

func decodeCitation(rc json.RawMessage) (domain.Citation, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(rc), []byte("{")) {
		return domain.Citation{}, false
	}
	var f citationFields
	if err := json.Unmarshal(rc, &f); err != nil {
		return domain.Citation{}, false
	}
	c := domain.Citation{
		ChunkID: scalarString(f.ChunkID),
		Source:  scalarString(f.Source),
	}
	c.Page, c.RawPage = parsePage(f.Page)
	return c, true
}

func decodeChunk(rc json.RawMessage) (domain.Chunk, bool) {
	var text string
	if json.Unmarshal(rc, &text) == nil {
		return domain.Chunk{Text: text, Preview: preview(text)}, text != ""
	}
	var f chunkFields
	if err := json.Unmarshal(rc, &f); err != nil {
		return domain.Chunk{}, false
	}
	ch := domain.Chunk{
		Source:    f.Source,
		LineRange: scalarString(f.LineRange),
		Preview:   f.Preview,
		Text:      f.Text,
	}
	if ch.Preview == "" {
		ch.Preview = preview(ch.Text)
	}
	return ch, true
}

// scalarString renders a JSON string or number as text. Other values yield "".
func scalarString(rc json.RawMessage) string {
	if len(rc) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(rc, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(rc, &n) == nil {
		return n.String()
	}
	// line ranges are sometimes sent as [start, end]
	var pair []int
	if json.Unmarshal(rc, &pair) == nil && len(pair) == 2 {
		return strconv.Itoa(pair[0]) + "-" + strconv.Itoa(pair[1])
	}
	return ""
}

// parsePage reads a page given as a number or a numeric string.
// Anything else, including zero and negatives, is PageUnknown.
func parsePage(rc json.RawMessage) (int, string) {
	raw := strings.Trim(scalarString(rc), " \t")
	if raw == "" {
		return domain.PageUnknown, ""
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f < 1 || f > math.MaxInt32 || f != math.Trunc(f) {
		return domain.PageUnknown, raw
	}
	return int(f), raw
}

const previewLength = 160

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= previewLength {
		return text
	}
	return string(r[:previewLength]) + "…"
}
