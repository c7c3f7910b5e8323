package logfan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MarshalJSON serializes the record with a deterministic layout: fixed
// envelope keys first, then the named data in insertion order. Values that
// cannot be marshaled are rendered through their string form so one bad
// field never poisons a whole batch.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeEntry(&buf, "time", r.Time.Format(time.RFC3339Nano))
	buf.WriteByte(',')
	writeEntry(&buf, "logger", r.Logger)
	buf.WriteByte(',')
	writeEntry(&buf, "level", r.Level.String())
	buf.WriteByte(',')
	writeEntry(&buf, "message", r.FormatMessage())

	if r.Err != nil {
		buf.WriteByte(',')
		writeEntry(&buf, "error", r.Err.Error())
	}

	if len(r.Data) > 0 {
		buf.WriteString(`,"data":{`)
		for i, f := range r.Data {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeEntry(&buf, f.Key, f.Value)
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeEntry(buf *bytes.Buffer, key string, value any) {
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')

	v, err := json.Marshal(value)
	if err != nil {
		v, _ = json.Marshal(stringify(value))
	}
	buf.Write(v)
}

func stringify(value any) string {
	switch v := value.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
