// Package format renders CLI payloads. JSON is the default; EDN is kept
// for Clojure-side tooling that scripts the dashboard.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Write writes v in the requested format (json|edn).
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON. Output stays machine-first: no trailing
// prose, one value per invocation.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteEDN writes an EDN rendering of v. The payload is round-tripped
// through JSON first so struct field names follow the json tags, then the
// generic tree (maps, slices, strings, numbers, booleans, nil) is printed.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return err
	}
	var buf bytes.Buffer
	writeEDNValue(&buf, tree, 0, pretty)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func writeEDNValue(buf *bytes.Buffer, v any, level int, pretty bool) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		buf.WriteString(strconv.Quote(t))
	case float64:
		// JSON numbers land as float64; print integral values as ints.
		if float64(int64(t)) == t {
			buf.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			buf.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case []any:
		writeEDNSeq(buf, t, level, pretty)
	case map[string]any:
		writeEDNMap(buf, t, level, pretty)
	default:
		buf.WriteString(strconv.Quote(fmt.Sprintf("%v", v)))
	}
}

func writeEDNSeq(buf *bytes.Buffer, xs []any, level int, pretty bool) {
	buf.WriteByte('[')
	for i, x := range xs {
		ednSep(buf, i, level, pretty)
		writeEDNValue(buf, x, level+1, pretty)
	}
	ednClose(buf, len(xs), level, pretty)
	buf.WriteByte(']')
}

func writeEDNMap(buf *bytes.Buffer, m map[string]any, level int, pretty bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		ednSep(buf, i, level, pretty)
		buf.WriteByte(':')
		buf.WriteString(strings.ReplaceAll(strings.TrimSpace(k), " ", "-"))
		buf.WriteByte(' ')
		writeEDNValue(buf, m[k], level+1, pretty)
	}
	ednClose(buf, len(keys), level, pretty)
	buf.WriteByte('}')
}

func ednSep(buf *bytes.Buffer, i, level int, pretty bool) {
	if pretty {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", (level+1)*2))
	} else if i > 0 {
		buf.WriteByte(' ')
	}
}

func ednClose(buf *bytes.Buffer, n, level int, pretty bool) {
	if pretty && n > 0 {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", level*2))
	}
}
