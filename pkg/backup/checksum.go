package backup

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Checksum produces a deterministic 32-bit FNV-1a digest of v, rendered as
// lowercase hex. The value is hashed through a canonical JSON form with
// recursively sorted object keys, so two payloads that marshal with different
// field orders still produce the same checksum.
func Checksum(v any) (string, error) {
	canonical, err := canonicalJSON(v)
	if err != nil {
		return "", err
	}

	h := fnv.New32a()
	h.Write(canonical)

	return fmt.Sprintf("%08x", h.Sum32()), nil
}

func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Round-trip through any so maps expose their keys for sorting.
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.WithStack(err)
	}

	var sb strings.Builder
	writeCanonical(&sb, decoded)
	return []byte(sb.String()), nil
}

func writeCanonical(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			sb.Write(key)
			sb.WriteByte(':')
			writeCanonical(sb, val[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, item)
		}
		sb.WriteByte(']')
	case string:
		s, _ := json.Marshal(val)
		sb.Write(s)
	case float64:
		// Integers are the common case for this data; keep them unpadded so
		// the representation matches what either marshaler would emit.
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			sb.WriteString(strconv.FormatInt(int64(val), 10))
		} else {
			sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		}
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case nil:
		sb.WriteString("null")
	}
}
