package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// formatScalar renders a cell for the text formats. ok is false for nil.
func formatScalar(v any) (s string, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case json.Number:
		return x.String(), true, nil
	case int:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case uint64:
		return strconv.FormatUint(x, 10), true, nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true, nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true, nil
	case time.Duration:
		return x.String(), true, nil
	case json.RawMessage:
		b, err := marshalCompact(x)
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	case fmt.Stringer:
		return x.String(), true, nil
	}
	b, err := marshalCompact(v)
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}
