package bot

import "reflect"

// mergeFields merges over into base and returns a new map.
// Nested objects merge recursively, arrays are concatenated and any other
// value in over replaces the one in base. Neither input is modified.
//
// Typed Go values take part in the merge by kind: any map with string keys
// counts as an object and any slice or array as an array. Merged and cloned
// containers come out as map[string]any and []any.
func mergeFields(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = cloneValue(v)
	}

	for k, v := range over {
		cur, exists := out[k]
		if !exists {
			out[k] = cloneValue(v)
			continue
		}

		if curMap, ok := asMap(cur); ok {
			if overMap, ok := asMap(v); ok {
				out[k] = mergeFields(curMap, overMap)
				continue
			}
		}

		if curSlice, ok := asSlice(cur); ok {
			if overSlice, ok := asSlice(v); ok {
				merged := make([]any, 0, len(curSlice)+len(overSlice))
				merged = append(merged, curSlice...)
				for _, item := range overSlice {
					merged = append(merged, cloneValue(item))
				}
				out[k] = merged
				continue
			}
		}

		out[k] = cloneValue(v)
	}

	return out
}

// asMap views v as an object. The returned map may share values with v.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Fields:
		return map[string]any(t), true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

// asSlice views v as an array. Byte slices stay scalar; they encode as strings.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []byte, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	s := make([]any, rv.Len())
	for i := range s {
		s[i] = rv.Index(i).Interface()
	}
	return s, true
}

func cloneValue(v any) any {
	if isNilContainer(v) {
		return v
	}
	if m, ok := asMap(v); ok {
		return mergeFields(m, nil)
	}
	if s, ok := asSlice(v); ok {
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

// isNilContainer keeps nil maps and slices as they are so they still encode as null
func isNilContainer(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
