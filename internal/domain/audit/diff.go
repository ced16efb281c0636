package audit

import (
	"encoding/json"
	"reflect"
)

// Snapshot is the JSON-object view of an entity used for diffing.
type Snapshot map[string]any

// SnapshotOf flattens v through its json tags. A nil v yields an empty snapshot.
func SnapshotOf(v any) Snapshot {
	out := Snapshot{}
	if v == nil || (reflect.ValueOf(v).Kind() == reflect.Ptr && reflect.ValueOf(v).IsNil()) {
		return out
	}
	b, err := json.Marshal(v)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

// Diff keeps only the keys whose values differ between before and after.
// Keys missing on one side are kept on the other.
func Diff(before, after Snapshot) (Snapshot, Snapshot) {
	b, a := Snapshot{}, Snapshot{}
	for k, bv := range before {
		av, ok := after[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			b[k] = bv
		}
	}
	for k, av := range after {
		bv, ok := before[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			a[k] = av
		}
	}
	return b, a
}

// Encode renders a snapshot for storage; empty snapshots encode as "".
func (s Snapshot) Encode() string {
	if len(s) == 0 {
		return ""
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(raw)
}
