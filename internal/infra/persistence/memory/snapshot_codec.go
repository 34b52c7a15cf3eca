package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names used by the durable stores; one row per bucket.
const (
	BucketProducts       = "products"
	BucketRawMaterials   = "raw_materials"
	BucketMaterialUsages = "material_usages"
	BucketSequences      = "sequences"
)

// Buckets lists every persisted bucket in write order.
var Buckets = []string{BucketProducts, BucketRawMaterials, BucketMaterialUsages, BucketSequences}

// EncodeBuckets serializes a snapshot into one JSON payload per bucket.
func EncodeBuckets(s Snapshot) (map[string][]byte, error) {
	values := map[string]any{
		BucketProducts:       nonNil(s.Products),
		BucketRawMaterials:   nonNil(s.RawMaterials),
		BucketMaterialUsages: nonNil(s.MaterialUsages),
		BucketSequences:      s.Sequences,
	}
	out := make(map[string][]byte, len(values))
	for _, bucket := range Buckets {
		data, err := json.Marshal(values[bucket])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBuckets rebuilds a snapshot from bucket payloads. Unknown buckets and
// empty payloads are ignored.
func DecodeBuckets(payloads map[string][]byte) (Snapshot, error) {
	var s Snapshot
	targets := map[string]any{
		BucketProducts:       &s.Products,
		BucketRawMaterials:   &s.RawMaterials,
		BucketMaterialUsages: &s.MaterialUsages,
		BucketSequences:      &s.Sequences,
	}
	for bucket, payload := range payloads {
		target, ok := targets[bucket]
		if !ok || len(payload) == 0 {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	return s, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
