package layering

// Entry is one keyed value carried by a layer.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Merge composes layers ordered from strongest to weakest. Every key resolves
// to the value held by the strongest layer that carries it. Keys keep the
// position at which they were first introduced when walking from the weakest
// layer to the strongest, so a baseline layer fixes the order and stronger
// layers only override values or append new keys.
func Merge[K comparable, V any](layers ...[]Entry[K, V]) []Entry[K, V] {
	if len(layers) == 0 {
		return nil
	}
	var (
		out   []Entry[K, V]
		index = map[K]int{}
	)
	for i := len(layers) - 1; i >= 0; i-- {
		for _, entry := range layers[i] {
			if pos, ok := index[entry.Key]; ok {
				out[pos].Value = entry.Value
				continue
			}
			index[entry.Key] = len(out)
			out = append(out, entry)
		}
	}
	return out
}

// Origin returns the index of the strongest layer carrying key, or -1 when no
// layer does. Layers are ordered from strongest to weakest as in Merge.
func Origin[K comparable, V any](key K, layers ...[]Entry[K, V]) int {
	for i, layer := range layers {
		for _, entry := range layer {
			if entry.Key == key {
				return i
			}
		}
	}
	return -1
}
