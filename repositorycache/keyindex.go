package repositorycache

import "sync"

// keyIndex tracks the keys an entity wrote to a store without tag support, so
// the whole entity can still be evicted. It only knows about keys written by
// this process.
type keyIndex struct {
	keys sync.Map
}

func (k *keyIndex) add(key string) {
	k.keys.Store(key, struct{}{})
}

func (k *keyIndex) remove(key string) {
	k.keys.Delete(key)
}

// drain removes and returns every tracked key.
func (k *keyIndex) drain() []string {
	var keys []string
	k.keys.Range(func(key, _ any) bool {
		if _, loaded := k.keys.LoadAndDelete(key); loaded {
			keys = append(keys, key.(string))
		}
		return true
	})
	return keys
}

func (k *keyIndex) len() int {
	n := 0
	k.keys.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
