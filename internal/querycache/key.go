package querycache

import "strings"

// Key identifies a cache entry: a resource kind plus the identity parameters it was read for.
type Key struct {
	Resource string
	Params   []string
}

func NewKey(resource string, params ...string) Key {
	return Key{Resource: resource, Params: params}
}

func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	return k.Resource + "/" + strings.Join(k.Params, "/")
}

// HasPrefix reports whether prefix selects k. An empty prefix resource selects every key;
// otherwise the resources must be equal and prefix.Params must be a leading run of k.Params.
func (k Key) HasPrefix(prefix Key) bool {
	if prefix.Resource == "" {
		return true
	}
	if k.Resource != prefix.Resource || len(prefix.Params) > len(k.Params) {
		return false
	}
	for i, p := range prefix.Params {
		if k.Params[i] != p {
			return false
		}
	}
	return true
}

// id is the map identity of k. Params may themselves contain "/", so String is not used.
func (k Key) id() string {
	return k.Resource + "\x1f" + strings.Join(k.Params, "\x1f")
}
