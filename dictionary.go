//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// Dictionary is an owned AVDictionary of string options. The zero value is an
// empty dictionary; storage is allocated on the first Set.
type Dictionary struct {
	ptr avutil.Dictionary
}

// NewDictionary creates a dictionary holding the given entries.
func NewDictionary(entries map[string]string) (*Dictionary, error) {
	d := &Dictionary{}
	for k, v := range entries {
		if err := d.Set(k, v); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// Set stores value under key, replacing any previous value.
func (d *Dictionary) Set(key, value string) error {
	if err := Init(); err != nil {
		return err
	}
	return avutil.DictSet(&d.ptr, key, value, 0)
}

// Get returns the value stored under key.
func (d *Dictionary) Get(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	return avutil.DictGet(d.ptr, key)
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return avutil.DictCount(d.ptr)
}

// Entries returns a copy of every entry.
func (d *Dictionary) Entries() map[string]string {
	if d == nil {
		return map[string]string{}
	}
	return avutil.DictEntries(d.ptr)
}

// rawRef returns the address FFmpeg APIs use to consume and rewrite the
// dictionary in place.
func (d *Dictionary) rawRef() *avutil.Dictionary {
	if d == nil {
		return nil
	}
	return &d.ptr
}

// Close frees the entries. The dictionary stays usable and empty.
func (d *Dictionary) Close() error {
	if d == nil {
		return nil
	}
	avutil.DictFree(&d.ptr)
	d.ptr = nil
	return nil
}
