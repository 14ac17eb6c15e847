//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// Dictionary flags (AV_DICT_*).
const (
	DictMatchCase     int32 = 1
	DictIgnoreSuffix  int32 = 2
	DictDontOverwrite int32 = 16
	DictAppend        int32 = 32
)

var (
	avDictSet   func(pm *unsafe.Pointer, key, value string, flags int32) int32
	avDictGet   func(m unsafe.Pointer, key string, prev unsafe.Pointer, flags int32) unsafe.Pointer
	avDictCount func(m unsafe.Pointer) int32
	avDictCopy  func(dst *unsafe.Pointer, src unsafe.Pointer, flags int32) int32
	avDictFree  func(pm *unsafe.Pointer)
)

func registerDictBindings(lib uintptr) {
	purego.RegisterLibFunc(&avDictSet, lib, "av_dict_set")
	purego.RegisterLibFunc(&avDictGet, lib, "av_dict_get")
	purego.RegisterLibFunc(&avDictCount, lib, "av_dict_count")
	purego.RegisterLibFunc(&avDictCopy, lib, "av_dict_copy")
	purego.RegisterLibFunc(&avDictFree, lib, "av_dict_free")
}

// DictSet sets a key-value pair in a dictionary, allocating it when *dict is nil.
func DictSet(dict *Dictionary, key, value string, flags int32) error {
	if avDictSet == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avDictSet(dict, key, value, flags), "av_dict_set")
}

// DictGet returns the value stored under key.
func DictGet(dict Dictionary, key string) (string, bool) {
	if dict == nil || avDictGet == nil {
		return "", false
	}
	entry := avDictGet(dict, key, nil, DictMatchCase)
	if entry == nil {
		return "", false
	}
	return dictEntryValue(entry), true
}

// DictCount returns the number of entries in the dictionary.
func DictCount(dict Dictionary) int {
	if dict == nil || avDictCount == nil {
		return 0
	}
	return int(avDictCount(dict))
}

// DictEntries returns a copy of every key-value pair.
func DictEntries(dict Dictionary) map[string]string {
	out := make(map[string]string, DictCount(dict))
	if dict == nil || avDictGet == nil {
		return out
	}
	var entry unsafe.Pointer
	for {
		// An empty key with IGNORE_SUFFIX matches every entry.
		entry = avDictGet(dict, "", entry, DictIgnoreSuffix)
		if entry == nil {
			return out
		}
		out[dictEntryKey(entry)] = dictEntryValue(entry)
	}
}

// DictCopy copies every entry of src into *dst.
func DictCopy(dst *Dictionary, src Dictionary, flags int32) error {
	if avDictCopy == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avDictCopy(dst, src, flags), "av_dict_copy")
}

// DictFree frees a dictionary and sets the pointer to nil.
func DictFree(dict *Dictionary) {
	if dict == nil || *dict == nil || avDictFree == nil {
		return
	}
	avDictFree(dict)
}

// AVDictionaryEntry is {char *key; char *value;}.
func dictEntryKey(entry unsafe.Pointer) string {
	return bindings.GoString(*field[uintptr](entry, 0))
}

func dictEntryValue(entry unsafe.Pointer) string {
	return bindings.GoString(*field[uintptr](entry, 8))
}
