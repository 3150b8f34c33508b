//go:build (darwin || linux) && !noavutil

package avdict

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	avutilOnce    sync.Once
	avutilHandle  uintptr
	avutilInitErr error
)

// libavutil function pointers
var (
	avDictSet    func(pm *uintptr, key, value string, flags int32) int32
	avDictSetInt func(pm *uintptr, key string, value int64, flags int32) int32
	avDictGet    func(m uintptr, key string, prev uintptr, flags int32) uintptr
	avDictCount  func(m uintptr) int32
	avDictFree   func(pm *uintptr)
	avStrerror   func(errnum int32, buf *byte, size uintptr) int32
)

// avDictionaryEntry matches AVDictionaryEntry in libavutil/dict.h.
type avDictionaryEntry struct {
	key   uintptr
	value uintptr
}

// AV_DICT_MATCH_CASE
const avDictMatchCase = 1

func load() error {
	avutilOnce.Do(func() {
		avutilInitErr = loadAvutil()
	})
	return avutilInitErr
}

func loadAvutil() error {
	var lastErr error
	for _, path := range libraryPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		avutilHandle = handle
		if err := loadSymbols(); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return ErrUnavailable
}

func libraryPaths() []string {
	var paths []string
	if envPath := os.Getenv("FFOPTS_AVUTIL_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"libavutil.dylib",
			"/opt/homebrew/lib/libavutil.dylib",
			"/usr/local/lib/libavutil.dylib",
		)
	case "linux":
		paths = append(paths,
			"libavutil.so",
			"libavutil.so.59",
			"libavutil.so.58",
			"libavutil.so.57",
			"libavutil.so.56",
			"/usr/local/lib/libavutil.so",
		)
	}
	return paths
}

func loadSymbols() (err error) {
	// RegisterLibFunc panics on missing symbols.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register libavutil symbols: %v", r)
		}
	}()
	purego.RegisterLibFunc(&avDictSet, avutilHandle, "av_dict_set")
	purego.RegisterLibFunc(&avDictSetInt, avutilHandle, "av_dict_set_int")
	purego.RegisterLibFunc(&avDictGet, avutilHandle, "av_dict_get")
	purego.RegisterLibFunc(&avDictCount, avutilHandle, "av_dict_count")
	purego.RegisterLibFunc(&avDictFree, avutilHandle, "av_dict_free")
	purego.RegisterLibFunc(&avStrerror, avutilHandle, "av_strerror")
	return nil
}

func dictSet(pm *uintptr, key, value string) error {
	if rc := avDictSet(pm, key, value, 0); rc < 0 {
		return avError("av_dict_set "+key, rc)
	}
	return nil
}

func dictSetInt(pm *uintptr, key string, value int64) error {
	if rc := avDictSetInt(pm, key, value, 0); rc < 0 {
		return avError("av_dict_set_int "+key, rc)
	}
	return nil
}

func dictGet(m uintptr, key string) (string, bool) {
	if m == 0 {
		return "", false
	}
	ptr := avDictGet(m, key, 0, avDictMatchCase)
	if ptr == 0 {
		return "", false
	}
	entry := (*avDictionaryEntry)(unsafe.Pointer(ptr))
	return goStringFromPtr(entry.value), true
}

func dictCount(m uintptr) int {
	if m == 0 {
		return 0
	}
	return int(avDictCount(m))
}

func dictFree(pm *uintptr) {
	if *pm == 0 {
		return
	}
	avDictFree(pm)
	*pm = 0
}

func avError(op string, code int32) error {
	err := &AVError{Op: op, Code: code}
	buf := make([]byte, 128)
	if avStrerror(code, &buf[0], uintptr(len(buf))) == 0 {
		err.Msg = goStringFromPtr(uintptr(unsafe.Pointer(&buf[0])))
	}
	return err
}

// goStringFromPtr converts a NUL-terminated C string to a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for *(*byte)(unsafe.Add(p, length)) != 0 {
		length++
		if length > 1<<16 {
			break
		}
	}
	return string(unsafe.Slice((*byte)(p), length))
}
