//go:build !(darwin || linux) || noavutil

package avdict

func load() error { return ErrUnavailable }

func dictSet(*uintptr, string, string) error { return ErrUnavailable }

func dictSetInt(*uintptr, string, int64) error { return ErrUnavailable }

func dictGet(uintptr, string) (string, bool) { return "", false }

func dictCount(uintptr) int { return 0 }

func dictFree(pm *uintptr) { *pm = 0 }
