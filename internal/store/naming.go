package store

import (
	"fmt"
	"strings"
)

// AvailableName returns name unchanged if takenNames does not contain it,
// otherwise appends an epoch timestamp before the file extension (if any)
// until the result is free — mirroring the original's
// get_available_file_name collision-avoidance scheme used by archive and
// restore, which never fail the operation outright on a name clash.
func AvailableName(name string, takenNames map[string]bool, nowUnix int64) string {
	if !takenNames[name] {
		return name
	}
	stem, ext := name, ""
	if idx := strings.Index(name, "."); idx >= 0 {
		stem, ext = name[:idx], "."+name[idx+1:]
	}
	candidate := fmt.Sprintf("%s_%d%s", stem, nowUnix, ext)
	for takenNames[candidate] {
		nowUnix++
		candidate = fmt.Sprintf("%s_%d%s", stem, nowUnix, ext)
	}
	return candidate
}
