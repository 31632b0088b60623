package server

import (
	"os"
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

const mib = 1 << 20

// getMeminfo reports the serving process's memory usage in MiB: resident
// set, virtual size and peak resident set.
func getMeminfo() map[string]interface{} {
	res := make(map[string]interface{})
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			res["memory_rss_mib"] = float64(info.RSS) / mib
			res["memory_vms_mib"] = float64(info.VMS) / mib
		}
	}
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err == nil {
		factor := int64(1024)
		if runtime.GOOS == "darwin" {
			// ru_maxrss is in bytes on darwin, kilobytes elsewhere.
			factor = 1
		}
		res["memory_maxrss_mib"] = float64(rusage.Maxrss*factor) / mib
	}
	return res
}
