package bigmul

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// CPUFeatures holds the CPU capabilities relevant to big-integer arithmetic.
// They are reported alongside calibration results, since the crossover
// points between multiplication tiers move with them.
type CPUFeatures struct {
	Arch   string
	Cores  int
	AVX2   bool
	AVX512 bool
	BMI2   bool
	ADX    bool
	ASIMD  bool
}

// DetectCPUFeatures queries golang.org/x/sys/cpu for the running machine.
func DetectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		Arch:   runtime.GOARCH,
		Cores:  runtime.NumCPU(),
		AVX2:   cpu.X86.HasAVX2,
		AVX512: cpu.X86.HasAVX512F && cpu.X86.HasAVX512DQ,
		BMI2:   cpu.X86.HasBMI2,
		ADX:    cpu.X86.HasADX,
		ASIMD:  cpu.ARM64.HasASIMD,
	}
}

// String returns a human-readable summary of CPU features.
func (f CPUFeatures) String() string {
	var features []string
	if f.AVX512 {
		features = append(features, "AVX-512")
	}
	if f.AVX2 {
		features = append(features, "AVX2")
	}
	if f.BMI2 {
		features = append(features, "BMI2")
	}
	if f.ADX {
		features = append(features, "ADX")
	}
	if f.ASIMD {
		features = append(features, "ASIMD")
	}
	if len(features) == 0 {
		return f.Arch + ": no SIMD features detected"
	}
	return f.Arch + ": " + strings.Join(features, ", ")
}
