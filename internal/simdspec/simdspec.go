// Package simdspec inspects the host CPU's core topology to size the
// real-time routing-zone worker pool. Adapted from the teacher's
// internal/cpuspec (which sized its ML-analysis thread pool off
// performance-core counts on hybrid Intel/Apple Silicon parts); here the
// same P-core preference applies to pinning routing-zone goroutines onto
// the cores least likely to be throttled or preempted by a background
// E-core task, since a missed real-time deadline is the cost of guessing
// wrong.
package simdspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec describes the host's core topology as far as it can be
// determined from the CPU brand string.
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
}

// Detect returns the host's CPUSpec.
func Detect() CPUSpec {
	brandName := cpuid.CPU.BrandName
	return CPUSpec{
		BrandName:        brandName,
		PerformanceCores: determinePerformanceCores(brandName),
	}
}

// OptimalZoneWorkers returns the recommended number of concurrently
// driven routing zones: the host's performance-core count, capped at the
// number of logical CPUs actually available (important inside a VM or
// container with a CPU quota), falling back to all logical cores when
// the performance-core count can't be determined.
func (c CPUSpec) OptimalZoneWorkers() int {
	availableCPUs := runtime.NumCPU()

	if c.PerformanceCores > 0 {
		if c.PerformanceCores > availableCPUs {
			return availableCPUs
		}
		return c.PerformanceCores
	}

	return cpuid.CPU.LogicalCores
}

func determinePerformanceCores(brandName string) int {
	brandName = strings.ToLower(brandName)

	intelCoreRegex := regexp.MustCompile(`intel.*(?:core.*i[357,9]-(\d{5})|core.*ultra\s+([579])\s+(?:processor\s+)?(\d{3}))`)
	if matches := intelCoreRegex.FindStringSubmatch(brandName); len(matches) > 1 {
		if matches[1] != "" {
			model := matches[1]
			switch {
			case strings.HasPrefix(model, "12"):
				switch model {
				case "12900":
					return 8
				case "12700":
					return 8
				case "12600":
					return 6
				case "12400":
					return 6
				case "12100":
					return 4
				}
			case strings.HasPrefix(model, "13"):
				switch model {
				case "13900":
					return 8
				case "13700":
					return 8
				case "13600":
					return 6
				case "13500":
					return 6
				case "13400":
					return 6
				case "13100":
					return 4
				}
			case strings.HasPrefix(model, "14"):
				switch model {
				case "14900":
					return 8
				case "14700":
					return 8
				case "14600":
					return 6
				case "14400":
					return 6
				case "14100":
					return 4
				}
			}
		} else if matches[2] != "" {
			series := matches[2]
			model := matches[3]
			switch series {
			case "9":
				if model == "285" {
					return 8
				}
			case "7":
				switch model {
				case "265", "265K", "265H":
					return 8
				case "255":
					return 8
				}
			case "5":
				switch model {
				case "235":
					return 6
				case "225":
					return 4
				}
			}
		}
	}

	appleRegex := regexp.MustCompile(`(?i)apple\s+(m[1234]\s*(pro|max|ultra)?)\s*`)
	if matches := appleRegex.FindStringSubmatch(brandName); len(matches) > 1 {
		chip := strings.ToLower(strings.TrimSpace(matches[1]))
		switch chip {
		case "m1":
			return 4
		case "m1 pro":
			return 8
		case "m1 max":
			return 8
		case "m1 ultra":
			return 16
		case "m2":
			return 4
		case "m2 pro":
			return 8
		case "m2 max":
			return 12
		case "m2 ultra":
			return 24
		case "m3":
			return 4
		case "m3 pro":
			return 8
		case "m3 max":
			return 12
		case "m3 ultra":
			return 24
		case "m4":
			return 6
		case "m4 pro":
			return 8
		case "m4 max":
			return 12
		}
	}

	return 0
}
