// Package sysres discovers the host compute resources used to derive default
// resource quotas and doctor reports.
package sysres

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/elastic/go-sysinfo"
	"github.com/jaypipes/ghw"

	"github.com/modelyard/onnx-runner/pkg/logging"
	"github.com/modelyard/onnx-runner/pkg/onnx"
)

// HostReport summarizes the host's compute resources.
type HostReport struct {
	// OS and Arch identify the platform.
	OS   string
	Arch string
	// CPUs is the logical CPU count.
	CPUs int
	// TotalRAM is the total system memory in bytes, or zero if unknown.
	TotalRAM uint64
	// GPUs lists detected graphics cards as "vendor product" strings.
	GPUs []string
}

// Report probes the host.
func Report(log logging.Logger) HostReport {
	report := HostReport{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		CPUs: runtime.NumCPU(),
	}

	if host, err := sysinfo.Host(); err != nil {
		log.Warnf("Unable to read host info: %v", err)
	} else if memory, err := host.Memory(); err != nil {
		log.Warnf("Unable to read host memory size: %v", err)
	} else {
		report.TotalRAM = memory.Total
	}

	if gpus, err := ghw.GPU(); err != nil {
		log.Warnf("Unable to enumerate GPUs: %v", err)
	} else {
		for _, card := range gpus.GraphicsCards {
			if card.DeviceInfo == nil {
				continue
			}
			vendor, product := "unknown", "unknown"
			if card.DeviceInfo.Vendor != nil {
				vendor = card.DeviceInfo.Vendor.Name
			}
			if card.DeviceInfo.Product != nil {
				product = card.DeviceInfo.Product.Name
			}
			report.GPUs = append(report.GPUs, vendor+" "+product)
		}
	}
	return report
}

// DetectQuota derives a default resource quota from the host: the full
// logical CPU count, plus one device id per NVIDIA accelerator. GPU ids are
// assigned positionally as gpu0..gpuN.
func DetectQuota(log logging.Logger) onnx.ResourceQuota {
	quota := onnx.ResourceQuota{CPU: float64(runtime.NumCPU())}

	gpus, err := ghw.GPU()
	if err != nil {
		log.Warnf("Unable to enumerate GPUs, assuming CPU-only quota: %v", err)
		return quota
	}
	for _, card := range gpus.GraphicsCards {
		if card.DeviceInfo == nil || card.DeviceInfo.Vendor == nil {
			continue
		}
		if strings.Contains(strings.ToLower(card.DeviceInfo.Vendor.Name), "nvidia") {
			quota.GPUs = append(quota.GPUs, fmt.Sprintf("gpu%d", len(quota.GPUs)))
		}
	}
	return quota
}
