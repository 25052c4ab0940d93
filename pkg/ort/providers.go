package ort

import (
	"runtime"
	"strings"

	"github.com/jaypipes/ghw"

	"github.com/modelyard/onnx-runner/pkg/logging"
)

// Execution provider names as registered in the ONNX Runtime catalogue.
const (
	ProviderCPU      = "CPUExecutionProvider"
	ProviderCUDA     = "CUDAExecutionProvider"
	ProviderTensorRT = "TensorrtExecutionProvider"
	ProviderROCm     = "ROCMExecutionProvider"
	ProviderOpenVINO = "OpenVINOExecutionProvider"
	ProviderDnnl     = "DnnlExecutionProvider"
	ProviderCoreML   = "CoreMLExecutionProvider"
	ProviderDML      = "DmlExecutionProvider"
	ProviderNNAPI    = "NnapiExecutionProvider"
	ProviderQNN      = "QNNExecutionProvider"
	ProviderXNNPACK  = "XnnpackExecutionProvider"
)

// allProviders is the full registered provider catalogue. It intentionally
// includes providers that may not be installed on this host; availability is
// probed separately.
var allProviders = []string{
	ProviderCPU,
	ProviderCUDA,
	ProviderTensorRT,
	ProviderROCm,
	ProviderOpenVINO,
	ProviderDnnl,
	ProviderCoreML,
	ProviderDML,
	ProviderNNAPI,
	ProviderQNN,
	ProviderXNNPACK,
}

// probeAvailableProviders determines which providers are usable on this host
// right now. The CPU provider is always usable. CUDA and TensorRT require an
// NVIDIA GPU; CoreML and DML are platform-bound.
func probeAvailableProviders(log logging.Logger) []string {
	available := []string{ProviderCPU}

	if nvidia, err := hasNVIDIAGPU(); err != nil {
		log.Warnf("Unable to probe GPUs, assuming CPU-only providers: %v", err)
	} else if nvidia {
		available = append(available, ProviderCUDA, ProviderTensorRT)
	}

	switch runtime.GOOS {
	case "darwin":
		available = append(available, ProviderCoreML)
	case "windows":
		available = append(available, ProviderDML)
	}
	return available
}

// hasNVIDIAGPU reports whether the host has an NVIDIA graphics card.
func hasNVIDIAGPU() (bool, error) {
	gpus, err := ghw.GPU()
	if err != nil {
		return false, err
	}
	for _, gpu := range gpus.GraphicsCards {
		if gpu.DeviceInfo != nil && gpu.DeviceInfo.Vendor != nil &&
			strings.Contains(strings.ToLower(gpu.DeviceInfo.Vendor.Name), "nvidia") {
			return true, nil
		}
	}
	return false, nil
}
