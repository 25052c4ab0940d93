package sysres

import (
	"testing"

	"github.com/modelyard/onnx-runner/pkg/logging"
)

func TestReport(t *testing.T) {
	report := Report(logging.Discard())
	if report.OS == "" || report.Arch == "" {
		t.Errorf("report missing platform identity: %+v", report)
	}
	if report.CPUs < 1 {
		t.Errorf("report cpus = %d, want at least 1", report.CPUs)
	}
}

func TestDetectQuota(t *testing.T) {
	quota := DetectQuota(logging.Discard())
	if quota.CPU < 1 {
		t.Errorf("quota cpu = %v, want at least 1", quota.CPU)
	}
	if err := quota.Validate(); err != nil {
		t.Errorf("detected quota fails validation: %v", err)
	}
}
