package onnx

import (
	"fmt"
	"math"
)

// ResourceQuota is the declared compute allocation driving topology planning.
type ResourceQuota struct {
	// CPU is the allocated CPU share. It may be fractional.
	CPU float64
	// GPUs is the list of allocated accelerator device ids. A non-empty list
	// implies GPU-accelerated execution, in which case the CPU share is
	// ignored for topology purposes.
	GPUs []string
}

// OnGPU reports whether the quota allocates accelerators.
func (q ResourceQuota) OnGPU() bool {
	return len(q.GPUs) > 0
}

// Validate rejects quotas outside the planner's declared input domain:
// negative CPU shares and duplicate GPU ids.
func (q ResourceQuota) Validate() error {
	if q.CPU < 0 {
		return fmt.Errorf("negative cpu share %v", q.CPU)
	}
	seen := make(map[string]bool, len(q.GPUs))
	for _, gpu := range q.GPUs {
		if seen[gpu] {
			return fmt.Errorf("duplicate gpu id %q", gpu)
		}
		seen[gpu] = true
	}
	return nil
}

// Topology is a planned serving layout.
type Topology struct {
	// Replicas is the number of independent serving replicas.
	Replicas int
	// ConcurrencyPerReplica is the number of inference calls each replica may
	// run concurrently against its session.
	ConcurrencyPerReplica int
}

// PlanTopology derives a serving topology from a resource quota. Accelerators
// are not treated as time-shareable: on GPU, each device gets one replica
// with one exclusive inference stream. On CPU there is a single replica whose
// concurrency is the rounded CPU share, floored at one. The function is pure
// and total over quotas accepted by Validate.
func PlanTopology(quota ResourceQuota) Topology {
	if quota.OnGPU() {
		return Topology{Replicas: len(quota.GPUs), ConcurrencyPerReplica: 1}
	}
	concurrency := int(math.Round(quota.CPU))
	if concurrency < 1 {
		concurrency = 1
	}
	return Topology{Replicas: 1, ConcurrencyPerReplica: concurrency}
}
