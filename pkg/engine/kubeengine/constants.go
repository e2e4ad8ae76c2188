package kubeengine

import "time"

const (
	ResourcePodName = "pods"

	SubresourceExec           = "exec"
	SubresourcePortForwarding = "portforward"

	// FieldManager identifies this tool in managedFields of every
	// object it applies.
	FieldManager = "devstack"

	PodWaitingWaitCreation    = true
	PodWaitingNotWaitCreation = false

	PodWaitingTime = 5 * time.Minute

	// waitTimeQuantum is the fixed polling interval of every readiness
	// loop, matching the cadence `kubectl wait` uses.
	waitTimeQuantum = 10 * time.Second
)
