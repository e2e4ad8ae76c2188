package minikube

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	llog "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"gitlab.com/dataworks/devstack/pkg/devconfig"
)

// Addons every stack deployment relies on. Enabled right after start.
var requiredAddons = []string{
	"storage-provisioner",
	"default-storageclass",
}

type HostState string

const (
	HostRunning HostState = "Running"
	HostStopped HostState = "Stopped"
	HostAbsent  HostState = "Nonexistent"
)

// ClusterStatus mirrors the fields of `minikube status -o json` the
// commands actually look at.
type ClusterStatus struct {
	Host      HostState
	Kubelet   string
	APIServer string
}

func (s ClusterStatus) Running() bool {
	return s.Host == HostRunning && s.APIServer == "Running"
}

// Cluster drives the lifecycle of a single-profile local minikube cluster.
type Cluster struct {
	settings *devconfig.Settings
	run      commandRunner

	cachedIP string
}

func CreateCluster(settings *devconfig.Settings) *Cluster {
	return &Cluster{
		settings: settings,
		run:      newExecRunner(),
	}
}

// Start brings the profile up with the configured resources. A cluster that
// already reports Running is left untouched.
func (c *Cluster) Start(ctx context.Context) error {
	status, err := c.Status(ctx)
	if err == nil && status.Running() {
		llog.Infof("minikube profile '%s' already running", c.settings.Profile)

		return nil
	}

	llog.Infof("starting minikube profile '%s' (cpus=%d, memory=%s, disk=%s, driver=%s)",
		c.settings.Profile,
		c.settings.MinikubeCPUs,
		c.settings.MinikubeMemory,
		c.settings.MinikubeDisk,
		c.settings.MinikubeDriver)

	if _, err = c.run.Run(ctx, c.startArgs()...); err != nil {
		return errors.Wrapf(err, "failed to start minikube profile '%s'", c.settings.Profile)
	}

	for _, addon := range requiredAddons {
		if err = c.EnableAddon(ctx, addon); err != nil {
			return err
		}
	}

	llog.Infof("minikube profile '%s' start: success", c.settings.Profile)

	return nil
}

func (c *Cluster) startArgs() []string {
	return []string{
		"start",
		"-p", c.settings.Profile,
		fmt.Sprintf("--cpus=%d", c.settings.MinikubeCPUs),
		fmt.Sprintf("--memory=%s", c.settings.MinikubeMemory),
		fmt.Sprintf("--disk-size=%s", c.settings.MinikubeDisk),
		fmt.Sprintf("--driver=%s", c.settings.MinikubeDriver),
	}
}

func (c *Cluster) Stop(ctx context.Context) error {
	if _, err := c.run.Run(ctx, "stop", "-p", c.settings.Profile); err != nil {
		return errors.Wrapf(err, "failed to stop minikube profile '%s'", c.settings.Profile)
	}

	c.cachedIP = ""

	return nil
}

func (c *Cluster) Delete(ctx context.Context) error {
	if _, err := c.run.Run(ctx, "delete", "-p", c.settings.Profile); err != nil {
		return errors.Wrapf(err, "failed to delete minikube profile '%s'", c.settings.Profile)
	}

	c.cachedIP = ""

	return nil
}

// Status queries `minikube status -o json`. A missing profile is reported
// as HostAbsent rather than as an error: minikube exits non-zero for
// stopped and nonexistent profiles alike.
func (c *Cluster) Status(ctx context.Context) (ClusterStatus, error) {
	output, err := c.run.Run(ctx, "status", "-p", c.settings.Profile, "-o", "json")

	parsed := parseStatus(output)
	if err != nil && parsed.Host == "" {
		return ClusterStatus{Host: HostAbsent}, nil
	}

	return parsed, nil
}

func parseStatus(output []byte) ClusterStatus {
	// `minikube status -o json` yields an object for a single-node
	// profile and an array when more nodes exist; only the first node
	// matters on a single-node dev cluster.
	doc := gjson.ParseBytes(output)
	if doc.IsArray() {
		doc = doc.Get("0")
	}

	return ClusterStatus{
		Host:      HostState(doc.Get("Host").String()),
		Kubelet:   doc.Get("Kubelet").String(),
		APIServer: doc.Get("APIServer").String(),
	}
}

// IP returns the node address used to build NodePort URLs.
func (c *Cluster) IP(ctx context.Context) (string, error) {
	if c.cachedIP != "" {
		return c.cachedIP, nil
	}

	output, err := c.run.Run(ctx, "ip", "-p", c.settings.Profile)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get minikube ip for profile '%s'", c.settings.Profile)
	}

	ip := strings.TrimSpace(string(output))
	if ip == "" {
		return "", errors.Errorf("minikube ip for profile '%s' is empty", c.settings.Profile)
	}

	c.cachedIP = ip

	return ip, nil
}

func (c *Cluster) EnableAddon(ctx context.Context, addon string) error {
	if _, err := c.run.Run(ctx, "addons", "enable", addon, "-p", c.settings.Profile); err != nil {
		return errors.Wrapf(err, "failed to enable addon '%s'", addon)
	}

	llog.Debugf("addon '%s' enabled", addon)

	return nil
}

// Context returns the kubeconfig context name minikube registers for
// the profile.
func (c *Cluster) Context() string {
	return c.settings.Profile
}
