package kubeengine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ansel1/merry"
	helmclient "github.com/mittwald/go-helm-client"
	llog "github.com/sirupsen/logrus"
	"helm.sh/helm/v3/pkg/repo"
)

const defaultChartTimeout = 5 * time.Minute

// InstallOptions names a chart release the way the helm CLI would:
// repo add, then install with values.
type InstallOptions struct {
	ChartName      string
	ChartVersion   string
	ChartNamespace string
	ReleaseName    string
	RepositoryURL  string
	RepositoryName string
	ValuesYaml     string
	Timeout        time.Duration
}

func (e *Engine) helmClient(namespace, logLevel string) (helmclient.Client, error) {
	var debug bool

	switch strings.ToLower(logLevel) {
	case "trace", "debug":
		debug = true
	default:
		debug = false
	}

	kubeConfig, err := os.ReadFile(e.kubeconfigPath)
	if err != nil {
		return nil, merry.Prepend(err, "failed to read kubeconfig file")
	}

	options := &helmclient.KubeConfClientOptions{
		Options: &helmclient.Options{
			Namespace: namespace,
			Debug:     debug,
		},
		KubeContext: e.contextName,
		KubeConfig:  kubeConfig,
	}

	client, err := helmclient.NewClientFromKubeConf(options)
	if err != nil {
		return nil, merry.Prepend(err, "failed to create helm client")
	}

	return client, nil
}

// DeployChart installs or upgrades a chart release atomically.
func (e *Engine) DeployChart(
	ctx context.Context,
	installOptions *InstallOptions,
	logLevel string,
) error {
	client, err := e.helmClient(installOptions.ChartNamespace, logLevel)
	if err != nil {
		return err
	}

	chartRepo := repo.Entry{
		Name: installOptions.RepositoryName,
		URL:  installOptions.RepositoryURL,
	}

	if err = client.AddOrUpdateChartRepo(chartRepo); err != nil {
		return merry.Prependf(err, "failed to add chart repository '%s'", installOptions.RepositoryName)
	}

	if installOptions.Timeout == 0 {
		installOptions.Timeout = defaultChartTimeout
	}

	chartSpec := helmclient.ChartSpec{
		ReleaseName: installOptions.ReleaseName,
		ChartName:   installOptions.ChartName,
		Version:     installOptions.ChartVersion,
		Namespace:   installOptions.ChartNamespace,
		ValuesYaml:  installOptions.ValuesYaml,
		Timeout:     installOptions.Timeout,
		Atomic:      true,
		UpgradeCRDs: true,
		MaxHistory:  5,
	}

	if _, err = client.InstallOrUpgradeChart(ctx, &chartSpec, nil); err != nil {
		return merry.Prepend(
			err,
			fmt.Sprintf("failed to install/upgrade release '%s'", installOptions.ReleaseName),
		)
	}

	llog.Infof("Helm chart '%s' deploy: success", installOptions.ChartName)

	return nil
}

// UninstallRelease removes a chart release; missing releases are ignored.
func (e *Engine) UninstallRelease(namespace, releaseName, logLevel string) error {
	client, err := e.helmClient(namespace, logLevel)
	if err != nil {
		return err
	}

	if err = client.UninstallReleaseByName(releaseName); err != nil {
		if strings.Contains(err.Error(), "release: not found") {
			llog.Debugf("release '%s' not found, nothing to uninstall", releaseName)

			return nil
		}

		return merry.Prependf(err, "failed to uninstall release '%s'", releaseName)
	}

	llog.Infof("Helm release '%s' uninstall: success", releaseName)

	return nil
}
