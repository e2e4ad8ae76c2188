package service

import (
	"context"

	"github.com/ansel1/merry"
	"github.com/tidwall/gjson"

	"gitlab.com/dataworks/devstack/pkg/engine/kubeengine"
	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	elasticPodPort     = 9200
	elasticLocalPort   = 19200
	elasticReleaseName = "elasticsearch"
)

// elasticsearch comes from the official elastic chart, pinned to a
// single-node topology sized for a laptop cluster.
type elasticsearchService struct {
	commonService
}

func newElasticsearchService() *elasticsearchService {
	return &elasticsearchService{
		commonService: commonService{
			name:        "elasticsearch",
			description: "Elasticsearch full-text search engine",
			selector:    "app=elasticsearch-master",
			expectPods:  1,
			serviceName: "elasticsearch-master",
			container:   "elasticsearch",
			ports: []portSpec{
				{name: "http", scheme: "http"},
			},
		},
	}
}

func (es *elasticsearchService) Deploy(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	if err = engine.EnsureNamespace(ctx, st.Settings.Namespace); err != nil {
		return err
	}

	values, err := loadValues(es.name, "values.yaml")
	if err != nil {
		return err
	}

	installOptions := &kubeengine.InstallOptions{
		ChartName:      "elastic/elasticsearch",
		ChartNamespace: st.Settings.Namespace,
		ReleaseName:    elasticReleaseName,
		RepositoryURL:  "https://helm.elastic.co",
		RepositoryName: "elastic",
		ValuesYaml:     string(values),
		Timeout:        st.Settings.WaitTimeout,
	}

	if err = engine.DeployChart(ctx, installOptions, st.Settings.LogLevel); err != nil {
		return merry.Prepend(err, "failed to install elasticsearch chart")
	}

	return engine.WaitStatefulSetReady(
		ctx, st.Settings.Namespace, elasticReleaseName+"-master", st.Settings.WaitTimeout)
}

func (es *elasticsearchService) Remove(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	return engine.UninstallRelease(st.Settings.Namespace, elasticReleaseName, st.Settings.LogLevel)
}

// Health asks _cluster/health and accepts green or yellow: a single
// node can never satisfy green for replicated indices.
func (es *elasticsearchService) Health(ctx context.Context, st *state.State) error {
	return es.forwardAndProbe(ctx, st, elasticLocalPort, elasticPodPort, func(port int) error {
		body, err := httpHealthyBody(ctx, localProbeURL(port, "/_cluster/health"))
		if err != nil {
			return err
		}

		clusterStatus := gjson.GetBytes(body, "status").String()
		if clusterStatus != "green" && clusterStatus != "yellow" {
			return merry.Errorf("elasticsearch cluster status is '%s'", clusterStatus)
		}

		return nil
	})
}
