package service

import (
	"context"
	"os"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"gitlab.com/dataworks/devstack/pkg/state"
)

type redpandaService struct {
	commonService
}

func newRedpandaService() *redpandaService {
	return &redpandaService{
		commonService: commonService{
			name:        "redpanda",
			description: "Redpanda Kafka-compatible event streaming",
			selector:    "app=redpanda",
			expectPods:  1,
			serviceName: "redpanda",
			container:   "redpanda",
			ports: []portSpec{
				{name: "kafka", scheme: "kafka"},
				{name: "admin", scheme: "http"},
			},
		},
	}
}

func (rs *redpandaService) Deploy(ctx context.Context, st *state.State) error {
	if err := rs.deployManifests(ctx, st); err != nil {
		return err
	}

	if err := rs.Health(ctx, st); err != nil {
		return merry.Prepend(err, "redpanda pods are ready but the cluster is not healthy")
	}

	return nil
}

func (rs *redpandaService) Remove(ctx context.Context, st *state.State) error {
	return rs.removeManifests(ctx, st)
}

// Health asks rpk inside the pod; its JSON answer is authoritative for
// broker-level health, unlike pod readiness.
func (rs *redpandaService) Health(ctx context.Context, st *state.State) error {
	output, err := rs.execCaptured(ctx, st,
		[]string{"rpk", "cluster", "health", "--format", "json"})
	if err != nil {
		return merry.Prependf(err, "rpk cluster health failed: %s", output)
	}

	if healthy := gjson.Get(output, "is_healthy"); healthy.Exists() && !healthy.Bool() {
		return merry.Errorf("redpanda reports unhealthy cluster: %s", output)
	}

	llog.Debugln("redpanda health: cluster healthy")

	return nil
}

func (rs *redpandaService) ExecCommands() []ExecCommand {
	return []ExecCommand{
		{
			Use:   "rpk [-- rpk-args...]",
			Short: "Run rpk inside the redpanda pod",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				return rs.execInteractive(ctx, st, append([]string{"rpk"}, args...))
			},
		},
		{
			Use:   "topic-create <name>",
			Short: "Create a topic",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				if len(args) != 1 {
					return merry.New("topic-create expects exactly one topic name")
				}

				output, err := rs.execCaptured(ctx, st,
					[]string{"rpk", "topic", "create", args[0]})
				if err != nil {
					return merry.Prependf(err, "topic creation failed: %s", output)
				}

				llog.Infof("topic '%s' created", args[0])

				return nil
			},
		},
		{
			Use:   "topic-list",
			Short: "List topics",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				output, err := rs.execCaptured(ctx, st, []string{"rpk", "topic", "list"})
				if err != nil {
					return merry.Prependf(err, "topic list failed: %s", output)
				}

				_, _ = os.Stdout.WriteString(output)

				return nil
			},
		},
		{
			Use:   "produce <topic>",
			Short: "Produce records from stdin to a topic",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				if len(args) != 1 {
					return merry.New("produce expects exactly one topic name")
				}

				return rs.execInteractive(ctx, st,
					[]string{"rpk", "topic", "produce", args[0]})
			},
		},
		{
			Use:   "consume <topic>",
			Short: "Consume a topic to stdout",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				if len(args) != 1 {
					return merry.New("consume expects exactly one topic name")
				}

				return rs.execStreamed(ctx, st,
					[]string{"rpk", "topic", "consume", args[0]})
			},
		},
	}
}
