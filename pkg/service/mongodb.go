package service

import (
	"context"
	"fmt"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	mongoPodPort   = 27017
	mongoLocalPort = 27018
)

type mongoService struct {
	commonService
}

func newMongoService() *mongoService {
	return &mongoService{
		commonService: commonService{
			name:        "mongodb",
			description: "MongoDB document database",
			selector:    "app=mongodb",
			expectPods:  1,
			serviceName: "mongodb",
			container:   "mongodb",
			ports: []portSpec{
				{name: "mongo", scheme: "mongodb"},
			},
		},
	}
}

func (ms *mongoService) Deploy(ctx context.Context, st *state.State) error {
	if err := ms.deployManifests(ctx, st); err != nil {
		return err
	}

	if err := ms.Health(ctx, st); err != nil {
		return merry.Prepend(err, "mongodb pods are ready but the server does not answer")
	}

	return nil
}

func (ms *mongoService) Remove(ctx context.Context, st *state.State) error {
	return ms.removeManifests(ctx, st)
}

// Health pings the primary through a temporary port-forward, the same
// handshake mongosh performs on connect.
func (ms *mongoService) Health(ctx context.Context, st *state.State) error {
	return ms.forwardAndProbe(ctx, st, mongoLocalPort, mongoPodPort, func(port int) error {
		uri := fmt.Sprintf("mongodb://127.0.0.1:%d/?directConnection=true", port)

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return merry.Prepend(err, "mongodb connection failed")
		}

		defer func() { _ = client.Disconnect(ctx) }()

		if err = client.Ping(ctx, readpref.Primary()); err != nil {
			return merry.Prepend(err, "mongodb ping failed")
		}

		llog.Debugln("mongodb health: ping answered")

		return nil
	})
}

func (ms *mongoService) ExecCommands() []ExecCommand {
	return []ExecCommand{
		{
			Use:   "mongosh [-- mongosh-args...]",
			Short: "Open a mongosh prompt inside the mongodb pod",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				return ms.execInteractive(ctx, st, append([]string{"mongosh"}, args...))
			},
		},
		{
			Use:   "mongodump <database>",
			Short: "Dump a database as BSON archive to stdout",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				if len(args) != 1 {
					return merry.New("mongodump expects exactly one database name")
				}

				return ms.execStreamed(ctx, st,
					[]string{"mongodump", "--db", args[0], "--archive"})
			},
		},
	}
}
