package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ansel1/merry"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4/pgxpool"
	llog "github.com/sirupsen/logrus"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	postgresPodPort       = 5432
	postgresLocalPort     = 6432
	postgresDefaultUser   = "postgres"
	postgresDefaultPass   = "postgres"
	postgresContainerName = "postgres"
)

type postgresService struct {
	commonService
}

func newPostgresService() *postgresService {
	return &postgresService{
		commonService: commonService{
			name:        "postgres",
			description: "PostgreSQL relational database",
			selector:    "app=postgres",
			expectPods:  1,
			serviceName: "postgres",
			container:   postgresContainerName,
			ports: []portSpec{
				{name: "postgres", scheme: "postgres"},
			},
		},
	}
}

func (ps *postgresService) Deploy(ctx context.Context, st *state.State) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	if err = engine.EnsureNamespace(ctx, st.Settings.Namespace); err != nil {
		return err
	}

	if _, err = ensureCredentials(ctx, st, ps.name, Credentials{
		User:     postgresDefaultUser,
		Password: postgresDefaultPass,
	}); err != nil {
		return err
	}

	if err = ps.deployManifests(ctx, st); err != nil {
		return err
	}

	if err = ps.Health(ctx, st); err != nil {
		return merry.Prepend(err, "postgres pods are ready but the database does not answer")
	}

	return nil
}

func (ps *postgresService) Remove(ctx context.Context, st *state.State) error {
	if err := ps.removeManifests(ctx, st); err != nil {
		return err
	}

	return deleteCredentials(ctx, st, ps.name)
}

// Health connects through a temporary port-forward and runs SELECT 1,
// distinguishing auth failures from a server that is still starting.
func (ps *postgresService) Health(ctx context.Context, st *state.State) error {
	creds, err := ensureCredentials(ctx, st, ps.name, Credentials{
		User:     postgresDefaultUser,
		Password: postgresDefaultPass,
	})
	if err != nil {
		return err
	}

	return ps.forwardAndProbe(ctx, st, postgresLocalPort, postgresPodPort, func(port int) error {
		url := fmt.Sprintf("postgres://%s:%s@127.0.0.1:%d/postgres?sslmode=disable",
			creds.User, creds.Password, port)

		pool, err := pgxpool.Connect(ctx, url)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgerrcode.IsInvalidAuthorizationSpecification(pgErr.Code) {
				return merry.Prepend(err, "postgres rejected the stored credentials")
			}

			return merry.Prepend(err, "postgres connection failed")
		}

		defer pool.Close()

		var one int
		if err = pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
			return merry.Prepend(err, "postgres ping query failed")
		}

		llog.Debugf("postgres health: SELECT 1 answered %d", one)

		return nil
	})
}

func (ps *postgresService) ExecCommands() []ExecCommand {
	return []ExecCommand{
		{
			Use:   "psql [-- psql-args...]",
			Short: "Open a psql prompt inside the postgres pod",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				command := append([]string{"psql", "-U", postgresDefaultUser}, args...)

				return ps.execInteractive(ctx, st, command)
			},
		},
		{
			Use:   "createdb <name>",
			Short: "Create a database",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				if len(args) != 1 {
					return merry.New("createdb expects exactly one database name")
				}

				output, err := ps.execCaptured(ctx, st,
					[]string{"createdb", "-U", postgresDefaultUser, args[0]})
				if err != nil {
					return merry.Prependf(err, "createdb failed: %s", output)
				}

				llog.Infof("database '%s' created", args[0])

				return nil
			},
		},
		{
			Use:   "dump <database>",
			Short: "Write a pg_dump of a database to stdout",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				if len(args) != 1 {
					return merry.New("dump expects exactly one database name")
				}

				return ps.execStreamed(ctx, st,
					[]string{"pg_dump", "-U", postgresDefaultUser, args[0]})
			},
		},
	}
}
