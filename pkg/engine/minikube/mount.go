package minikube

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	llog "github.com/sirupsen/logrus"
)

// MountSession is a backgrounded `minikube mount` process. The mount
// lives until Close is called or the devstack process exits.
type MountSession struct {
	ID     uuid.UUID
	Source string
	Target string

	cmd *exec.Cmd
}

// Mount backgrounds `minikube mount source:target` for the profile.
// The spec string is the only coordination point with the process;
// minikube itself keeps the 9p server running.
func (c *Cluster) Mount(ctx context.Context, source, target string) (*MountSession, error) {
	if source == "" || target == "" {
		return nil, errors.New("mount requires both source and target paths")
	}

	spec := fmt.Sprintf("%s:%s", source, target)

	cmd, err := c.run.StartBackground(ctx, "mount", spec, "-p", c.settings.Profile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start mount '%s'", spec)
	}

	session := &MountSession{
		ID:     uuid.New(),
		Source: source,
		Target: target,
		cmd:    cmd,
	}

	llog.Infof("mount session %s: '%s' -> '%s' (pid %d)",
		session.ID, source, target, cmd.Process.Pid)

	return session, nil
}

func (m *MountSession) Close() error {
	if m.cmd == nil || m.cmd.Process == nil {
		return nil
	}

	if err := m.cmd.Process.Kill(); err != nil {
		return errors.Wrapf(err, "failed to stop mount session %s", m.ID)
	}

	// reap the process so it does not linger as a zombie
	_ = m.cmd.Wait()

	llog.Infof("mount session %s closed", m.ID)

	return nil
}
