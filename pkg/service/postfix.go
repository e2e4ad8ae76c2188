package service

import (
	"context"
	"fmt"

	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	postfixPodPort   = 587
	postfixLocalPort = 12587
)

type postfixService struct {
	commonService
}

func newPostfixService() *postfixService {
	return &postfixService{
		commonService: commonService{
			name:        "postfix",
			description: "Postfix SMTP relay",
			selector:    "app=postfix",
			expectPods:  1,
			serviceName: "postfix",
			container:   "postfix",
			ports: []portSpec{
				{name: "smtp", scheme: "smtp"},
			},
		},
	}
}

func (ps *postfixService) Deploy(ctx context.Context, st *state.State) error {
	return ps.deployManifests(ctx, st)
}

func (ps *postfixService) Remove(ctx context.Context, st *state.State) error {
	return ps.removeManifests(ctx, st)
}

func (ps *postfixService) Health(ctx context.Context, st *state.State) error {
	return ps.forwardAndProbe(ctx, st, postfixLocalPort, postfixPodPort, func(port int) error {
		return smtpBannerHealthy(fmt.Sprintf("127.0.0.1:%d", port))
	})
}

func (ps *postfixService) ExecCommands() []ExecCommand {
	return []ExecCommand{
		{
			Use:   "mailq",
			Short: "Show the deferred mail queue",
			Run: func(ctx context.Context, st *state.State, args []string) error {
				return ps.execStreamed(ctx, st, []string{"mailq"})
			},
		},
	}
}
