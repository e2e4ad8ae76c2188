package service

import (
	"context"

	"github.com/ansel1/merry"
	"github.com/sethvargo/go-password/password"
	llog "github.com/sirupsen/logrus"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"gitlab.com/dataworks/devstack/pkg/engine/kubeengine"
	"gitlab.com/dataworks/devstack/pkg/state"
)

const (
	generatedPasswordLength  = 20
	generatedPasswordDigits  = 5
	generatedPasswordSymbols = 0
)

// Credentials are what service manifests reference through a
// devstack-<service>-credentials Secret. Defaults match the upstream
// images' well-known development logins.
type Credentials struct {
	User     string
	Password string
}

func credentialsSecretName(serviceName string) string {
	return "devstack-" + serviceName + "-credentials"
}

// ensureCredentials creates the credentials Secret of a service before
// its manifests are applied. With GeneratePasswords a random password
// replaces the well-known default and is logged exactly once.
func ensureCredentials(
	ctx context.Context,
	st *state.State,
	serviceName string,
	defaults Credentials,
) (Credentials, error) {
	engine, err := st.EnsureEngine()
	if err != nil {
		return Credentials{}, err
	}

	clientSet, err := engine.GetClientSet()
	if err != nil {
		return Credentials{}, err
	}

	secretName := credentialsSecretName(serviceName)

	existing, err := clientSet.CoreV1().Secrets(st.Settings.Namespace).
		Get(ctx, secretName, metav1.GetOptions{})
	if err == nil {
		// keep the already-provisioned password stable across redeploys
		return Credentials{
			User:     string(existing.Data["user"]),
			Password: string(existing.Data["password"]),
		}, nil
	}

	if !isNotFound(err) {
		return Credentials{}, merry.Prependf(err, "failed to look up secret '%s'", secretName)
	}

	creds := defaults

	if st.Settings.GeneratePasswords {
		generated, err := password.Generate(
			generatedPasswordLength,
			generatedPasswordDigits,
			generatedPasswordSymbols,
			false, false)
		if err != nil {
			return Credentials{}, merry.Prepend(err, "failed to generate password")
		}

		creds.Password = generated
		llog.Infof("generated %s credentials: %s / %s", serviceName, creds.User, creds.Password)
	}

	secret := &v1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      secretName,
			Namespace: st.Settings.Namespace,
			Labels:    map[string]string{"app.kubernetes.io/managed-by": kubeengine.FieldManager},
		},
		Type: v1.SecretTypeOpaque,
		StringData: map[string]string{
			"user":     creds.User,
			"password": creds.Password,
		},
	}

	_, err = clientSet.CoreV1().Secrets(st.Settings.Namespace).
		Create(ctx, secret, metav1.CreateOptions{FieldManager: kubeengine.FieldManager})
	if err != nil {
		return Credentials{}, merry.Prependf(err, "failed to create secret '%s'", secretName)
	}

	return creds, nil
}

// deleteCredentials removes the credentials Secret on service removal.
func deleteCredentials(ctx context.Context, st *state.State, serviceName string) error {
	engine, err := st.EnsureEngine()
	if err != nil {
		return err
	}

	clientSet, err := engine.GetClientSet()
	if err != nil {
		return err
	}

	err = clientSet.CoreV1().Secrets(st.Settings.Namespace).Delete(
		ctx,
		credentialsSecretName(serviceName),
		kubeengine.GenerateDefaultDeleteOptions(),
	)
	if err != nil && !isNotFound(err) {
		return merry.Prependf(err, "failed to delete credentials of '%s'", serviceName)
	}

	return nil
}
