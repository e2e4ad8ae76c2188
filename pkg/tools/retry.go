package tools

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ansel1/merry"
	llog "github.com/sirupsen/logrus"
)

const (
	RetryStandardRetryCount = 5

	RetryStandardWaitingTime = 5
	RetryStandardNoWaitTime  = 0
)

// Retry runs fClos up to retryCount times, sleeping sleepTimeout seconds
// between attempts, and returns the last error if every attempt failed.
func Retry(tag string, fClos func() error, retryCount, sleepTimeout int) (err error) {
	for i := 0; i < retryCount; i++ {
		err = fClos()
		if err == nil {
			return nil
		}

		llog.Warnf("Retry '%s', run %d/%d: %v", tag, i+1, retryCount, err)

		if sleepTimeout > 0 {
			time.Sleep(time.Duration(sleepTimeout) * time.Second)
		}
	}

	return err
}

// RemovePathList deletes a list of paths under rootDir, logging instead
// of failing on the ones that resist.
func RemovePathList(list []string, rootDir string) {
	var err error

	for _, file := range list {
		path := filepath.Join(rootDir, file)
		if err = os.RemoveAll(path); err != nil {
			llog.Warnf("delete file: %v", merry.Prepend(err, path))
		}
	}
}
