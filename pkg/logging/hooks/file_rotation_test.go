// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package hooks

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewFileRotationLogHook(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "cidragg.log")

	hook := NewFileRotationLogHook(fileName)
	require.Equal(t, fileName, hook.logger.Filename)
	require.Equal(t, 100, hook.logger.MaxSize)
	require.Zero(t, hook.logger.MaxAge)
	require.False(t, hook.logger.LocalTime)
	require.False(t, hook.logger.Compress)

	hook = NewFileRotationLogHook(fileName,
		WithMaxSize(10),
		WithMaxAge(7),
		WithMaxBackups(2),
		EnableLocalTime(),
		EnableCompression(),
		WithTag("run-2"),
	)
	require.Equal(t, 10, hook.logger.MaxSize)
	require.Equal(t, 7, hook.logger.MaxAge)
	require.Equal(t, 2, hook.logger.MaxBackups)
	require.True(t, hook.logger.LocalTime)
	require.True(t, hook.logger.Compress)
	require.Equal(t, "run-2", hook.tag)
	require.Equal(t, logrus.AllLevels, hook.Levels())
}

func TestFileRotationLogHookKeepsEntry(t *testing.T) {
	hook := NewFileRotationLogHook(filepath.Join(t.TempDir(), "cidragg.log"), WithTag("run-3"))
	defer hook.Close()

	entry := logrus.NewEntry(logrus.New()).WithField("subsys", "test")
	entry.Message = "unchanged"
	entry.Level = logrus.InfoLevel
	require.NoError(t, hook.Fire(entry))
	require.NotContains(t, entry.Data, "tag")
}
