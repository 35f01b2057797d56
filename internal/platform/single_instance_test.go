package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortFromNameInRange(t *testing.T) {
	for _, name := range []string{"", "StudyTimer", "another app"} {
		port := portFromName(name)
		assert.GreaterOrEqual(t, port, minGuardPort)
		assert.LessOrEqual(t, port, maxGuardPort)
		assert.Equal(t, port, portFromName(name))
	}
}

func TestAcquireSingleInstanceTwice(t *testing.T) {
	appName := "studytimer-guard-test-" + t.Name()
	guard, err := AcquireSingleInstance(appName)
	if err != nil {
		t.Skipf("guard port unavailable: %v", err)
	}
	defer guard.Release()

	assert.Equal(t, GuardAddress(appName), guard.Address())

	_, err = AcquireSingleInstance(appName)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRunning))

	require.NoError(t, guard.Release())
	again, err := AcquireSingleInstance(appName)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestNilGuardRelease(t *testing.T) {
	var guard *InstanceGuard
	assert.NoError(t, guard.Release())
	assert.Equal(t, "", guard.Address())
}

func TestConfigDirNotEmpty(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Skipf("no config dir in this environment: %v", err)
	}
	assert.NotEmpty(t, dir)
}
