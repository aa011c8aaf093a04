package appupdate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) DetectLatest(ctx context.Context, repo string) (Release, bool, error) {
	args := m.Called(ctx, repo)
	release, _ := args.Get(0).(Release)
	return release, args.Bool(1), args.Error(2)
}

func (m *MockUpdater) UpdateTo(ctx context.Context, assetURL, assetName, exePath string) error {
	args := m.Called(ctx, assetURL, assetName, exePath)
	return args.Error(0)
}

type MockRelease struct {
	mock.Mock
}

func (m *MockRelease) Version() string {
	return m.Called().String(0)
}

func (m *MockRelease) AssetURL() string {
	return m.Called().String(0)
}

func (m *MockRelease) AssetName() string {
	return m.Called().String(0)
}

func latestFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "latest_version.txt")
}

func TestReadLatestVersion(t *testing.T) {
	path := latestFile(t)
	assert.Equal(t, "", ReadLatestVersion(path))

	require.NoError(t, os.WriteFile(path, []byte("1.2.3\n"), 0o644))
	assert.Equal(t, "1.2.3", ReadLatestVersion(path))
}

func TestCheckForUpdate_UpdateNeeded(t *testing.T) {
	path := latestFile(t)
	mockUpdater := new(MockUpdater)
	mockRemoteRelease := new(MockRelease)

	mockRemoteRelease.On("Version").Return("1.2.0")
	mockUpdater.On("DetectLatest", mock.Anything, Repository).Return(mockRemoteRelease, true, nil)

	resultChannel := CheckForUpdate(context.Background(), "1.0.0", path, zap.NewNop(), mockUpdater)

	remoteVersion, ok := <-resultChannel

	assert.True(t, ok)
	assert.Equal(t, "1.2.0", remoteVersion)
	assert.Equal(t, "1.2.0", ReadLatestVersion(path))

	mockRemoteRelease.AssertExpectations(t)
	mockUpdater.AssertExpectations(t)
}

func TestCheckForUpdate_NoUpdateNeeded(t *testing.T) {
	path := latestFile(t)
	mockUpdater := new(MockUpdater)
	mockRemoteRelease := new(MockRelease)

	mockRemoteRelease.On("Version").Return("1.2.4")
	mockUpdater.On("DetectLatest", mock.Anything, Repository).Return(mockRemoteRelease, true, nil)

	resultChannel := CheckForUpdate(context.Background(), "2.0.0", path, zap.NewNop(), mockUpdater)

	_, ok := <-resultChannel

	assert.False(t, ok)
	assert.Equal(t, "", ReadLatestVersion(path))
	mockUpdater.AssertExpectations(t)
}

func TestCheckForUpdate_RemoteError(t *testing.T) {
	mockUpdater := new(MockUpdater)
	mockUpdater.On("DetectLatest", mock.Anything, Repository).Return(nil, false, errors.New("rate limited"))

	_, ok := <-CheckForUpdate(context.Background(), "1.0.0", latestFile(t), zap.NewNop(), mockUpdater)
	assert.False(t, ok)
}

func TestCheckForUpdate_DevBuild(t *testing.T) {
	mockUpdater := new(MockUpdater)

	_, ok := <-CheckForUpdate(context.Background(), "dev", latestFile(t), zap.NewNop(), mockUpdater)

	assert.False(t, ok)
	mockUpdater.AssertNotCalled(t, "DetectLatest", mock.Anything, mock.Anything)
}

func TestNotice(t *testing.T) {
	path := latestFile(t)
	assert.Equal(t, "", Notice("1.0.0", path))

	require.NoError(t, os.WriteFile(path, []byte("1.1.0"), 0o644))
	assert.Equal(t, "1.1.0", Notice("1.0.0", path))
	assert.Equal(t, "", Notice("1.1.0", path))
	assert.Equal(t, "", Notice("dev", path))
}

func TestUpgrade(t *testing.T) {
	mockUpdater := new(MockUpdater)
	mockRemoteRelease := new(MockRelease)

	mockRemoteRelease.On("Version").Return("1.3.0")
	mockRemoteRelease.On("AssetURL").Return("https://example.invalid/sfctl-ai.tar.gz")
	mockRemoteRelease.On("AssetName").Return("sfctl-ai.tar.gz")
	mockUpdater.On("DetectLatest", mock.Anything, Repository).Return(mockRemoteRelease, true, nil)
	mockUpdater.On("UpdateTo", mock.Anything, "https://example.invalid/sfctl-ai.tar.gz", "sfctl-ai.tar.gz", "/usr/local/bin/sfctl-ai").Return(nil)

	version, err := Upgrade(context.Background(), "1.0.0", "/usr/local/bin/sfctl-ai", mockUpdater, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", version)

	mockUpdater.AssertExpectations(t)
}

func TestUpgrade_MajorVersionBoundary(t *testing.T) {
	mockUpdater := new(MockUpdater)
	mockRemoteRelease := new(MockRelease)

	mockRemoteRelease.On("Version").Return("2.0.0")
	mockUpdater.On("DetectLatest", mock.Anything, Repository).Return(mockRemoteRelease, true, nil)

	_, err := Upgrade(context.Background(), "1.9.0", "/tmp/sfctl-ai", mockUpdater, zap.NewNop())
	assert.ErrorContains(t, err, "new major version")

	// Should NOT update across major version boundary
	mockUpdater.AssertNotCalled(t, "UpdateTo", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpgrade_AlreadyLatest(t *testing.T) {
	mockUpdater := new(MockUpdater)
	mockRemoteRelease := new(MockRelease)

	mockRemoteRelease.On("Version").Return("1.0.0")
	mockUpdater.On("DetectLatest", mock.Anything, Repository).Return(mockRemoteRelease, true, nil)

	version, err := Upgrade(context.Background(), "1.0.0", "/tmp/sfctl-ai", mockUpdater, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "", version)
}

func TestUpgrade_DevBuild(t *testing.T) {
	_, err := Upgrade(context.Background(), "dev", "/tmp/sfctl-ai", new(MockUpdater), zap.NewNop())
	assert.ErrorIs(t, err, ErrDevBuild)
}
