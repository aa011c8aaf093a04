// Package appupdate checks GitHub releases for newer sfctl-ai builds.
package appupdate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"go.uber.org/zap"
)

// Repository is the GitHub slug releases are published under.
const Repository = "atinylittleshell/sfctl-ai"

// ErrDevBuild is returned when the running binary has no release version.
var ErrDevBuild = errors.New("running a dev build, self-update is not available")

// Release is a published build.
type Release interface {
	Version() string
	AssetURL() string
	AssetName() string
}

// Updater finds and installs releases.
type Updater interface {
	DetectLatest(ctx context.Context, repo string) (Release, bool, error)
	UpdateTo(ctx context.Context, assetURL, assetName, exePath string) error
}

// DefaultUpdater talks to GitHub through go-selfupdate.
type DefaultUpdater struct{}

func (DefaultUpdater) DetectLatest(ctx context.Context, repo string) (Release, bool, error) {
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil || !found {
		return nil, found, err
	}
	return githubRelease{release: latest}, true, nil
}

func (DefaultUpdater) UpdateTo(ctx context.Context, assetURL, assetName, exePath string) error {
	return selfupdate.UpdateTo(ctx, assetURL, assetName, exePath)
}

type githubRelease struct {
	release *selfupdate.Release
}

func (r githubRelease) Version() string   { return r.release.Version() }
func (r githubRelease) AssetURL() string  { return r.release.AssetURL }
func (r githubRelease) AssetName() string { return r.release.AssetName }

// CheckForUpdate looks for a newer release in the background. When one is
// found its version is written to latestFile and sent on the returned
// channel, which is closed when the check finishes.
func CheckForUpdate(
	ctx context.Context,
	currentVersion string,
	latestFile string,
	logger *zap.Logger,
	updater Updater,
) <-chan string {
	resultChannel := make(chan string, 1)

	currentSemVer, err := semver.NewVersion(currentVersion)
	if err != nil {
		logger.Debug("running a dev build, skipping self-update check")
		close(resultChannel)
		return resultChannel
	}

	go fetchAndSaveLatestVersion(ctx, resultChannel, latestFile, logger, updater, currentSemVer)

	return resultChannel
}

func fetchAndSaveLatestVersion(
	ctx context.Context,
	resultChannel chan<- string,
	latestFile string,
	logger *zap.Logger,
	updater Updater,
	currentSemVer *semver.Version,
) {
	defer close(resultChannel)

	latest, found, err := updater.DetectLatest(ctx, Repository)
	if err != nil {
		logger.Warn("error occurred while getting latest version from remote", zap.Error(err))
		return
	}
	if !found {
		logger.Warn("latest version could not be found")
		return
	}

	latestSemVer, err := semver.NewVersion(latest.Version())
	if err != nil {
		logger.Error("failed to parse latest version", zap.Error(err))
		return
	}

	if latestSemVer.LessThanEqual(currentSemVer) {
		logger.Debug("already running the latest version")
		return
	}

	// Save the latest version for the next startup notice
	if err := os.WriteFile(latestFile, []byte(latest.Version()), 0o644); err != nil {
		logger.Error("failed to save latest version", zap.Error(err))
		return
	}

	logger.Info("new version available", zap.String("current", currentSemVer.String()), zap.String("latest", latest.Version()))
	resultChannel <- latest.Version()
}

// ReadLatestVersion returns the version recorded by a previous check.
func ReadLatestVersion(latestFile string) string {
	data, err := os.ReadFile(latestFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Notice returns the recorded latest version when it is newer than
// currentVersion, or "" otherwise.
func Notice(currentVersion, latestFile string) string {
	currentSemVer, err := semver.NewVersion(currentVersion)
	if err != nil {
		return ""
	}
	latest := ReadLatestVersion(latestFile)
	latestSemVer, err := semver.NewVersion(latest)
	if err != nil || !latestSemVer.GreaterThan(currentSemVer) {
		return ""
	}
	return latest
}

// Upgrade replaces exePath with the latest release if it is newer and within
// the same major version. It returns the installed version, or "" when
// already up to date.
func Upgrade(ctx context.Context, currentVersion, exePath string, updater Updater, logger *zap.Logger) (string, error) {
	currentSemVer, err := semver.NewVersion(currentVersion)
	if err != nil {
		return "", ErrDevBuild
	}

	latest, found, err := updater.DetectLatest(ctx, Repository)
	if err != nil {
		return "", fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return "", nil
	}

	latestSemVer, err := semver.NewVersion(latest.Version())
	if err != nil {
		return "", fmt.Errorf("failed to parse latest version: %w", err)
	}
	if latestSemVer.LessThanEqual(currentSemVer) {
		return "", nil
	}
	if latestSemVer.Major() != currentSemVer.Major() {
		return "", fmt.Errorf("%s is a new major version, install it manually", latest.Version())
	}

	logger.Info("updating", zap.String("from", currentSemVer.String()), zap.String("to", latest.Version()))
	if err := updater.UpdateTo(ctx, latest.AssetURL(), latest.AssetName(), exePath); err != nil {
		return "", fmt.Errorf("failed to update: %w", err)
	}
	return latest.Version(), nil
}
