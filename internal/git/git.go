package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// Syncer materializes bucket repositories with go-git, so no git binary is
// required on the host.
type Syncer struct{}

// Sync clones the repository at url into localPath. When the directory
// already exists it is fast-forwarded instead; an already-up-to-date
// repository is not an error.
func (Syncer) Sync(url, localPath string) error {
	if _, err := os.Stat(localPath); err == nil {
		return fastForward(localPath)
	}

	if _, err := git.PlainClone(localPath, false, &git.CloneOptions{
		URL: url,
	}); err != nil {
		// A failed clone leaves a partial checkout behind that would make
		// the next Sync take the fast-forward path.
		os.RemoveAll(localPath)
		return fmt.Errorf("error cloning '%s': %w", url, err)
	}
	return nil
}

// Update fast-forwards an already-cloned repository.
func (Syncer) Update(localPath string) error {
	return fastForward(localPath)
}

func fastForward(localPath string) error {
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("error opening bucket: %w", err)
	}

	workTree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("error reading worktree: %w", err)
	}

	if err := workTree.Pull(&git.PullOptions{}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return fmt.Errorf("error pulling updates: %w", err)
	}
	return nil
}

// FindManifest returns the path of the manifest for appName inside a
// bucket directory. Manifests live at the bucket root as <app>.json.
func (Syncer) FindManifest(appName, bucketDir string) (string, error) {
	manifestPath := filepath.Join(bucketDir, appName+".json")
	if _, err := os.Stat(manifestPath); err != nil {
		return "", fmt.Errorf("no manifest for '%s' in '%s'", appName, bucketDir)
	}
	return manifestPath, nil
}
