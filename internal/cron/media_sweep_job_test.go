package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/gamesage/gamesage-backend/pkg/logger"
	"github.com/gamesage/gamesage-backend/pkg/storage/cloudinary"
)

func TestMediaSweepDeletesOrphanFolders(t *testing.T) {
	t.Parallel()

	storage := &fakeSweepStorage{
		subFolders: map[string][]string{
			"games": {"games/hades-ii", "games/celeste"},
			"users": {"users/ada"},
		},
	}
	repo := &fakeMediaFolderRepo{folders: []string{"games/hades-ii"}}
	job := newMediaSweepJob(t, storage, repo, false)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expected := map[string]bool{"games/celeste": true, "users/ada": true}
	if len(storage.deleted) != len(expected) {
		t.Fatalf("expected %d deletions, got %v", len(expected), storage.deleted)
	}
	for _, folder := range storage.deleted {
		if !expected[folder] {
			t.Fatalf("unexpected folder deleted: %s", folder)
		}
	}
}

func TestMediaSweepDryRunDeletesNothing(t *testing.T) {
	t.Parallel()

	storage := &fakeSweepStorage{
		subFolders: map[string][]string{
			"games": {"games/orphaned"},
		},
	}
	repo := &fakeMediaFolderRepo{}
	job := newMediaSweepJob(t, storage, repo, true)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(storage.deleted) != 0 {
		t.Fatalf("expected no deletions in dry run, got %v", storage.deleted)
	}
}

func TestMediaSweepSkipsRepopulatedFolders(t *testing.T) {
	t.Parallel()

	storage := &fakeSweepStorage{
		subFolders: map[string][]string{
			"games": {"games/orphaned"},
		},
		deleteErr: cloudinary.ErrFolderNotEmpty,
	}
	repo := &fakeMediaFolderRepo{}
	job := newMediaSweepJob(t, storage, repo, false)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected folder-not-empty to be benign, got %v", err)
	}
}

func TestMediaSweepMissingRootIsBenign(t *testing.T) {
	t.Parallel()

	storage := &fakeSweepStorage{listErr: cloudinary.ErrNotFound}
	repo := &fakeMediaFolderRepo{}
	job := newMediaSweepJob(t, storage, repo, false)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected missing roots to be skipped, got %v", err)
	}
}

func TestMediaSweepPropagatesRepoErrors(t *testing.T) {
	t.Parallel()

	storage := &fakeSweepStorage{}
	repo := &fakeMediaFolderRepo{err: errors.New("query failure")}
	job := newMediaSweepJob(t, storage, repo, false)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newMediaSweepJob(t *testing.T, storage *fakeSweepStorage, repo *fakeMediaFolderRepo, dryRun bool) Job {
	t.Helper()
	job, err := NewMediaSweepJob(MediaSweepJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Storage:   storage,
		MediaRepo: repo,
		DryRun:    dryRun,
	})
	if err != nil {
		t.Fatalf("NewMediaSweepJob: %v", err)
	}
	return job
}

type fakeSweepStorage struct {
	subFolders map[string][]string
	listErr    error
	deleteErr  error
	deleted    []string
}

func (f *fakeSweepStorage) ListSubFolders(ctx context.Context, root string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.subFolders[root], nil
}

func (f *fakeSweepStorage) DeleteFolder(ctx context.Context, folder string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, folder)
	return nil
}

type fakeMediaFolderRepo struct {
	folders []string
	err     error
}

func (f *fakeMediaFolderRepo) DistinctFolders(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.folders, nil
}
