package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamesage/gamesage-backend/pkg/logger"
	"github.com/gamesage/gamesage-backend/pkg/storage/cloudinary"
)

// Asset folders are grouped under these roots by the media service.
var defaultSweepRoots = []string{"games", "users"}

// MediaSweepJobParams configure the orphaned folder sweep.
type MediaSweepJobParams struct {
	Logger    *logger.Logger
	Storage   sweepStorage
	MediaRepo mediaFolderRepo
	Roots     []string
	DryRun    bool
}

type sweepStorage interface {
	ListSubFolders(ctx context.Context, root string) ([]string, error)
	DeleteFolder(ctx context.Context, folder string) error
}

type mediaFolderRepo interface {
	DistinctFolders(ctx context.Context) ([]string, error)
}

// NewMediaSweepJob builds the job that removes upstream folders no local
// media row references anymore.
func NewMediaSweepJob(params MediaSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("storage client required")
	}
	if params.MediaRepo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	roots := params.Roots
	if len(roots) == 0 {
		roots = defaultSweepRoots
	}
	return &mediaSweepJob{
		logg:    params.Logger,
		storage: params.Storage,
		repo:    params.MediaRepo,
		roots:   roots,
		dryRun:  params.DryRun,
	}, nil
}

type mediaSweepJob struct {
	logg    *logger.Logger
	storage sweepStorage
	repo    mediaFolderRepo
	roots   []string
	dryRun  bool
}

func (j *mediaSweepJob) Name() string { return "media-sweep" }

func (j *mediaSweepJob) Run(ctx context.Context) error {
	referenced, err := j.referencedFolders(ctx)
	if err != nil {
		return fmt.Errorf("list referenced folders: %w", err)
	}

	var scanned, orphans, deleted, skipped int
	for _, root := range j.roots {
		remote, err := j.storage.ListSubFolders(ctx, root)
		if err != nil {
			if errors.Is(err, cloudinary.ErrNotFound) {
				continue
			}
			return fmt.Errorf("list folders under %s: %w", root, err)
		}
		scanned += len(remote)
		for _, folder := range remote {
			if referenced[folder] {
				continue
			}
			orphans++
			if j.dryRun {
				j.logg.Info(j.logg.WithField(ctx, "folder", folder), "media sweep would delete folder")
				continue
			}
			if err := j.storage.DeleteFolder(ctx, folder); err != nil {
				// Another upload may have landed between the listing and
				// the delete; leave the folder for the next sweep.
				if errors.Is(err, cloudinary.ErrFolderNotEmpty) || errors.Is(err, cloudinary.ErrNotFound) {
					skipped++
					continue
				}
				return fmt.Errorf("delete folder %s: %w", folder, err)
			}
			deleted++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"folders_scanned": scanned,
		"orphans":         orphans,
		"deleted":         deleted,
		"skipped":         skipped,
		"dry_run":         j.dryRun,
	})
	j.logg.Info(logCtx, "media sweep complete")
	return nil
}

func (j *mediaSweepJob) referencedFolders(ctx context.Context) (map[string]bool, error) {
	folders, err := j.repo.DistinctFolders(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]bool, len(folders))
	for _, folder := range folders {
		referenced[folder] = true
	}
	return referenced, nil
}
