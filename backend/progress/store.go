package progress

import (
	"context"
	"errors"
	"log"
	"time"

	"coursestream/backend/models"
)

// ErrNotFound is returned by tier lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Repository is the durable primary tier. A write that fails here fails the
// whole call; the repository is the source of truth.
type Repository interface {
	Upsert(ctx context.Context, entry *models.ProgressEntry) error
	Get(ctx context.Context, userID, fileID string) (*models.ProgressEntry, error)
}

// Cache is the fast tier. Every method is best-effort; errors are logged by
// the store and never surfaced.
type Cache interface {
	GetEntry(ctx context.Context, userID, fileID string) (*models.ProgressEntry, error) // nil, nil on miss
	SetEntry(ctx context.Context, entry *models.ProgressEntry) error
	MarkDirty(ctx context.Context, userID, fileID string) error
	ClearDirty(ctx context.Context, userID, fileID string) error
	DirtyEntries(ctx context.Context) ([]*models.ProgressEntry, error)
}

// Backup is the offsite tier, consulted last on reads and written
// fire-and-forget.
type Backup interface {
	Save(ctx context.Context, entry *models.ProgressEntry) error
	Load(ctx context.Context, userID, fileID string) (*models.ProgressEntry, error)
}

// FileResolver maps a file id to its catalog row, so writes can carry the
// owning lesson and course.
type FileResolver interface {
	FileByID(ctx context.Context, fileID string) (*models.File, error)
}

// Store coordinates the three persistence tiers for playback checkpoints.
//
// Writes go through the durable repository first, then fan out to cache and
// backup in the background. Reads prefer the cache, fall back to the
// repository (repopulating the cache), then to the backup; "no progress yet"
// is a zero-value entry, not an error.
type Store struct {
	repo       Repository
	cache      Cache // nil when Redis is not configured
	backup     Backup // nil when Firestore is not configured
	files      FileResolver
	aggregator *Aggregator
	logger     *log.Logger

	// asyncTimeout bounds the background cache/backup writes.
	asyncTimeout time.Duration
}

func NewStore(repo Repository, cache Cache, backup Backup, files FileResolver, aggregator *Aggregator, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		repo:         repo,
		cache:        cache,
		backup:       backup,
		files:        files,
		aggregator:   aggregator,
		logger:       logger,
		asyncTimeout: 10 * time.Second,
	}
}

// Write records a playback checkpoint. The entry fully overwrites the
// previous state for (user, file): last write wins, positions are never
// merged. Returns the recomputed aggregates alongside the entry.
func (s *Store) Write(ctx context.Context, userID, fileID string, seconds int, percentage float64, completed bool) (*models.ProgressEntry, *models.LessonProgress, *models.CourseProgress, error) {
	file, err := s.files.FileByID(ctx, fileID)
	if err != nil {
		return nil, nil, nil, err
	}

	entry := &models.ProgressEntry{
		UserID:             userID,
		FileID:             fileID,
		LessonID:           file.LessonID,
		CourseID:           file.CourseID,
		ProgressSeconds:    seconds,
		ProgressPercentage: percentage,
		Completed:          completed,
		LastWatched:        time.Now().UTC(),
	}

	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, nil, nil, err
	}

	// Cache and backup are fire-and-forget: the caller never blocks on them
	// and never sees their failures.
	s.fanOut(entry)

	var lessonAgg *models.LessonProgress
	var courseAgg *models.CourseProgress
	if s.aggregator != nil {
		lessonAgg, courseAgg, err = s.aggregator.OnProgressChange(ctx, userID, file.LessonID, file.CourseID)
		if err != nil {
			// The checkpoint itself is durable; a failed recompute heals on
			// the next one.
			s.logger.Printf("progress: aggregate recompute failed for user %s course %s: %v", userID, file.CourseID, err)
		}
	}

	return entry, lessonAgg, courseAgg, nil
}

func (s *Store) fanOut(entry *models.ProgressEntry) {
	if s.cache != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.asyncTimeout)
			defer cancel()
			if err := s.cache.SetEntry(ctx, entry); err != nil {
				s.logger.Printf("progress: cache write failed for %s/%s: %v", entry.UserID, entry.FileID, err)
				return
			}
			// The dirty marker lets the sync worker replay this entry into
			// the backup tier if the inline save below loses the race with
			// an outage.
			if err := s.cache.MarkDirty(ctx, entry.UserID, entry.FileID); err != nil {
				s.logger.Printf("progress: dirty marker failed for %s/%s: %v", entry.UserID, entry.FileID, err)
			}
		}()
	}
	if s.backup != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.asyncTimeout)
			defer cancel()
			if err := s.backup.Save(ctx, entry); err != nil {
				s.logger.Printf("progress: backup write failed for %s/%s: %v", entry.UserID, entry.FileID, err)
				return
			}
			if s.cache != nil {
				if err := s.cache.ClearDirty(ctx, entry.UserID, entry.FileID); err != nil {
					s.logger.Printf("progress: clearing dirty marker failed for %s/%s: %v", entry.UserID, entry.FileID, err)
				}
			}
		}()
	}
}

// Read returns the latest known progress for (user, file), preferring the
// fastest tier that has it. All tiers missing the key is not an error.
func (s *Store) Read(ctx context.Context, userID, fileID string) (*models.ProgressEntry, error) {
	if s.cache != nil {
		entry, err := s.cache.GetEntry(ctx, userID, fileID)
		if err != nil {
			s.logger.Printf("progress: cache read failed for %s/%s: %v", userID, fileID, err)
		} else if entry != nil {
			return entry, nil
		}
	}

	entry, err := s.repo.Get(ctx, userID, fileID)
	if err == nil {
		if s.cache != nil {
			cached := *entry
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), s.asyncTimeout)
				defer cancel()
				if err := s.cache.SetEntry(ctx, &cached); err != nil {
					s.logger.Printf("progress: cache repopulate failed for %s/%s: %v", userID, fileID, err)
				}
			}()
		}
		return entry, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Printf("progress: durable read failed for %s/%s, trying backup: %v", userID, fileID, err)
	}

	if s.backup != nil {
		entry, backupErr := s.backup.Load(ctx, userID, fileID)
		if backupErr == nil {
			return entry, nil
		}
		if !errors.Is(backupErr, ErrNotFound) {
			s.logger.Printf("progress: backup read failed for %s/%s: %v", userID, fileID, backupErr)
		}
	}

	// No tier has it: a fresh default entry, never an error.
	return &models.ProgressEntry{UserID: userID, FileID: fileID}, nil
}
