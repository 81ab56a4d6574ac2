// Package backup implements the offsite progress tier on Firestore.
package backup

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursestream/backend/models"
	"coursestream/backend/progress"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const progressCollection = "user_progress"

// FirestoreBackup stores one document per (user, file) pair, keyed
// "<user_id>_<file_id>". It is consulted last on reads and written
// best-effort, so its outages never affect playback.
type FirestoreBackup struct {
	client *firestore.Client
	logger *log.Logger
}

type progressDoc struct {
	UserID             string    `firestore:"user_id"`
	FileID             string    `firestore:"file_id"`
	LessonID           string    `firestore:"lesson_id"`
	CourseID           string    `firestore:"course_id"`
	ProgressSeconds    int       `firestore:"progress_seconds"`
	ProgressPercentage float64   `firestore:"progress_percentage"`
	Completed          bool      `firestore:"completed"`
	LastWatched        time.Time `firestore:"last_watched"`
}

// New connects to the configured Firestore project. The credentials file is
// optional; without one the default application credentials apply.
func New(ctx context.Context, projectID, credentialsFile string, logger *log.Logger) (*FirestoreBackup, error) {
	if logger == nil {
		logger = log.Default()
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client for %s: %w", projectID, err)
	}

	logger.Printf("backup: firestore connected (project %s)", projectID)
	return &FirestoreBackup{client: client, logger: logger}, nil
}

func docID(userID, fileID string) string {
	return userID + "_" + fileID
}

func (b *FirestoreBackup) Save(ctx context.Context, entry *models.ProgressEntry) error {
	doc := progressDoc{
		UserID:             entry.UserID,
		FileID:             entry.FileID,
		LessonID:           entry.LessonID,
		CourseID:           entry.CourseID,
		ProgressSeconds:    entry.ProgressSeconds,
		ProgressPercentage: entry.ProgressPercentage,
		Completed:          entry.Completed,
		LastWatched:        entry.LastWatched,
	}
	_, err := b.client.Collection(progressCollection).
		Doc(docID(entry.UserID, entry.FileID)).
		Set(ctx, doc)
	return err
}

func (b *FirestoreBackup) Load(ctx context.Context, userID, fileID string) (*models.ProgressEntry, error) {
	snap, err := b.client.Collection(progressCollection).
		Doc(docID(userID, fileID)).
		Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, progress.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc progressDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	return &models.ProgressEntry{
		UserID:             doc.UserID,
		FileID:             doc.FileID,
		LessonID:           doc.LessonID,
		CourseID:           doc.CourseID,
		ProgressSeconds:    doc.ProgressSeconds,
		ProgressPercentage: doc.ProgressPercentage,
		Completed:          doc.Completed,
		LastWatched:        doc.LastWatched,
	}, nil
}

// Close releases the underlying gRPC connection.
func (b *FirestoreBackup) Close() error {
	return b.client.Close()
}
