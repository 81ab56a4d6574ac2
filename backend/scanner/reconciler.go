package scanner

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"coursestream/backend/models"
)

// CatalogStore is the durable catalog the reconciler diffs against.
type CatalogStore interface {
	CourseByFolderPath(ctx context.Context, folderPath string) (*models.Course, error)
	AllCourses(ctx context.Context) ([]models.Course, error)
	SaveCourse(ctx context.Context, course *models.Course) error

	LessonByFolderPath(ctx context.Context, courseID, folderPath string) (*models.Lesson, error)
	SaveLesson(ctx context.Context, lesson *models.Lesson) error

	FileByPath(ctx context.Context, lessonID, filePath string) (*models.File, error)
	FilesByCourse(ctx context.Context, courseID string) ([]models.File, error)
	SaveFile(ctx context.Context, file *models.File) error
	PurgeMissing(ctx context.Context, threshold int) (int64, error)

	RecordScan(ctx context.Context, record *models.ScanRecord) error
	ScanHistory(ctx context.Context, limit int) ([]models.ScanRecord, error)
}

// ThumbnailSource produces an embeddable thumbnail for a video file, or ""
// when none could be generated.
type ThumbnailSource interface {
	Generate(path string) (string, error)
}

// TreeWalker yields the descriptor stream a scan reconciles against.
type TreeWalker interface {
	Walk(ctx context.Context, root string) (*WalkResult, error)
}

// Reconciler turns walker output into catalog rows. Running it twice against
// an unchanged filesystem mutates nothing except the scan history.
type Reconciler struct {
	store      CatalogStore
	walker     TreeWalker
	thumbs     ThumbnailSource // nil disables thumbnails
	logger     *log.Logger
	purgeAfter int

	mu     sync.Mutex
	active map[string]struct{} // roots with a scan in flight
}

func NewReconciler(store CatalogStore, walker TreeWalker, thumbs ThumbnailSource, purgeAfter int, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	if purgeAfter < 1 {
		purgeAfter = 3
	}
	return &Reconciler{
		store:      store,
		walker:     walker,
		thumbs:     thumbs,
		logger:     logger,
		purgeAfter: purgeAfter,
		active:     make(map[string]struct{}),
	}
}

// Scan walks root and reconciles the result into the catalog. Only one scan
// may run per root at a time; rescan forces thumbnail regeneration for
// videos whose thumbnail is absent or whose size signature changed.
func (r *Reconciler) Scan(ctx context.Context, root string, rescan bool) (*models.ScanRecord, error) {
	if !r.acquire(root) {
		return nil, ErrScanInProgress
	}
	defer r.release(root)

	start := time.Now()

	walk, err := r.walker.Walk(ctx, root)
	if err != nil {
		record := &models.ScanRecord{
			ScanPath: root,
			Duration: time.Since(start).Seconds(),
			Status:   "failed",
		}
		if recErr := r.store.RecordScan(ctx, record); recErr != nil {
			r.logger.Printf("scan: failed to record failed scan of %s: %v", root, recErr)
		}
		return nil, err
	}

	record, err := r.reconcile(ctx, root, walk, rescan)
	if err != nil {
		return nil, err
	}

	record.ScanPath = root
	record.Duration = time.Since(start).Seconds()
	if walk.Partial() {
		record.Status = "partial"
	} else {
		record.Status = "success"
	}

	if err := r.store.RecordScan(ctx, record); err != nil {
		return nil, err
	}
	r.logger.Printf("scan: %s done in %.2fs (%d files, +%d courses, +%d lessons, +%d files, status=%s)",
		root, record.Duration, record.FilesFound, record.CoursesAdded, record.LessonsAdded, record.FilesAdded, record.Status)
	return record, nil
}

func (r *Reconciler) reconcile(ctx context.Context, root string, walk *WalkResult, rescan bool) (*models.ScanRecord, error) {
	record := &models.ScanRecord{FilesFound: walk.FilesFound}

	// Group descriptors by course then lesson, preserving walk order so the
	// order indices stay deterministic.
	type lessonGroup struct {
		name  string
		path  string
		files []Descriptor
	}
	type courseGroup struct {
		name    string
		path    string
		total   int
		lessons []*lessonGroup
		byName  map[string]*lessonGroup
	}

	var courses []*courseGroup
	byPath := map[string]*courseGroup{}
	for _, desc := range walk.Descriptors {
		cg, ok := byPath[desc.CoursePath]
		if !ok {
			cg = &courseGroup{name: desc.Course, path: desc.CoursePath, byName: map[string]*lessonGroup{}}
			byPath[desc.CoursePath] = cg
			courses = append(courses, cg)
		}
		lg, ok := cg.byName[desc.Lesson]
		if !ok {
			lg = &lessonGroup{name: desc.Lesson, path: desc.LessonPath}
			cg.byName[desc.Lesson] = lg
			cg.lessons = append(cg.lessons, lg)
		}
		lg.files = append(lg.files, desc)
		cg.total++
	}

	seenCoursePaths := map[string]struct{}{}

	for _, cg := range courses {
		seenCoursePaths[cg.path] = struct{}{}

		course, err := r.store.CourseByFolderPath(ctx, cg.path)
		switch {
		case errors.Is(err, ErrNotFound):
			course = &models.Course{
				Title:       cg.name,
				Description: "Auto-imported from " + cg.path,
				Instructor:  "Unknown",
				FolderPath:  cg.path,
				TotalFiles:  cg.total,
			}
			if err := r.store.SaveCourse(ctx, course); err != nil {
				return nil, err
			}
			record.CoursesAdded++
		case err != nil:
			return nil, err
		default:
			// Title and description are operator-owned; only the count
			// tracks the filesystem.
			if course.TotalFiles != cg.total {
				course.TotalFiles = cg.total
				if err := r.store.SaveCourse(ctx, course); err != nil {
					return nil, err
				}
			}
		}

		seenFilePaths := map[string]struct{}{}

		for lessonIdx, lg := range cg.lessons {
			lesson, err := r.store.LessonByFolderPath(ctx, course.ID, lg.path)
			switch {
			case errors.Is(err, ErrNotFound):
				lesson = &models.Lesson{
					CourseID:   course.ID,
					Title:      lg.name,
					FolderPath: lg.path,
					OrderIndex: lessonIdx + 1,
				}
				if err := r.store.SaveLesson(ctx, lesson); err != nil {
					return nil, err
				}
				record.LessonsAdded++
			case err != nil:
				return nil, err
			default:
				// Order indices are rewritten every rescan; folders can be
				// renamed or moved between passes.
				if lesson.OrderIndex != lessonIdx+1 || lesson.Title != lg.name {
					lesson.OrderIndex = lessonIdx + 1
					lesson.Title = lg.name
					if err := r.store.SaveLesson(ctx, lesson); err != nil {
						return nil, err
					}
				}
			}

			for fileIdx, desc := range lg.files {
				seenFilePaths[desc.RelPath] = struct{}{}
				added, err := r.reconcileFile(ctx, root, course.ID, lesson.ID, fileIdx+1, desc, rescan)
				if err != nil {
					return nil, err
				}
				if added {
					record.FilesAdded++
				}
			}
		}

		if err := r.markMissing(ctx, course.ID, seenFilePaths, walk.Warnings); err != nil {
			return nil, err
		}
	}

	r.flagOrphanCourses(ctx, seenCoursePaths)

	return record, nil
}

func (r *Reconciler) reconcileFile(ctx context.Context, root, courseID, lessonID string, order int, desc Descriptor, rescan bool) (bool, error) {
	file, err := r.store.FileByPath(ctx, lessonID, desc.RelPath)
	if errors.Is(err, ErrNotFound) {
		file = &models.File{
			LessonID:    lessonID,
			CourseID:    courseID,
			Filename:    desc.Filename,
			Title:       desc.Title,
			FilePath:    desc.RelPath,
			FileType:    desc.Class.String(),
			FileSize:    desc.Size,
			OrderIndex:  order,
			DisplayPath: desc.DisplayPath,
		}
		if desc.Class == ClassVideo {
			file.ThumbnailBase64 = r.thumbnail(root, desc)
		}
		return true, r.store.SaveFile(ctx, file)
	}
	if err != nil {
		return false, err
	}

	sizeChanged := file.FileSize != desc.Size
	changed := sizeChanged ||
		file.FileType != desc.Class.String() ||
		file.OrderIndex != order ||
		file.Missing ||
		file.MissingScans != 0

	// The filename and thumbnail regenerate only when the modification
	// signature (size) differs from the last scan.
	if sizeChanged {
		file.Filename = desc.Filename
		file.Title = desc.Title
		file.DisplayPath = desc.DisplayPath
	}
	if desc.Class == ClassVideo && (sizeChanged || (rescan && file.ThumbnailBase64 == "")) {
		if thumb := r.thumbnail(root, desc); thumb != "" {
			file.ThumbnailBase64 = thumb
			changed = true
		}
	}

	if !changed {
		return false, nil
	}

	file.FileSize = desc.Size
	file.FileType = desc.Class.String()
	file.OrderIndex = order
	file.Missing = false
	file.MissingScans = 0
	return false, r.store.SaveFile(ctx, file)
}

// markMissing soft-deletes catalog files the walk no longer saw. The rows and
// their progress entries survive transient mount issues; PurgeMissing removes
// them once they have been missing long enough. Files under a skipped subtree
// were unverified, not absent, and keep their previous state so partial scans
// never advance them toward purge eligibility.
func (r *Reconciler) markMissing(ctx context.Context, courseID string, seen map[string]struct{}, warnings []string) error {
	files, err := r.store.FilesByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	for i := range files {
		f := &files[i]
		if _, ok := seen[f.FilePath]; ok {
			continue
		}
		if underSkippedSubtree(f.FilePath, warnings) {
			r.logger.Printf("scan: %s unverified (subtree skipped), keeping previous state", f.FilePath)
			continue
		}
		f.Missing = true
		f.MissingScans++
		if err := r.store.SaveFile(ctx, f); err != nil {
			return err
		}
		r.logger.Printf("scan: file missing from disk (%d consecutive scans): %s", f.MissingScans, f.FilePath)
	}
	return nil
}

// underSkippedSubtree reports whether filePath sits inside a subtree the walk
// could not read. Warnings are root-relative slash paths, as are file paths.
func underSkippedSubtree(filePath string, warnings []string) bool {
	for _, warned := range warnings {
		if filePath == warned || strings.HasPrefix(filePath, warned+"/") {
			return true
		}
	}
	return false
}

// PurgeMissing removes files that stayed missing across at least the
// configured number of consecutive rescans. Explicit operation, never run as
// part of a scan.
func (r *Reconciler) PurgeMissing(ctx context.Context) (int64, error) {
	purged, err := r.store.PurgeMissing(ctx, r.purgeAfter)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		r.logger.Printf("scan: purged %d files missing for >= %d scans", purged, r.purgeAfter)
	}
	return purged, nil
}

// History returns recent scan records, newest first.
func (r *Reconciler) History(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	return r.store.ScanHistory(ctx, limit)
}

func (r *Reconciler) thumbnail(root string, desc Descriptor) string {
	if r.thumbs == nil {
		return ""
	}
	thumb, err := r.thumbs.Generate(root + "/" + desc.RelPath)
	if err != nil {
		r.logger.Printf("scan: thumbnail generation failed for %s: %v", desc.RelPath, err)
		return ""
	}
	return thumb
}

func (r *Reconciler) flagOrphanCourses(ctx context.Context, seen map[string]struct{}) {
	courses, err := r.store.AllCourses(ctx)
	if err != nil {
		r.logger.Printf("scan: could not check for orphan courses: %v", err)
		return
	}
	for _, course := range courses {
		if _, ok := seen[course.FolderPath]; !ok {
			r.logger.Printf("scan: course folder no longer on disk (kept in catalog): %s", course.FolderPath)
		}
	}
}

func (r *Reconciler) acquire(root string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[root]; busy {
		return false
	}
	r.active[root] = struct{}{}
	return true
}

func (r *Reconciler) release(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, root)
}
