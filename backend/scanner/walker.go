package scanner

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Descriptor is one classified file found under the scan root. Paths are
// relative to the root and always use forward slashes.
type Descriptor struct {
	Course      string
	CoursePath  string
	Lesson      string
	LessonPath  string
	Filename    string
	RelPath     string
	Title       string
	DisplayPath []string
	Class       FileClass
	Size        int64
	Depth       int
}

// WalkResult is the ordered descriptor stream plus any subtree warnings.
type WalkResult struct {
	Descriptors []Descriptor
	FilesFound  int
	Warnings    []string
}

// Partial reports whether any subtree was skipped during the walk.
func (r *WalkResult) Partial() bool {
	return len(r.Warnings) > 0
}

// Walker turns a directory tree into an ordered descriptor sequence.
// Depth 1 directories are courses, depth 2 directories are lessons. Files
// nested deeper collapse into the lesson's flat list, keeping the sub-path
// below the lesson in the title. Files sitting directly in a course folder
// land in the synthetic "Main Content" lesson.
type Walker struct {
	workers int
	logger  *log.Logger
}

const mainContentLesson = "Main Content"

func NewWalker(workers int, logger *log.Logger) *Walker {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Walker{workers: workers, logger: logger}
}

// Walk scans root and returns every classified file in deterministic order:
// courses, lessons and files each natural-sorted. An unreadable subtree is
// skipped and recorded as a warning; an unreadable root is fatal.
func (w *Walker) Walk(ctx context.Context, root string) (*WalkResult, error) {
	rootEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	var courseDirs []string
	for _, entry := range rootEntries {
		if entry.IsDir() {
			courseDirs = append(courseDirs, entry.Name())
		}
	}
	sort.SliceStable(courseDirs, func(i, j int) bool {
		return naturalLess(courseDirs[i], courseDirs[j])
	})

	result := &WalkResult{}

	type rawFile struct {
		relPath string // slash-separated, relative to root
		size    int64
	}

	for _, courseName := range courseDirs {
		courseAbs := filepath.Join(root, courseName)

		var files []rawFile
		walkErr := filepath.WalkDir(courseAbs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				rel := relSlash(root, path)
				w.logger.Printf("scan: skipping unreadable subtree %s: %v", rel, err)
				result.Warnings = append(result.Warnings, rel)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if Classify(d.Name()) == ClassIgnored {
				return nil
			}
			files = append(files, rawFile{relPath: relSlash(root, path)})
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}

		// Stat in parallel, bounded; indices keep the results deterministic
		// regardless of completion order.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(w.workers)
		for i := range files {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				info, err := os.Stat(filepath.Join(root, filepath.FromSlash(files[i].relPath)))
				if err != nil {
					// Mirror the catalog's tolerance: an unstattable file
					// still gets a record, just with zero size.
					w.logger.Printf("scan: stat failed for %s: %v", files[i].relPath, err)
					return nil
				}
				files[i].size = info.Size()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		// Group into lessons, then emit in natural order.
		lessons := map[string][]Descriptor{}
		lessonPaths := map[string]string{}
		for _, f := range files {
			desc := buildDescriptor(courseName, f.relPath, f.size)
			lessons[desc.Lesson] = append(lessons[desc.Lesson], desc)
			lessonPaths[desc.Lesson] = desc.LessonPath
		}
		if len(lessons) == 0 {
			continue // no classified files, no course
		}

		lessonNames := make([]string, 0, len(lessons))
		for name := range lessons {
			lessonNames = append(lessonNames, name)
		}
		sort.SliceStable(lessonNames, func(i, j int) bool {
			return naturalLess(lessonNames[i], lessonNames[j])
		})

		for _, lessonName := range lessonNames {
			descs := lessons[lessonName]
			sort.SliceStable(descs, func(i, j int) bool {
				return naturalLess(descs[i].Title, descs[j].Title)
			})
			result.Descriptors = append(result.Descriptors, descs...)
			result.FilesFound += len(descs)
		}
	}

	return result, nil
}

// buildDescriptor derives course, lesson and display fields from a file's
// relative path components.
func buildDescriptor(courseName, relPath string, size int64) Descriptor {
	parts := strings.Split(relPath, "/")
	filename := parts[len(parts)-1]

	desc := Descriptor{
		Course:     courseName,
		CoursePath: parts[0],
		Filename:   filename,
		RelPath:    relPath,
		Class:      Classify(filename),
		Size:       size,
		Depth:      len(parts),
	}

	switch {
	case len(parts) == 2:
		// File directly in the course folder.
		desc.Lesson = mainContentLesson
		desc.LessonPath = desc.CoursePath
		desc.Title = filename
	case len(parts) == 3:
		desc.Lesson = parts[1]
		desc.LessonPath = parts[0] + "/" + parts[1]
		desc.Title = filename
	default:
		// Deeper nesting collapses into the lesson. The components below the
		// lesson folder stay verbatim in the title (the UI splits on "/")
		// and in DisplayPath for clients that want them pre-split.
		desc.Lesson = parts[1]
		desc.LessonPath = parts[0] + "/" + parts[1]
		desc.Title = strings.Join(parts[2:], "/")
		desc.DisplayPath = parts[2 : len(parts)-1]
	}

	return desc
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
