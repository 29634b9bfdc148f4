package service

import (
	"CourseForge/internal/repo"
	"CourseForge/model"
	"errors"
	"time"

	"golang.org/x/net/context"
)

// CourseService is plain CRUD over course records; courses only exist as
// the referent of file records' owner scope.
type CourseService struct {
	courses repo.CourseStore
	now     func() time.Time
}

// NewCourseService builds the course CRUD service.
func NewCourseService(courses repo.CourseStore) *CourseService {
	return &CourseService{courses: courses, now: time.Now}
}

// Create inserts a course.
func (s *CourseService) Create(ctx context.Context, name, description, visibility, createdBy string, collaborators []string) (*model.Course, error) {
	if name == "" {
		return nil, missingParam("name")
	}
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	course := &model.Course{
		Name:          name,
		Description:   description,
		Visibility:    visibility,
		Collaborators: collaborators,
		CreatedBy:     createdBy,
		CreatedAt:     s.now(),
	}
	if err := s.courses.Insert(ctx, course); err != nil {
		return nil, failedToSave(err, false)
	}
	return course, nil
}

// Get loads one course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	if id == "" {
		return nil, missingParam("course_id")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrRecordNotFound) {
			return nil, notFound("course "+id, false)
		}
		return nil, storeErr("find course", err, false)
	}
	return course, nil
}

// List returns every course.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.FindAll(ctx)
	if err != nil {
		return nil, storeErr("list courses", err, false)
	}
	return courses, nil
}

// Delete removes a course record. Files under the scope are untouched;
// they remain reachable through the reconciliation listing.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return missingParam("course_id")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrRecordNotFound) {
			return notFound("course "+id, false)
		}
		return storeErr("delete course", err, false)
	}
	return nil
}
