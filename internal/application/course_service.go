package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	repo "github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
	"github.com/sandeepkrmehta/lms-backend/pkg/helpers"
)

const (
	courseListCacheKey = "courses:list"
	courseListCacheTTL = 5 * time.Minute
)

// CourseService manages the catalog: CRUD, lecture media, the redis-cached
// listing and the Elasticsearch index.
type CourseService struct {
	Repo      repo.CourseRepository
	GCS       *storage.Client
	GCSBucket string
	Redis     *redis.Client
	Logger    *logrus.Logger
	ES        *elasticsearch.Client
	ESIndex   string
}

func NewCourseService(r repo.CourseRepository, gcs *storage.Client, gcsBucket string, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *CourseService {
	return &CourseService{
		Repo:      r,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		Redis:     rdb,
		Logger:    logger,
		ES:        es,
		ESIndex:   esIndex,
	}
}

type CourseInput struct {
	Title       string
	Description string
	Category    string
	CreatedBy   string
}

func (s *CourseService) Create(ctx context.Context, in CourseInput) (*entity.Course, error) {
	c := &entity.Course{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		CreatedBy:   in.CreatedBy,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	_ = s.indexCourse(ctx, c)
	return c, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*entity.Course, error) {
	c, err := s.Repo.GetWithLectures(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

// List serves the public catalog, cached in redis for a short window.
func (s *CourseService) List(ctx context.Context) ([]entity.Course, error) {
	if s.Redis != nil {
		var cached []entity.Course
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, courseListCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	out, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, courseListCacheKey, out, courseListCacheTTL); err != nil {
			s.Logger.WithError(err).Warn("course list cache write failed")
		}
	}
	return out, nil
}

func (s *CourseService) Update(ctx context.Context, id string, in CourseInput) (*entity.Course, error) {
	c, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if in.Title != "" {
		c.Title = in.Title
	}
	if in.Description != "" {
		c.Description = in.Description
	}
	if in.Category != "" {
		c.Category = in.Category
	}
	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	_ = s.indexCourse(ctx, c)
	return c, nil
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	s.invalidateListCache(ctx)
	s.deleteFromIndex(ctx, id)
	return nil
}

// UploadThumbnail stores the course image in GCS.
func (s *CourseService) UploadThumbnail(ctx context.Context, courseID string, r io.Reader, filename, contentType string) (*entity.Course, error) {
	c, err := s.Repo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("courses", courseID, "thumbnail", uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, err
	}
	if c.ThumbnailPublicID != "" {
		if derr := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, c.ThumbnailPublicID); derr != nil {
			s.Logger.WithError(derr).WithField("object", c.ThumbnailPublicID).Warn("old thumbnail delete failed")
		}
	}
	c.ThumbnailPublicID = objectPath
	c.ThumbnailURL = url
	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return c, nil
}

type LectureInput struct {
	Title       string
	Description string
}

// AddLecture uploads the media and appends the lecture to the course.
func (s *CourseService) AddLecture(ctx context.Context, courseID string, in LectureInput, media io.Reader, filename, contentType string) (*entity.Lecture, error) {
	if _, err := s.Repo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	l := &entity.Lecture{
		CourseID:    courseID,
		Title:       in.Title,
		Description: in.Description,
	}
	if media != nil {
		if s.GCS == nil || s.GCSBucket == "" {
			return nil, errors.New("gcs not configured")
		}
		ext := strings.ToLower(filepath.Ext(filename))
		objectPath := filepath.ToSlash(filepath.Join("courses", courseID, "lectures", uuid.NewString()+ext))
		url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, media)
		if err != nil {
			return nil, err
		}
		l.MediaPublicID = objectPath
		l.MediaURL = url
	}
	if err := s.Repo.AddLecture(ctx, l); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *CourseService) RemoveLecture(ctx context.Context, courseID, lectureID string) error {
	l, err := s.Repo.RemoveLecture(ctx, courseID, lectureID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrLectureNotFound
		}
		return err
	}
	if l.MediaPublicID != "" && s.GCS != nil {
		if derr := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, l.MediaPublicID); derr != nil {
			s.Logger.WithError(derr).WithField("object", l.MediaPublicID).Warn("lecture media delete failed")
		}
	}
	return nil
}

// Search performs a multi_match query over title, description and category.
func (s *CourseService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "description", "category"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *CourseService) invalidateListCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, courseListCacheKey); err != nil {
		s.Logger.WithError(err).Warn("course list cache invalidation failed")
	}
}

func (s *CourseService) indexCourse(ctx context.Context, c *entity.Course) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":            c.ID,
		"title":         c.Title,
		"description":   c.Description,
		"category":      c.Category,
		"thumbnail_url": c.ThumbnailURL,
		"created_at":    c.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    c.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: c.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	cc, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cc, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("course_id", c.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("course_id", c.ID).Warn("es index response error")
	}
	return nil
}

func (s *CourseService) deleteFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}
	cc, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cc, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("course_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}
