// Package memory provides an in-memory objstore.Store for tests and
// examples. It mimics the subset of S3 behavior the access layer depends
// on: inclusive byte ranges that read empty past the end of an object,
// per-object tag sets, bucket policies, multipart sessions, and
// deterministic fake presigned URLs.
package memory

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/objstore"
)

type object struct {
	data     []byte
	etag     string
	modified time.Time
	tags     map[string]string
}

type bucket struct {
	created time.Time
	policy  string
	objects map[string]*object
	uploads map[string]bool
}

// Store is an in-memory objstore.Store. The zero value is not usable;
// call New.
type Store struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	uploadSeq int
	signSeq   int

	// presignCalls counts signer invocations so tests can prove that the
	// URL cache deduplicates calls within a quantization window.
	presignCalls int

	// policyWrites counts SetBucketPolicy calls.
	policyWrites int

	// failSetTags makes the next n SetObjectTags calls fail with a
	// transient error. Used to exercise the bounded retry helper.
	failSetTags int
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{buckets: make(map[string]*bucket)}
}

// --- test hooks ---

// FailSetObjectTags makes the next n SetObjectTags calls return a
// transient error before succeeding again.
func (s *Store) FailSetObjectTags(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSetTags = n
}

// PresignCalls reports how many presign operations hit the signer.
func (s *Store) PresignCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presignCalls
}

// PolicyWrites reports how many times a bucket policy was written.
func (s *Store) PolicyWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policyWrites
}

// PutObject seeds an object directly, bypassing the file-upload path.
func (s *Store) PutObject(bucketName, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucketLocked(bucketName)
	cp := make([]byte, len(data))
	copy(cp, data)
	b.objects[key] = &object{
		data:     cp,
		etag:     fmt.Sprintf("%x", md5.Sum(cp)),
		modified: time.Now(),
		tags:     make(map[string]string),
	}
}

// ObjectData returns a copy of the stored bytes, or nil when absent.
func (s *Store) ObjectData(bucketName, key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketName]
	if !ok {
		return nil
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp
}

// ObjectTags returns a copy of the object's tag map, or nil when absent.
func (s *Store) ObjectTags(bucketName, key string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketName]
	if !ok {
		return nil
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil
	}
	cp := make(map[string]string, len(obj.tags))
	for k, v := range obj.tags {
		cp[k] = v
	}
	return cp
}

// bucketLocked returns the named bucket, creating it implicitly.
// Callers must hold s.mu.
func (s *Store) bucketLocked(name string) *bucket {
	b, ok := s.buckets[name]
	if !ok {
		b = &bucket{
			created: time.Now(),
			objects: make(map[string]*object),
			uploads: make(map[string]bool),
		}
		s.buckets[name] = b
	}
	return b
}

// --- objstore.Store implementation ---

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) StatObject(ctx context.Context, bucketName, key string) (*objstore.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, err := s.objectLocked(bucketName, key)
	if err != nil {
		return nil, err
	}
	return &objstore.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ETag:         obj.etag,
		LastModified: obj.modified,
	}, nil
}

func (s *Store) GetObjectRange(ctx context.Context, bucketName, key string, start, stop int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, err := s.objectLocked(bucketName, key)
	if err != nil {
		return nil, err
	}
	size := int64(len(obj.data))
	if start >= size {
		// Reading past the end yields an empty body, matching the
		// lenient backends the checksum engine must defend against.
		return nil, nil
	}
	if stop >= size {
		stop = size - 1
	}
	cp := make([]byte, stop-start+1)
	copy(cp, obj.data[start:stop+1])
	return cp, nil
}

func (s *Store) GetObjectTags(ctx context.Context, bucketName, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, err := s.objectLocked(bucketName, key)
	if err != nil {
		return nil, err
	}
	cp := make(map[string]string, len(obj.tags))
	for k, v := range obj.tags {
		cp[k] = v
	}
	return cp, nil
}

func (s *Store) SetObjectTags(ctx context.Context, bucketName, key string, tagMap map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSetTags > 0 {
		s.failSetTags--
		return errs.New(errs.ErrKindConnectionFailed, "injected transient failure")
	}
	obj, err := s.objectLocked(bucketName, key)
	if err != nil {
		return err
	}
	cp := make(map[string]string, len(tagMap))
	for k, v := range tagMap {
		cp[k] = v
	}
	obj.tags = cp
	return nil
}

func (s *Store) BucketCreationDate(ctx context.Context, bucketName string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketName]
	if !ok {
		return time.Time{}, nil
	}
	return b.created, nil
}

func (s *Store) MakeBucket(ctx context.Context, bucketName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucketName]; ok {
		return errs.New(errs.ErrKindAlreadyExists, "bucket already exists")
	}
	s.buckets[bucketName] = &bucket{
		created: time.Now(),
		objects: make(map[string]*object),
		uploads: make(map[string]bool),
	}
	return nil
}

func (s *Store) GetBucketPolicy(ctx context.Context, bucketName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketName]
	if !ok {
		return "", errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	return b.policy, nil
}

func (s *Store) SetBucketPolicy(ctx context.Context, bucketName, policy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketName]
	if !ok {
		return errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	b.policy = policy
	s.policyWrites++
	return nil
}

func (s *Store) UploadFile(ctx context.Context, bucketName, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "cannot read local file", err)
	}
	s.PutObject(bucketName, key, data)
	return nil
}

func (s *Store) NewMultipartUpload(ctx context.Context, bucketName, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketName]
	if !ok {
		return "", errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	s.uploadSeq++
	uploadID := fmt.Sprintf("upload-%06d", s.uploadSeq)
	b.uploads[uploadID] = true
	return uploadID, nil
}

func (s *Store) AbortMultipartUpload(ctx context.Context, bucketName, key, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucketName]
	if !ok || !b.uploads[uploadID] {
		return errs.New(errs.ErrKindNotFound, "no such upload")
	}
	delete(b.uploads, uploadID)
	return nil
}

func (s *Store) PresignGet(ctx context.Context, bucketName, key string, expires time.Duration, filename string) (string, error) {
	params := url.Values{}
	if filename != "" {
		params.Set("response-content-disposition", `attachment; filename="`+filename+`"`)
	}
	return s.presign("GET", bucketName, key, expires, params), nil
}

func (s *Store) PresignPut(ctx context.Context, bucketName, key string, expires time.Duration) (string, error) {
	return s.presign("PUT", bucketName, key, expires, url.Values{}), nil
}

func (s *Store) PresignUploadPart(ctx context.Context, bucketName, key, uploadID string, partNumber int, expires time.Duration) (string, error) {
	params := url.Values{"uploadId": {uploadID}, "partNumber": {strconv.Itoa(partNumber)}}
	return s.presign("PUT", bucketName, key, expires, params), nil
}

func (s *Store) PresignCompleteMultipart(ctx context.Context, bucketName, key, uploadID string, expires time.Duration) (string, error) {
	params := url.Values{"uploadId": {uploadID}}
	return s.presign("POST", bucketName, key, expires, params), nil
}

// presign fabricates a URL whose signature covers the request parameters
// and a per-call sequence number. Two signer calls never return the same
// URL, so any URL equality observed by tests comes from the issuer's cache.
func (s *Store) presign(method, bucketName, key string, expires time.Duration, params url.Values) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presignCalls++
	s.signSeq++

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	canonical := method + "\n" + bucketName + "\n" + key
	for _, k := range keys {
		canonical += "\n" + k + "=" + params.Get(k)
	}
	sig := sha256.Sum256([]byte(fmt.Sprintf("%s\n%d\n%d", canonical, int(expires.Seconds()), s.signSeq)))

	params.Set("X-Amz-Expires", strconv.Itoa(int(expires.Seconds())))
	params.Set("X-Amz-Signature", fmt.Sprintf("%x", sig[:8]))
	return fmt.Sprintf("https://store.invalid/%s/%s?%s", bucketName, key, params.Encode())
}

// objectLocked looks an object up. Callers must hold s.mu.
func (s *Store) objectLocked(bucketName, key string) (*object, error) {
	b, ok := s.buckets[bucketName]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such key")
	}
	return obj, nil
}
