// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

const contentStoreService = "content-store"

// ContentStore pins content to a content-addressed store and returns its
// content identifier.
type ContentStore interface {
	PinJSON(ctx context.Context, v any, name string) (string, error)
	PinFile(ctx context.Context, data []byte, filename, contentType string) (string, error)
	URL(cid string) string
	Name() string
}

// NewContentStore picks the store named by CONTENT_STORE. A store with
// missing credentials is still returned; its calls fail.
func NewContentStore(cfg *config.Config) (ContentStore, error) {
	switch cfg.ContentStore.Mode {
	case config.StoreModePinata:
		return NewPinataStore(cfg.ContentStore), nil
	case config.StoreModeS3:
		return NewS3Store(cfg.ContentStore)
	case config.StoreModeMock:
		if cfg.Environment == config.EnvProduction {
			return nil, fmt.Errorf("mock content store is not allowed in production")
		}
		logrus.Warn("Using mock content store: content identifiers are fabricated")
		return NewMockStore(cfg.ContentStore.GatewayURL), nil
	default:
		return nil, fmt.Errorf("unknown content store %q", cfg.ContentStore.Mode)
	}
}

func gatewayURL(gateway, cid string) string {
	return strings.TrimRight(gateway, "/") + "/" + cid
}

// PinataStore talks to the Pinata pinning API.
type PinataStore struct {
	apiURL  string
	jwt     string
	gateway string
	client  *http.Client
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func NewPinataStore(cfg config.ContentStoreConfig) *PinataStore {
	return &PinataStore{
		apiURL:  strings.TrimRight(cfg.PinataAPIURL, "/"),
		jwt:     cfg.PinataJWT,
		gateway: cfg.GatewayURL,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (s *PinataStore) Name() string { return config.StoreModePinata }

func (s *PinataStore) URL(cid string) string { return gatewayURL(s.gateway, cid) }

func (s *PinataStore) PinJSON(ctx context.Context, v any, name string) (string, error) {
	if s.jwt == "" {
		return "", NewExternalServiceError(contentStoreService, "content store credentials are not configured", nil)
	}

	body, err := json.Marshal(map[string]any{
		"pinataContent":  v,
		"pinataMetadata": map[string]string{"name": name},
	})
	if err != nil {
		return "", NewInternalError(errors.Wrap(err, "marshal pin request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", NewInternalError(errors.Wrap(err, "build pin request"))
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *PinataStore) PinFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if s.jwt == "" {
		return "", NewExternalServiceError(contentStoreService, "content store credentials are not configured", nil)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(fileHeader(filename, contentType))
	if err != nil {
		return "", NewInternalError(errors.Wrap(err, "create multipart part"))
	}
	if _, err := part.Write(data); err != nil {
		return "", NewInternalError(errors.Wrap(err, "write multipart part"))
	}
	meta, _ := json.Marshal(map[string]string{"name": filename})
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", NewInternalError(errors.Wrap(err, "write pin metadata"))
	}
	if err := w.Close(); err != nil {
		return "", NewInternalError(errors.Wrap(err, "close multipart body"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", NewInternalError(errors.Wrap(err, "build pin request"))
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req)
}

func fileHeader(filename, contentType string) map[string][]string {
	h := map[string][]string{}
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	if contentType != "" {
		h["Content-Type"] = []string{contentType}
	}
	return h
}

func (s *PinataStore) do(req *http.Request) (string, error) {
	req.Header.Set("Authorization", "Bearer "+s.jwt)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", NewExternalServiceError(contentStoreService, "content store is unreachable", errors.Wrap(err, "pinata request"))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", NewExternalServiceError(contentStoreService, "content store response could not be read", errors.Wrap(err, "read pinata response"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", NewExternalServiceError(contentStoreService,
			fmt.Sprintf("content store rejected the upload (status %d)", resp.StatusCode),
			errors.Errorf("pinata status %d: %s", resp.StatusCode, truncate(string(payload), 200)))
	}

	var out pinataResponse
	if err := json.Unmarshal(payload, &out); err != nil || out.IpfsHash == "" {
		return "", NewExternalServiceError(contentStoreService, "content store returned no content identifier",
			errors.Wrap(err, "decode pinata response"))
	}
	return out.IpfsHash, nil
}

// S3Store pins through an S3-compatible IPFS gateway that reports the
// content identifier in the object's "cid" metadata.
type S3Store struct {
	client  *s3.S3
	bucket  string
	gateway string
	timeout time.Duration
}

func NewS3Store(cfg config.ContentStoreConfig) (*S3Store, error) {
	store := &S3Store{
		bucket:  cfg.S3Bucket,
		gateway: cfg.GatewayURL,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" || cfg.S3Bucket == "" {
		return store, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.S3Endpoint),
		Region:           aws.String(cfg.S3Region),
		S3ForcePathStyle: aws.Bool(true),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3AccessKeyID,
			cfg.S3SecretKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	store.client = s3.New(sess)
	return store, nil
}

func (s *S3Store) Name() string { return config.StoreModeS3 }

func (s *S3Store) URL(cid string) string { return gatewayURL(s.gateway, cid) }

func (s *S3Store) PinJSON(ctx context.Context, v any, name string) (string, error) {
	body, err := utils.CanonicalJSON(v)
	if err != nil {
		return "", NewInternalError(err)
	}
	key := utils.HashContent(body) + "/" + name + ".json"
	return s.put(ctx, key, body, "application/json")
}

func (s *S3Store) PinFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := utils.HashContent(data) + "/" + filename
	return s.put(ctx, key, data, contentType)
}

func (s *S3Store) put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if s.client == nil {
		return "", NewExternalServiceError(contentStoreService, "content store credentials are not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", NewExternalServiceError(contentStoreService, "content store upload failed", errors.Wrap(err, "s3 put object"))
	}

	head, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", NewExternalServiceError(contentStoreService, "content store upload could not be confirmed", errors.Wrap(err, "s3 head object"))
	}
	for k, v := range head.Metadata {
		if strings.EqualFold(k, "cid") && v != nil && *v != "" {
			return *v, nil
		}
	}
	return "", NewExternalServiceError(contentStoreService, "content store returned no content identifier",
		errors.Errorf("object %s has no cid metadata", key))
}

// MockStore fabricates deterministic identifiers without storing anything.
// It exists for tests and demos only.
type MockStore struct {
	gateway string
}

func NewMockStore(gateway string) *MockStore {
	if gateway == "" {
		gateway = "https://ipfs.io/ipfs"
	}
	return &MockStore{gateway: gateway}
}

func (s *MockStore) Name() string { return config.StoreModeMock }

func (s *MockStore) URL(cid string) string { return gatewayURL(s.gateway, cid) }

func (s *MockStore) PinJSON(ctx context.Context, v any, name string) (string, error) {
	body, err := utils.CanonicalJSON(v)
	if err != nil {
		return "", NewInternalError(err)
	}
	return mockCID(body), nil
}

func (s *MockStore) PinFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	return mockCID(data), nil
}

var mockEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func mockCID(data []byte) string {
	sum := sha256.Sum256(data)
	return "bafkrei" + strings.ToLower(mockEncoding.EncodeToString(sum[:]))
}

// UploadBatch validates every file before pinning any of them, then pins
// them concurrently. Any failure fails the whole batch.
func UploadBatch(ctx context.Context, store ContentStore, files []models.FileUpload) ([]models.UploadedContentRef, []*ValidatedFile, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	validated := make([]*ValidatedFile, len(files))
	var violations []utils.ValidationError
	for i, f := range files {
		field := fmt.Sprintf("files[%d]", i)
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			violations = append(violations, utils.ValidationError{Field: field + ".data", Tag: "base64", Message: field + ".data must be valid base64"})
			continue
		}
		vf, err := ValidateFile(data, f.Filename, f.ContentType)
		if err != nil {
			violations = append(violations, utils.ValidationError{Field: field, Tag: "file", Message: err.Error()})
			continue
		}
		vf.Purpose = string(f.Purpose)
		validated[i] = vf
	}
	if len(violations) > 0 {
		return nil, nil, violationsError(violations)
	}

	refs := make([]models.UploadedContentRef, len(validated))
	g, gctx := errgroup.WithContext(ctx)
	for i, vf := range validated {
		g.Go(func() error {
			cid, err := store.PinFile(gctx, vf.Data, vf.Filename, vf.ContentType)
			if err != nil {
				return err
			}
			refs[i] = models.UploadedContentRef{
				ContentID:   cid,
				URL:         store.URL(cid),
				Purpose:     vf.Purpose,
				Filename:    vf.Filename,
				ContentType: vf.ContentType,
				Size:        vf.Size,
				ContentHash: vf.ContentHash,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, classifyStoreError(err)
	}
	return refs, validated, nil
}

// PinMetadata pins v as JSON and returns its reference.
func PinMetadata(ctx context.Context, store ContentStore, v any, name, purpose string) (models.UploadedContentRef, error) {
	cid, err := store.PinJSON(ctx, v, name)
	if err != nil {
		return models.UploadedContentRef{}, classifyStoreError(err)
	}
	return models.UploadedContentRef{
		ContentID:   cid,
		URL:         store.URL(cid),
		Purpose:     purpose,
		ContentType: "application/json",
	}, nil
}

func classifyStoreError(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewExternalServiceError(contentStoreService, "content store upload failed", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
