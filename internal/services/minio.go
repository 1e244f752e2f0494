package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore images stockées dans un bucket; le chemin renvoyé est l'URL de l'objet
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	now     func() time.Time
}

// ConnectMinio crée le client et le bucket s'il n'existe pas encore
func ConnectMinio(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO non configuré: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("MinIO injoignable: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création du bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("✅ Bucket MinIO créé: %s", cfg.Bucket)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	log.Println("✅ Connecté à MinIO :", cfg.Endpoint)
	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: fmt.Sprintf("%s://%s/%s/", scheme, cfg.Endpoint, cfg.Bucket),
		now:     time.Now,
	}, nil
}

func (s *MinioStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := UploadName(file.Filename, s.now())
	_, err = s.client.PutObject(ctx, s.bucket, name, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}
	return s.baseURL + name, nil
}

// Remove accepte l'URL de l'objet ou un chemin /uploads/<nom>
func (s *MinioStore) Remove(ctx context.Context, imagePath string) error {
	if !strings.HasPrefix(imagePath, s.baseURL) && !strings.HasPrefix(imagePath, UploadsURLPrefix) {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, path.Base(imagePath), minio.RemoveObjectOptions{})
}

func (s *MinioStore) List(ctx context.Context) ([]string, error) {
	out := []string{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if IsImageName(obj.Key) {
			out = append(out, obj.Key)
		}
	}
	sort.Strings(out)
	return out, nil
}
