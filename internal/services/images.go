package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxUploadFiles nombre maximal d'images par requête produit
const MaxUploadFiles = 6

// UploadsURLPrefix préfixe public des fichiers servis depuis le disque
const UploadsURLPrefix = "/uploads/"

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".ico": true,
}

// ImageStore stockage des images produit (disque local ou MinIO)
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, imagePath string) error
	List(ctx context.Context) ([]string, error)
}

// UploadName: `<unix-ms>-<nom d'origine, espaces remplacés par _>`
func UploadName(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// IsImageName filtre utilisé par la liste des uploads
func IsImageName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// ---------- Disque local ----------

type DiskStore struct {
	dir string
	now func() time.Time
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("création du dossier d'upload: %w", err)
	}
	return &DiskStore{dir: dir, now: time.Now}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := UploadName(file.Filename, s.now())
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return UploadsURLPrefix + name, nil
}

// Remove n'agit que sur les chemins /uploads/...; les URLs externes sont ignorées.
func (s *DiskStore) Remove(_ context.Context, imagePath string) error {
	if !strings.HasPrefix(imagePath, UploadsURLPrefix) {
		return nil
	}
	name := path.Base(imagePath)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List renvoie les fichiers image du dossier, triés par nom; [] si le dossier n'existe pas.
func (s *DiskStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsImageName(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}
