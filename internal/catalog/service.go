package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/blob"
	"github.com/mealforge/mealforge/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	storage       storage.CatalogStorage
	blobStore     blob.Store
	uploadMaxMB   int
	allowedMime   map[string]bool
	allowedMimeCS string
}

func NewService(catalogStorage storage.CatalogStorage, blobStore blob.Store, uploadMaxMB int, allowedMime string) *Service {
	allowed := make(map[string]bool)
	for _, m := range strings.Split(allowedMime, ",") {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			allowed[m] = true
		}
	}
	return &Service{
		storage:       catalogStorage,
		blobStore:     blobStore,
		uploadMaxMB:   uploadMaxMB,
		allowedMime:   allowed,
		allowedMimeCS: allowedMime,
	}
}

func (s *Service) List(ctx context.Context, ownerUserID, query string, limit, offset int) (ListResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.storage.ListItems(ctx, ownerUserID, query, limit, offset)
	if err != nil {
		return ListResponse{}, err
	}

	dtos := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, dtoFromStorage(item))
	}
	return ListResponse{Items: dtos, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (ItemDTO, error) {
	item, err := s.storage.GetItem(ctx, ownerUserID, id)
	if err != nil {
		return ItemDTO{}, err
	}
	return dtoFromStorage(item), nil
}

func (s *Service) Upsert(ctx context.Context, ownerUserID string, req UpsertRequest) (ItemDTO, error) {
	if err := req.Validate(); err != nil {
		return ItemDTO{}, err
	}

	upsert := storage.CatalogItemUpsert{
		Name:     strings.TrimSpace(req.Name),
		Tags:     normalizeTags(req.Tags),
		PortionG: req.PortionG,
		Calories: req.Calories,
		ProteinG: req.ProteinG,
		CarbsG:   req.CarbsG,
		FatG:     req.FatG,
	}
	if req.ID != nil {
		upsert.ID = *req.ID
	}

	item, err := s.storage.UpsertItem(ctx, ownerUserID, upsert)
	if err != nil {
		return ItemDTO{}, err
	}
	return dtoFromStorage(item), nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return s.storage.DeleteItem(ctx, ownerUserID, id)
}

// UploadImage stores image bytes in the blob store and records the object key.
func (s *Service) UploadImage(ctx context.Context, ownerUserID string, id uuid.UUID, data []byte, contentType string) error {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !s.allowedMime[contentType] {
		return fmt.Errorf("unsupported content type %q (allowed: %s)", contentType, s.allowedMimeCS)
	}
	if len(data) == 0 {
		return fmt.Errorf("image body is empty")
	}
	if len(data) > s.uploadMaxMB*1024*1024 {
		return fmt.Errorf("image exceeds %d MB limit", s.uploadMaxMB)
	}

	// Ownership check before touching the blob store. System items are
	// visible to everyone but only owned items accept images.
	item, err := s.storage.GetItem(ctx, ownerUserID, id)
	if err != nil {
		return err
	}
	if item.OwnerUserID != ownerUserID {
		return storage.ErrNotFound
	}

	key := fmt.Sprintf("catalog/%s/%s", ownerUserID, id)
	if _, err := s.blobStore.PutObject(ctx, key, data, contentType); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}

	return s.storage.SetItemImage(ctx, ownerUserID, id, key)
}

// DownloadImage returns image bytes for an item the owner can see.
func (s *Service) DownloadImage(ctx context.Context, ownerUserID string, id uuid.UUID) ([]byte, error) {
	item, err := s.storage.GetItem(ctx, ownerUserID, id)
	if err != nil {
		return nil, err
	}
	if item.ImageKey == nil || *item.ImageKey == "" {
		return nil, storage.ErrNotFound
	}
	return s.blobStore.GetObject(ctx, *item.ImageKey)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
