// internal/service/skin_service.go
package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"

	"cardledger/internal/domain"
	"cardledger/internal/repository"
	"cardledger/internal/util"
)

// SkinService manages the cosmetic skins each owner has unlocked.
type SkinService interface {
	// GetAvailable lists the owner's skins in the order they were unlocked.
	GetAvailable(ownerID string) []string
	Add(ctx context.Context, ownerID, ownerName, skinID string) error
	// AddAll unlocks every catalog skin the owner lacks and returns the new ids.
	AddAll(ctx context.Context, ownerID, ownerName string) ([]string, error)
	Remove(ctx context.Context, ownerID, skinID string) error
	// Catalog maps skin id to display name. Empty means any numeric id is accepted.
	Catalog() map[string]string

	Load(ctx context.Context) error
	SaveAll(ctx context.Context) error
}

// SkinSnapshots is the part of the persistence layer the skin service uses.
type SkinSnapshots interface {
	LoadSkins(ctx context.Context) (map[string]domain.SkinSet, error)
	SaveSkins(ctx context.Context, version uint64, sets map[string]domain.SkinSet) error
}

type skinService struct {
	mu        sync.Mutex
	version   uint64
	skins     repository.SkinRepository
	snapshots SkinSnapshots
	catalog   map[string]string
	logger    *slog.Logger
}

// NewSkinService creates a SkinService. Catalog keys are normalized; invalid ones are dropped.
func NewSkinService(skins repository.SkinRepository, snapshots SkinSnapshots, catalog map[string]string, logger *slog.Logger) SkinService {
	clean := make(map[string]string, len(catalog))
	for raw, name := range catalog {
		id, err := domain.NormalizeSkinID(raw)
		if err != nil {
			logger.Warn("Ignoring catalog skin with non-numeric id", "skin", raw)
			continue
		}
		clean[id] = name
	}
	return &skinService{
		skins:     skins,
		snapshots: snapshots,
		catalog:   clean,
		logger:    logger,
	}
}

func (s *skinService) GetAvailable(ownerID string) []string {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return nil
	}
	set, _ := s.skins.Get(owner)
	return set.Skins
}

func (s *skinService) Add(ctx context.Context, ownerID, ownerName, skinID string) error {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return fmt.Errorf("add skin: %w", err)
	}
	id, err := domain.NormalizeSkinID(skinID)
	if err != nil {
		return fmt.Errorf("add skin %q: %w", skinID, err)
	}
	if len(s.catalog) > 0 {
		if _, ok := s.catalog[id]; !ok {
			return fmt.Errorf("add skin %s: %w", id, util.ErrUnknownSkin)
		}
	}

	s.mu.Lock()
	set, _ := s.skins.Get(owner)
	if set.Has(id) {
		s.mu.Unlock()
		return fmt.Errorf("add skin %s for %s: %w", id, owner, util.ErrSkinAlreadyOwned)
	}
	if ownerName != "" {
		set.OwnerName = ownerName
	}
	set.Skins = append(set.Skins, id)
	s.skins.Put(owner, set)
	version, sets := s.captureLocked()
	s.mu.Unlock()

	s.logger.Info("Skin unlocked", "owner_id", owner, "skin", id)
	return s.snapshots.SaveSkins(ctx, version, sets)
}

func (s *skinService) AddAll(ctx context.Context, ownerID, ownerName string) ([]string, error) {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("add all skins: %w", err)
	}

	s.mu.Lock()
	set, _ := s.skins.Get(owner)
	var added []string
	for _, id := range s.sortedCatalog() {
		if !set.Has(id) {
			set.Skins = append(set.Skins, id)
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	if ownerName != "" {
		set.OwnerName = ownerName
	}
	s.skins.Put(owner, set)
	version, sets := s.captureLocked()
	s.mu.Unlock()

	s.logger.Info("All skins unlocked", "owner_id", owner, "added", len(added))
	return added, s.snapshots.SaveSkins(ctx, version, sets)
}

func (s *skinService) Remove(ctx context.Context, ownerID, skinID string) error {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return fmt.Errorf("remove skin: %w", err)
	}
	id, err := domain.NormalizeSkinID(skinID)
	if err != nil {
		return fmt.Errorf("remove skin %q: %w", skinID, err)
	}

	s.mu.Lock()
	set, ok := s.skins.Get(owner)
	if !ok || !set.Has(id) {
		s.mu.Unlock()
		return fmt.Errorf("remove skin %s for %s: %w", id, owner, util.ErrSkinNotOwned)
	}
	set.Skins = slices.DeleteFunc(set.Skins, func(v string) bool { return v == id })
	if len(set.Skins) == 0 {
		s.skins.Delete(owner)
	} else {
		s.skins.Put(owner, set)
	}
	version, sets := s.captureLocked()
	s.mu.Unlock()

	s.logger.Info("Skin removed", "owner_id", owner, "skin", id)
	return s.snapshots.SaveSkins(ctx, version, sets)
}

func (s *skinService) Catalog() map[string]string {
	return maps.Clone(s.catalog)
}

func (s *skinService) Load(ctx context.Context) error {
	sets, err := s.snapshots.LoadSkins(ctx)
	if err != nil {
		return fmt.Errorf("load skins: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for owner, set := range sets {
		s.skins.Put(owner, set)
	}
	return nil
}

func (s *skinService) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	version, sets := s.captureLocked()
	s.mu.Unlock()
	return s.snapshots.SaveSkins(ctx, version, sets)
}

func (s *skinService) captureLocked() (uint64, map[string]domain.SkinSet) {
	s.version++
	return s.version, s.skins.All()
}

// sortedCatalog orders ids numerically so AddAll grants them deterministically.
func (s *skinService) sortedCatalog() []string {
	ids := slices.Collect(maps.Keys(s.catalog))
	slices.SortFunc(ids, func(a, b string) int {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		return cmp.Compare(x, y)
	})
	return ids
}
