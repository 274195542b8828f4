// internal/persistence/documents.go
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"cardledger/internal/domain"
)

// CooldownsVersion is the current cooldowns document version.
const CooldownsVersion = 1

// CardsSnapshot is the decoded content of the cards document.
type CardsSnapshot struct {
	Cards      []domain.Card
	RetiredIDs []string // destroyed ids, kept so they are never reissued
}

// cardsDocument is the on-disk cards layout.
type cardsDocument struct {
	TotalCards int                  `yaml:"total-cards"`
	LastSave   string               `yaml:"last-save"`
	Cards      map[string]yaml.Node `yaml:"cards"`
	RetiredIDs []string             `yaml:"retired-ids,omitempty"`
}

// cardEntry is one record under "cards". Pointer fields detect absent keys.
type cardEntry struct {
	Owner     string `yaml:"owner"`
	OwnerName string `yaml:"owner-name"`
	Balance   *int64 `yaml:"balance"`
	Created   string `yaml:"created"`
	LastUsed  string `yaml:"last-used"`
	Color     *int   `yaml:"color"`
}

type cooldownsDocument struct {
	Version        int                  `yaml:"version"`
	LastSave       string               `yaml:"last-save"`
	TotalCooldowns int                  `yaml:"total-cooldowns"`
	Cooldowns      map[string]yaml.Node `yaml:"cooldowns"`
}

type skinsDocument struct {
	Skins map[string]skinEntry `yaml:"skins"`
}

type skinEntry struct {
	Name  string   `yaml:"name"`
	Skins []string `yaml:"skins"`
}

// EncodeCards renders the cards document. total-cards is recomputed from the map.
func EncodeCards(snap CardsSnapshot, savedAt time.Time) ([]byte, error) {
	type outEntry struct {
		Owner     string `yaml:"owner"`
		OwnerName string `yaml:"owner-name"`
		Balance   int64  `yaml:"balance"`
		Created   string `yaml:"created"`
		LastUsed  string `yaml:"last-used"`
		Color     int    `yaml:"color"`
	}
	doc := struct {
		TotalCards int                 `yaml:"total-cards"`
		LastSave   string              `yaml:"last-save"`
		Cards      map[string]outEntry `yaml:"cards"`
		RetiredIDs []string            `yaml:"retired-ids,omitempty"`
	}{
		LastSave:   domain.FormatTimestamp(savedAt),
		Cards:      make(map[string]outEntry, len(snap.Cards)),
		RetiredIDs: snap.RetiredIDs,
	}
	for _, c := range snap.Cards {
		doc.Cards[c.ID] = outEntry{
			Owner:     c.OwnerID,
			OwnerName: c.OwnerDisplayName,
			Balance:   c.Balance,
			Created:   domain.FormatTimestamp(c.CreatedAt),
			LastUsed:  domain.FormatTimestamp(c.LastUsedAt),
			Color:     c.Color,
		}
	}
	doc.TotalCards = len(doc.Cards)
	return yaml.Marshal(&doc)
}

// DecodeCards parses the cards document. Broken entries are logged and skipped;
// a skipped entry with a well-formed id keeps that id retired.
func DecodeCards(data []byte, logger *slog.Logger) (CardsSnapshot, error) {
	var doc cardsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return CardsSnapshot{}, fmt.Errorf("decode cards document: %w", err)
	}

	var snap CardsSnapshot
	for _, raw := range doc.RetiredIDs {
		id, err := domain.NormalizeCardID(raw)
		if err != nil {
			logger.Warn("Skipping malformed retired card id", "id", raw)
			continue
		}
		snap.RetiredIDs = append(snap.RetiredIDs, id)
	}

	for key, node := range doc.Cards {
		id, err := domain.NormalizeCardID(key)
		if err != nil {
			logger.Warn("Skipping card with malformed id", "id", key)
			continue
		}
		card, err := decodeCardEntry(id, &node)
		if err != nil {
			logger.Warn("Skipping malformed card entry", "id", id, "error", err)
			snap.RetiredIDs = append(snap.RetiredIDs, id)
			continue
		}
		snap.Cards = append(snap.Cards, card)
	}
	return snap, nil
}

func decodeCardEntry(id string, node *yaml.Node) (domain.Card, error) {
	var e cardEntry
	if err := node.Decode(&e); err != nil {
		return domain.Card{}, err
	}
	owner, err := domain.NormalizeOwnerID(e.Owner)
	if err != nil {
		return domain.Card{}, fmt.Errorf("owner %q: %w", e.Owner, err)
	}
	created, err := domain.ParseTimestamp(e.Created)
	if err != nil {
		return domain.Card{}, err
	}
	lastUsed, err := domain.ParseTimestamp(e.LastUsed)
	if err != nil {
		return domain.Card{}, err
	}

	card := domain.Card{
		ID:               id,
		OwnerID:          owner,
		OwnerDisplayName: e.OwnerName,
		CreatedAt:        created,
		LastUsedAt:       lastUsed,
		Color:            domain.DefaultColor,
	}
	if card.OwnerDisplayName == "" {
		card.OwnerDisplayName = domain.DefaultOwnerName
	}
	if e.Balance != nil {
		if *e.Balance < 0 {
			return domain.Card{}, fmt.Errorf("negative balance %d", *e.Balance)
		}
		card.Balance = *e.Balance
	}
	if e.Color != nil {
		card.Color = *e.Color & 0xFFFFFF
	}
	return card, nil
}

// EncodeCooldowns renders the cooldowns document with expiries as epoch milliseconds.
func EncodeCooldowns(expires map[string]time.Time, savedAt time.Time) ([]byte, error) {
	doc := struct {
		Version        int              `yaml:"version"`
		LastSave       string           `yaml:"last-save"`
		TotalCooldowns int              `yaml:"total-cooldowns"`
		Cooldowns      map[string]int64 `yaml:"cooldowns"`
	}{
		Version:        CooldownsVersion,
		LastSave:       domain.FormatTimestamp(savedAt),
		TotalCooldowns: len(expires),
		Cooldowns:      make(map[string]int64, len(expires)),
	}
	for owner, t := range expires {
		doc.Cooldowns[owner] = t.UnixMilli()
	}
	return yaml.Marshal(&doc)
}

// DecodeCooldowns parses the cooldowns document, skipping malformed owner keys and values.
func DecodeCooldowns(data []byte, logger *slog.Logger) (map[string]time.Time, error) {
	var doc cooldownsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cooldowns document: %w", err)
	}
	if doc.Version > CooldownsVersion {
		logger.Warn("Cooldowns document is newer than supported", "version", doc.Version)
	}

	out := make(map[string]time.Time, len(doc.Cooldowns))
	for key, node := range doc.Cooldowns {
		owner, err := domain.NormalizeOwnerID(key)
		if err != nil {
			logger.Warn("Skipping cooldown with malformed owner id", "owner", key)
			continue
		}
		var ms int64
		if err := node.Decode(&ms); err != nil {
			logger.Warn("Skipping malformed cooldown expiry", "owner", owner, "error", err)
			continue
		}
		out[owner] = time.UnixMilli(ms)
	}
	return out, nil
}

// EncodeSkins renders the skins document.
func EncodeSkins(sets map[string]domain.SkinSet) ([]byte, error) {
	doc := skinsDocument{Skins: make(map[string]skinEntry, len(sets))}
	for owner, set := range sets {
		skins := set.Skins
		if skins == nil {
			skins = []string{}
		}
		doc.Skins[owner] = skinEntry{Name: set.OwnerName, Skins: skins}
	}
	return yaml.Marshal(&doc)
}

// DecodeSkins parses the skins document, dropping malformed owners and skin ids.
func DecodeSkins(data []byte, logger *slog.Logger) (map[string]domain.SkinSet, error) {
	var doc skinsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode skins document: %w", err)
	}

	out := make(map[string]domain.SkinSet, len(doc.Skins))
	for key, entry := range doc.Skins {
		owner, err := domain.NormalizeOwnerID(key)
		if err != nil {
			logger.Warn("Skipping skins with malformed owner id", "owner", key)
			continue
		}
		set := domain.SkinSet{OwnerName: entry.Name}
		for _, raw := range entry.Skins {
			id, err := domain.NormalizeSkinID(raw)
			if err != nil {
				logger.Warn("Skipping malformed skin id", "owner", owner, "skin", raw)
				continue
			}
			if !set.Has(id) {
				set.Skins = append(set.Skins, id)
			}
		}
		if len(set.Skins) == 0 {
			continue
		}
		out[owner] = set
	}
	return out, nil
}
