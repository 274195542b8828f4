// internal/api/types/response.go
package types

import "cardledger/internal/domain"

// ListResponse wraps a collection in the API's list envelope.
// T represents the type of data contained in the 'Data' slice.
type ListResponse[T any] struct {
	Data       []T `json:"data"`
	TotalCount int `json:"total_count"`
}

// NewListResponse never renders a null data array.
func NewListResponse[T any](data []T) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, TotalCount: len(data)}
}

// CardResponse is the external view of a card. Timestamps use the snapshot format.
type CardResponse struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	OwnerName  string `json:"owner_name"`
	Balance    int64  `json:"balance"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at"`
	Color      int    `json:"color"`
}

// NewCardResponse converts a domain card.
func NewCardResponse(c domain.Card) CardResponse {
	return CardResponse{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		OwnerName:  c.OwnerDisplayName,
		Balance:    c.Balance,
		CreatedAt:  domain.FormatTimestamp(c.CreatedAt),
		LastUsedAt: domain.FormatTimestamp(c.LastUsedAt),
		Color:      c.Color,
	}
}

// NewCardList converts a slice of domain cards.
func NewCardList(cards []domain.Card) ListResponse[CardResponse] {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, NewCardResponse(c))
	}
	return NewListResponse(out)
}

// ErrorResponse is returned for every rejected request.
type ErrorResponse struct {
	Error            string `json:"error"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	Remaining        string `json:"remaining,omitempty"`
}
