package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/eldtechnologies/haikunft/internal/models"
)

// MintPreview is a shortened mint for the stats feed.
type MintPreview struct {
	TokenID   models.TokenID `json:"token_id"`
	AccountID string         `json:"account_id"`
	Title     string         `json:"title"`
	Haiku     string         `json:"haiku"`
	Media     string         `json:"media,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	CachedTokens int           `json:"cached_tokens"`
	TotalMints   int64         `json:"total_mints"`
	MintedTokens int64         `json:"minted_tokens"`
	LastMint     string        `json:"last_mint"`
	RecentMints  []MintPreview `json:"recent_mints"`
}

// Stats returns generation and mint statistics. Mint figures are zero when no
// store is configured.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := StatsResponse{
		CachedTokens: h.results.Len(),
		LastMint:     "no mints yet",
		RecentMints:  []MintPreview{},
	}

	if h.mints != nil {
		counts, err := h.mints.CountMints(ctx)
		if err != nil {
			h.internalError(w, r, "store", err)
			return
		}
		resp.TotalMints = counts.Mints
		resp.MintedTokens = counts.Tokens
		if counts.Last != nil {
			resp.LastMint = formatTimeAgo(*counts.Last)
		}

		recent, err := h.mints.RecentMints(ctx, 5)
		if err != nil {
			// Non-fatal, continue with empty feed
			recent = nil
		}
		for _, m := range recent {
			resp.RecentMints = append(resp.RecentMints, MintPreview{
				TokenID:   m.TokenID,
				AccountID: m.AccountID,
				Title:     m.Title,
				Haiku:     m.Haiku,
				Media:     m.MediaURL,
				Timestamp: m.CreatedAt.UnixMilli(),
			})
		}
	}

	h.JSON(w, http.StatusOK, resp)
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	default:
		return plural(int(diff.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
