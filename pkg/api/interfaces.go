package api

import (
	"context"

	"kwcluster/pkg/keyword"
)

// DefaultSelect lists the fields requested from the organic-keywords endpoint.
var DefaultSelect = []string{
	"keyword",
	"volume",
	"keyword_difficulty",
	"cpc",
	"best_position",
	"best_position_url",
}

// OrganicKeywordsRequest selects which rows the remote API returns.
type OrganicKeywordsRequest struct {
	Target  string   `json:"target"`
	Country string   `json:"country"`
	Date    string   `json:"date"`
	Limit   int      `json:"limit"`
	OrderBy string   `json:"order_by"`
	Mode    string   `json:"mode"`
	Select  []string `json:"select"`
}

// KeywordSource fetches a raw keyword table from a remote service.
// Tables come back with the service's own column names; normalize them with keyword.APISchema.
type KeywordSource interface {
	FetchOrganicKeywords(ctx context.Context, req OrganicKeywordsRequest) (*keyword.RawTable, error)
}
