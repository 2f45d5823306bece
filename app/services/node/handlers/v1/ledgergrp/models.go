package ledgergrp

import (
	"github.com/contentledger/notary/foundation/blockchain/database"
	"github.com/contentledger/notary/foundation/blockchain/state"
)

type submitRequest struct {
	ContentHash string         `json:"content_hash" validate:"required"`
	DataType    string         `json:"data_type"`
	Submitter   string         `json:"submitter"`
	Metadata    map[string]any `json:"metadata"`
}

type submitResponse struct {
	Status      string      `json:"status"`
	Transaction database.Tx `json:"transaction"`
}

type addRequest struct {
	ContentHash string         `json:"content_hash" validate:"required"`
	DataType    string         `json:"data_type"`
	Submitter   string         `json:"submitter" validate:"required"`
	Metadata    map[string]any `json:"metadata"`
}

type addResponse struct {
	Message     string         `json:"message"`
	Transaction database.Tx    `json:"transaction"`
	Block       database.Block `json:"block"`
}

type batchRequest struct {
	ContentHashes []string `json:"content_hashes" validate:"required,min=1,dive,required"`
	Submitter     string   `json:"submitter" validate:"required"`
}

type batchResult struct {
	ContentHash string      `json:"content_hash"`
	Transaction database.Tx `json:"transaction"`
}

type batchResponse struct {
	Message string         `json:"message"`
	Results []batchResult  `json:"results"`
	Block   database.Block `json:"block"`
	Stats   state.Stats    `json:"blockchain_stats"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type verification struct {
	Verified bool `json:"verified"`
	database.Location
}

type validateResponse struct {
	Validation  database.ValidationResult `json:"validation"`
	ChainLength int                       `json:"chain_length"`
}

type statsResponse struct {
	Stats state.Stats `json:"blockchain_stats"`
}
